package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoiceSentTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewInvoiceSentTask(InvoiceSentPayload{InvoiceID: 42, Token: "tok-abc"})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeInvoiceSent, task.Type())

	var payload InvoiceSentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.InvoiceID)
	assert.Equal(t, "tok-abc", payload.Token)
}

func TestHandleInvoiceSentTaskBadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskTypeInvoiceSent, []byte("not json"))
	err := HandleInvoiceSentTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type stubMarker struct {
	count int64
	err   error
	asOf  time.Time
}

func (s *stubMarker) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	s.asOf = asOf
	return s.count, s.err
}

func TestOverdueScanHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	marker := &stubMarker{count: 3}
	handler := NewOverdueScanHandler(marker, logger)
	require.NoError(t, handler(context.Background(), NewOverdueScanTask()))
	assert.False(t, marker.asOf.IsZero())

	marker = &stubMarker{err: errors.New("db down")}
	handler = NewOverdueScanHandler(marker, logger)
	assert.Error(t, handler(context.Background(), NewOverdueScanTask()))
}

func TestEnqueueInvoiceSent(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	info, err := client.EnqueueInvoiceSent(context.Background(), InvoiceSentPayload{InvoiceID: 7, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeInvoiceSent, info.Type)
	assert.Equal(t, QueueDefault, info.Queue)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()
	queueInfo, err := inspector.GetQueueInfo(QueueDefault)
	require.NoError(t, err)
	assert.Equal(t, 1, queueInfo.Pending)
}

func TestNotifierNilClientIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.InvoiceSent(context.Background(), 1, "tok"))

	n = NewNotifier(nil)
	assert.NoError(t, n.InvoiceSent(context.Background(), 1, "tok"))
}
