// Package jobs holds background task definitions and the Asynq worker
// plumbing shared by the API and worker binaries.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInvoiceSent notifies a customer that an invoice went out.
	TaskTypeInvoiceSent = "mail:invoice_sent"
	// TaskTypeOverdueScan flips SENT invoices past their due date.
	TaskTypeOverdueScan = "invoice:overdue_scan"
)

// InvoiceSentPayload carries what the notification needs: the invoice
// and the portal token that gates the public view.
type InvoiceSentPayload struct {
	InvoiceID int64  `json:"invoice_id"`
	Token     string `json:"token"`
}

// NewInvoiceSentTask constructs the notification task.
func NewInvoiceSentTask(payload InvoiceSentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceSent, data), nil
}

// HandleInvoiceSentTask processes TaskTypeInvoiceSent tasks. Actual
// delivery is not wired to a mail provider; the handler records the
// intent so the queue drains cleanly.
func HandleInvoiceSentTask(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceSentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Default().Info("invoice sent notification",
		slog.Int64("invoice_id", payload.InvoiceID))
	return nil
}

// NewOverdueScanTask constructs the periodic overdue sweep task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// OverdueMarker is the slice of the invoice service the sweep needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueScanHandler returns the handler for TaskTypeOverdueScan.
func NewOverdueScanHandler(marker OverdueMarker, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := marker.MarkOverdue(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("invoices marked overdue", slog.Int64("count", n))
		}
		return nil
	}
}
