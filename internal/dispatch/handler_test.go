package dispatch

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	repo.technicians[1] = true
	repo.workOrders[10] = &mockWorkOrder{Status: "NEW"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, ServiceConfig{}))

	r := chi.NewRouter()
	r.Route("/dispatch-events", handler.MountRoutes)
	return r, repo
}

func TestListForWeekBadDateReturns400(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dispatch-events?week=January-8", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndListRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{
		"work_order_id":    10,
		"tech_id":          1,
		"start_at":         "2024-01-08T08:00:00Z",
		"duration_minutes": 90,
	})
	req := httptest.NewRequest(http.MethodPost, "/dispatch-events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "2024-01-08T09:30:00Z", created.EndAt.Format("2006-01-02T15:04:05Z07:00"))

	req = httptest.NewRequest(http.MethodGet, "/dispatch-events?week=2024-01-08", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		WeekStart string  `json:"week_start"`
		WeekEnd   string  `json:"week_end"`
		Events    []Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, "2024-01-08", listResp.WeekStart)
	assert.Equal(t, "2024-01-15", listResp.WeekEnd)
	require.Len(t, listResp.Events, 1)
	assert.Equal(t, created.ID, listResp.Events[0].ID)
}

func TestCreateMissingFieldsReturns400(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/dispatch-events", bytes.NewReader([]byte(`{"tech_id":1}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUnknownEventReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/dispatch-events/9999", bytes.NewReader([]byte(`{"status":"COMPLETE"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUnknownEventReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/dispatch-events/9999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlotsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dispatch-events/slots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Slots                  []string `json:"slots"`
		DefaultStart           string   `json:"default_start"`
		DefaultDurationMinutes int      `json:"default_duration_minutes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "08:00", resp.DefaultStart)
	assert.Equal(t, 120, resp.DefaultDurationMinutes)
	assert.NotEmpty(t, resp.Slots)
}
