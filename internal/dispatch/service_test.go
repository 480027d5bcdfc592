package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

// mockRepository keeps events and a shadow of the work-order assignment
// state in memory.
type mockRepository struct {
	events      map[int64]*Event
	nextEventID int64

	workOrders  map[int64]*mockWorkOrder
	technicians map[int64]bool
}

type mockWorkOrder struct {
	Status         string
	AssignedTechID *int64
	WindowStart    *time.Time
	WindowEnd      *time.Time
	CompletedAt    *time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		events:      make(map[int64]*Event),
		nextEventID: 1,
		workOrders:  make(map[int64]*mockWorkOrder),
		technicians: make(map[int64]bool),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) ListBetween(ctx context.Context, start, end time.Time) ([]Event, error) {
	var out []Event
	for _, ev := range m.events {
		if !ev.StartAt.Before(start) && ev.StartAt.Before(end) {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, ev Event) (int64, error) {
	id := m.nextEventID
	m.nextEventID++
	ev.ID = id
	m.events[id] = &ev
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	ev, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["tech_id"]; ok {
		ev.TechID = v.(int64)
	}
	if v, ok := updates["start_at"]; ok {
		ev.StartAt = v.(time.Time)
	}
	if v, ok := updates["end_at"]; ok {
		ev.EndAt = v.(time.Time)
	}
	if v, ok := updates["status"]; ok {
		ev.Status = Status(v.(string))
	}
	if v, ok := updates["notes"]; ok {
		notes := v.(string)
		ev.Notes = &notes
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockRepository) WorkOrderExists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.workOrders[id]
	return ok, nil
}

func (m *mockRepository) TechExists(ctx context.Context, id int64) (bool, error) {
	return m.technicians[id], nil
}

func (m *mockRepository) HasOverlap(ctx context.Context, techID int64, start, end time.Time, excludeEventID int64) (bool, error) {
	for _, ev := range m.events {
		if ev.TechID != techID || ev.ID == excludeEventID || !ev.Status.IsActive() {
			continue
		}
		if ev.StartAt.Before(end) && ev.EndAt.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) LatestActiveEvent(ctx context.Context, workOrderID, excludeEventID int64) (*Event, error) {
	var latest *Event
	for _, ev := range m.events {
		if ev.WorkOrderID == nil || *ev.WorkOrderID != workOrderID || ev.ID == excludeEventID || !ev.Status.IsActive() {
			continue
		}
		if latest == nil || ev.StartAt.After(latest.StartAt) {
			latest = ev
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *mockRepository) HasActiveEventForWorkOrder(ctx context.Context, workOrderID int64) (bool, error) {
	ev, err := m.LatestActiveEvent(ctx, workOrderID, 0)
	return ev != nil, err
}

func (m *mockRepository) AssignWorkOrder(ctx context.Context, workOrderID, techID int64, start, end time.Time) error {
	wo, ok := m.workOrders[workOrderID]
	if !ok {
		return errors.New("missing work order")
	}
	wo.AssignedTechID = &techID
	wo.WindowStart = &start
	wo.WindowEnd = &end
	if wo.Status == "NEW" {
		wo.Status = "SCHEDULED"
	}
	return nil
}

func (m *mockRepository) CompleteWorkOrder(ctx context.Context, workOrderID int64) error {
	wo, ok := m.workOrders[workOrderID]
	if !ok {
		return errors.New("missing work order")
	}
	if wo.Status != "CANCELED" {
		wo.Status = "COMPLETED"
		now := time.Now()
		if wo.CompletedAt == nil {
			wo.CompletedAt = &now
		}
	}
	return nil
}

func (m *mockRepository) UnassignWorkOrder(ctx context.Context, workOrderID int64) error {
	wo, ok := m.workOrders[workOrderID]
	if !ok {
		return errors.New("missing work order")
	}
	wo.AssignedTechID = nil
	wo.WindowStart = nil
	wo.WindowEnd = nil
	if wo.Status == "SCHEDULED" {
		wo.Status = "NEW"
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func setup() (*Service, *mockRepository) {
	repo := newMockRepository()
	repo.technicians[1] = true
	repo.technicians[2] = true
	repo.workOrders[10] = &mockWorkOrder{Status: "NEW"}
	return NewService(repo, ServiceConfig{}), repo
}

func TestCreateDefaultsDuration(t *testing.T) {
	svc, _ := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), ev.EndAt)
	assert.Equal(t, StatusScheduled, ev.Status)
	assert.Equal(t, TypeJob, ev.Type)
}

func TestCreateExplicitDuration(t *testing.T) {
	svc, _ := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID:     ptr(int64(10)),
		TechID:          1,
		StartAt:         "2024-01-08T08:00:00Z",
		DurationMinutes: ptr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC), ev.EndAt)
}

func TestCreateNonPositiveDurationFallsBack(t *testing.T) {
	svc, _ := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID:     ptr(int64(10)),
		TechID:          1,
		StartAt:         "2024-01-08T08:00:00Z",
		DurationMinutes: ptr(-30),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), ev.EndAt)
}

func TestCreateUnknownWorkOrderNoSideEffects(t *testing.T) {
	svc, repo := setup()

	_, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(999)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, repo.events, "no event may be persisted on a failed reference check")
}

func TestCreateUnknownTechnician(t *testing.T) {
	svc, repo := setup()

	_, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      77,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, repo.events)
}

func TestCreateBadTimestamp(t *testing.T) {
	svc, _ := setup()

	_, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "next tuesday",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "start_at")
}

func TestCreateJobRequiresWorkOrder(t *testing.T) {
	svc, _ := setup()

	_, err := svc.Create(context.Background(), CreateEventRequest{
		TechID:  1,
		StartAt: "2024-01-08T08:00:00Z",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateMeetingWithoutWorkOrder(t *testing.T) {
	svc, _ := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		TechID:  1,
		StartAt: "2024-01-08T08:00:00Z",
		Type:    ptr(TypeMeeting),
	})
	require.NoError(t, err)
	assert.Nil(t, ev.WorkOrderID)
}

func TestCreateAssignsWorkOrder(t *testing.T) {
	svc, repo := setup()

	_, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      2,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	wo := repo.workOrders[10]
	require.NotNil(t, wo.AssignedTechID)
	assert.Equal(t, int64(2), *wo.AssignedTechID)
	assert.Equal(t, "SCHEDULED", wo.Status)
	require.NotNil(t, wo.WindowStart)
	assert.Equal(t, time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), wo.WindowStart.UTC())
}

func TestCreateOverlapRejectedWhenEnabled(t *testing.T) {
	repo := newMockRepository()
	repo.technicians[1] = true
	repo.workOrders[10] = &mockWorkOrder{Status: "NEW"}
	repo.workOrders[11] = &mockWorkOrder{Status: "NEW"}
	svc := NewService(repo, ServiceConfig{OverlapCheck: true})

	_, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(11)),
		TechID:      1,
		StartAt:     "2024-01-08T09:00:00Z",
	})
	require.ErrorIs(t, err, httpx.ErrPrecondition)
}

func TestUpdateTechReassignsWorkOrder(t *testing.T) {
	svc, repo := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ev.ID, UpdateEventRequest{TechID: ptr(int64(2))})
	require.NoError(t, err)

	wo := repo.workOrders[10]
	require.NotNil(t, wo.AssignedTechID)
	assert.Equal(t, int64(2), *wo.AssignedTechID)
}

func TestUpdateCompleteMarksWorkOrder(t *testing.T) {
	svc, repo := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ev.ID, UpdateEventRequest{Status: ptr(StatusComplete)})
	require.NoError(t, err)

	wo := repo.workOrders[10]
	assert.Equal(t, "COMPLETED", wo.Status)
	assert.NotNil(t, wo.CompletedAt)
}

func TestUpdateNonTerminalStatusLeavesWorkOrder(t *testing.T) {
	svc, repo := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ev.ID, UpdateEventRequest{Status: ptr(StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, "SCHEDULED", repo.workOrders[10].Status)
}

func TestUpdateRejectsBackwardTransition(t *testing.T) {
	svc, _ := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ev.ID, UpdateEventRequest{Status: ptr(StatusComplete)})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ev.ID, UpdateEventRequest{Status: ptr(StatusScheduled)})
	require.ErrorIs(t, err, httpx.ErrPrecondition)
}

func TestUpdateUnknownEvent(t *testing.T) {
	svc, _ := setup()

	_, err := svc.Update(context.Background(), 404, UpdateEventRequest{Status: ptr(StatusComplete)})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteRevertsWorkOrder(t *testing.T) {
	svc, repo := setup()

	ev, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), ev.ID))

	wo := repo.workOrders[10]
	assert.Equal(t, "NEW", wo.Status)
	assert.Nil(t, wo.AssignedTechID)
	assert.Nil(t, wo.WindowStart)
}

func TestDeleteKeepsAssignmentWhenSuccessorExists(t *testing.T) {
	svc, repo := setup()

	first, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      2,
		StartAt:     "2024-01-10T08:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), first.ID))

	wo := repo.workOrders[10]
	require.NotNil(t, wo.AssignedTechID)
	assert.Equal(t, int64(2), *wo.AssignedTechID)
	assert.Equal(t, "SCHEDULED", wo.Status)
	require.NotNil(t, wo.WindowStart)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), wo.WindowStart.UTC())
}

func TestListForWeekFiltersWindow(t *testing.T) {
	svc, _ := setup()

	in, err := svc.Create(context.Background(), CreateEventRequest{
		WorkOrderID: ptr(int64(10)),
		TechID:      1,
		StartAt:     "2024-01-08T08:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEventRequest{
		TechID:  1,
		StartAt: "2024-01-15T08:00:00Z",
		Type:    ptr(TypeTask),
	})
	require.NoError(t, err)

	events, err := svc.ListForWeek(context.Background(), time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, in.ID, events[0].ID)
}
