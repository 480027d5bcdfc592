package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

var validate = validator.New()

// ServiceConfig tunes optional board behaviour.
type ServiceConfig struct {
	// OverlapCheck rejects events intersecting another active event for the
	// same technician. Opt-in: the board historically tolerates
	// double-booking.
	OverlapCheck bool
}

type Service struct {
	repo Repository
	cfg  ServiceConfig
}

func NewService(repo Repository, cfg ServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// ListForWeek returns the events whose start falls inside the Monday-anchored
// week containing date.
func (s *Service) ListForWeek(ctx context.Context, date time.Time) ([]Event, error) {
	start, end := WeekWindow(date)
	return s.repo.ListBetween(ctx, start, end)
}

// Create inserts a dispatch event and, in the same transaction, applies the
// work-order assignment side effect.
func (s *Service) Create(ctx context.Context, req CreateEventRequest) (*Event, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	startAt, err := parseTimestamp("start_at", req.StartAt)
	if err != nil {
		return nil, err
	}

	var endAt time.Time
	if req.EndAt != nil {
		endAt, err = parseTimestamp("end_at", *req.EndAt)
		if err != nil {
			return nil, err
		}
	} else {
		duration := DefaultDurationMinutes
		if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
			duration = *req.DurationMinutes
		}
		endAt = startAt.Add(time.Duration(duration) * time.Minute)
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", httpx.ErrValidation)
	}

	status := StatusScheduled
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		status = *req.Status
	}

	eventType := TypeJob
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, fmt.Errorf("%w: unknown event type %q", httpx.ErrValidation, *req.Type)
		}
		eventType = *req.Type
	}
	if eventType == TypeJob && req.WorkOrderID == nil {
		return nil, fmt.Errorf("%w: work_order_id is required for JOB events", httpx.ErrValidation)
	}

	ev := Event{
		WorkOrderID: req.WorkOrderID,
		TechID:      req.TechID,
		StartAt:     startAt,
		EndAt:       endAt,
		Status:      status,
		Type:        eventType,
		Notes:       req.Notes,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		ok, err := repo.TechExists(ctx, req.TechID)
		if err != nil {
			return fmt.Errorf("check technician: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: technician %d", httpx.ErrNotFound, req.TechID)
		}
		if req.WorkOrderID != nil {
			ok, err := repo.WorkOrderExists(ctx, *req.WorkOrderID)
			if err != nil {
				return fmt.Errorf("check work order: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: work order %d", httpx.ErrNotFound, *req.WorkOrderID)
			}
		}
		if s.cfg.OverlapCheck {
			busy, err := repo.HasOverlap(ctx, req.TechID, startAt, endAt, 0)
			if err != nil {
				return fmt.Errorf("check overlap: %w", err)
			}
			if busy {
				return fmt.Errorf("%w: technician %d already booked in that window", httpx.ErrPrecondition, req.TechID)
			}
		}

		id, err := repo.Create(ctx, ev)
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		ev.ID = id

		if ev.WorkOrderID != nil {
			if err := repo.AssignWorkOrder(ctx, *ev.WorkOrderID, ev.TechID, ev.StartAt, ev.EndAt); err != nil {
				return fmt.Errorf("assign work order: %w", err)
			}
			if ev.Status == StatusComplete {
				if err := repo.CompleteWorkOrder(ctx, *ev.WorkOrderID); err != nil {
					return fmt.Errorf("complete work order: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, ev.ID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	ev, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: dispatch event %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return ev, nil
}

// Update applies a shallow merge of the provided fields. Changing the
// technician re-applies the assignment side effect; moving the status to
// COMPLETE marks the work order completed. Non-terminal statuses never touch
// the work order's status.
func (s *Service) Update(ctx context.Context, id int64, req UpdateEventRequest) (*Event, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	updates := make(map[string]interface{})

	if req.StartAt != nil {
		startAt, err := parseTimestamp("start_at", *req.StartAt)
		if err != nil {
			return nil, err
		}
		merged.StartAt = startAt
		updates["start_at"] = startAt
	}
	if req.EndAt != nil {
		endAt, err := parseTimestamp("end_at", *req.EndAt)
		if err != nil {
			return nil, err
		}
		merged.EndAt = endAt
		updates["end_at"] = endAt
	}
	if !merged.EndAt.After(merged.StartAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", httpx.ErrValidation)
	}

	techChanged := false
	if req.TechID != nil && *req.TechID != existing.TechID {
		merged.TechID = *req.TechID
		updates["tech_id"] = *req.TechID
		techChanged = true
	}

	statusChanged := false
	if req.Status != nil && *req.Status != existing.Status {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		if !existing.Status.CanTransitionTo(*req.Status) {
			return nil, fmt.Errorf("%w: cannot move event from %s to %s", httpx.ErrPrecondition, existing.Status, *req.Status)
		}
		merged.Status = *req.Status
		updates["status"] = string(*req.Status)
		statusChanged = true
	}

	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}

	timeChanged := req.StartAt != nil || req.EndAt != nil

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if techChanged {
			ok, err := repo.TechExists(ctx, merged.TechID)
			if err != nil {
				return fmt.Errorf("check technician: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: technician %d", httpx.ErrNotFound, merged.TechID)
			}
		}
		if s.cfg.OverlapCheck && (techChanged || timeChanged) && merged.Status.IsActive() {
			busy, err := repo.HasOverlap(ctx, merged.TechID, merged.StartAt, merged.EndAt, id)
			if err != nil {
				return fmt.Errorf("check overlap: %w", err)
			}
			if busy {
				return fmt.Errorf("%w: technician %d already booked in that window", httpx.ErrPrecondition, merged.TechID)
			}
		}

		if err := repo.Update(ctx, id, updates); err != nil {
			return fmt.Errorf("update event: %w", err)
		}

		if merged.WorkOrderID != nil {
			if techChanged || timeChanged {
				if err := repo.AssignWorkOrder(ctx, *merged.WorkOrderID, merged.TechID, merged.StartAt, merged.EndAt); err != nil {
					return fmt.Errorf("assign work order: %w", err)
				}
			}
			if statusChanged && merged.Status == StatusComplete {
				if err := repo.CompleteWorkOrder(ctx, *merged.WorkOrderID); err != nil {
					return fmt.Errorf("complete work order: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes an event ("Unassign" on the board). The referenced work
// order reverts to unassigned NEW unless another still-active event exists
// for it, in which case the assignment is re-pointed at the latest such
// event.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if existing.WorkOrderID == nil {
			return nil
		}

		successor, err := repo.LatestActiveEvent(ctx, *existing.WorkOrderID, id)
		if err != nil {
			return fmt.Errorf("find successor event: %w", err)
		}
		if successor != nil {
			if err := repo.AssignWorkOrder(ctx, *existing.WorkOrderID, successor.TechID, successor.StartAt, successor.EndAt); err != nil {
				return fmt.Errorf("reassign work order: %w", err)
			}
			return nil
		}
		if err := repo.UnassignWorkOrder(ctx, *existing.WorkOrderID); err != nil {
			return fmt.Errorf("unassign work order: %w", err)
		}
		return nil
	})
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s is not a valid RFC3339 timestamp", httpx.ErrValidation, field)
	}
	return t.UTC(), nil
}
