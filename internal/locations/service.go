package locations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

type Service struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Location, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, req ListLocationsRequest) ([]Location, int, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateLocationRequest) (*Location, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	ok, err := s.repo.CustomerExists(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: customer %d", httpx.ErrNotFound, req.CustomerID)
	}

	l := Location{
		CustomerID:  req.CustomerID,
		Label:       strings.TrimSpace(req.Label),
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		AccessNotes: req.AccessNotes,
	}
	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, err
	}

	s.logger.Info("location created", slog.Int64("id", id), slog.Int64("customer_id", req.CustomerID))
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateLocationRequest) (*Location, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = strings.TrimSpace(*req.Label)
	}
	if req.AddressLine != nil {
		updates["address_line"] = strings.TrimSpace(*req.AddressLine)
	}
	if req.City != nil {
		updates["city"] = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		updates["state"] = strings.TrimSpace(*req.State)
	}
	if req.PostalCode != nil {
		updates["postal_code"] = strings.TrimSpace(*req.PostalCode)
	}
	if req.AccessNotes != nil {
		updates["access_notes"] = *req.AccessNotes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a location. Locations referenced by work orders are
// kept; the caller gets a precondition failure instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.WorkOrderCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: location %d has %d work orders", httpx.ErrPrecondition, id, count)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == ErrNotFound {
			return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
		}
		return err
	}
	s.logger.Info("location deleted", slog.Int64("id", id))
	return nil
}
