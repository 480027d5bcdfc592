package technicians

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

// defaultColor is the board color used when a technician has none.
const defaultColor = "#4A90D9"

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

func (s *Service) Get(ctx context.Context, id int64) (*Technician, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("%w: technician %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, req ListTechniciansRequest) ([]Technician, int, error) {
	if req.Limit == 0 {
		req.Limit = 100
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateTechnicianRequest) (*Technician, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	t := Technician{
		Name:   strings.TrimSpace(req.Name),
		Email:  req.Email,
		Phone:  req.Phone,
		Color:  req.Color,
		Status: StatusAvailable,
	}
	if t.Color == "" {
		t.Color = defaultColor
	}

	id, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	s.logger.Info("technician created", slog.Int64("id", id), slog.String("name", t.Name))
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTechnicianRequest) (*Technician, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q is not valid", httpx.ErrValidation, *req.Status)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Status != nil {
		updates["status"] = string(*req.Status)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("%w: technician %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Deactivate retires a technician from the roster without removing
// historical assignments.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		if err == ErrNotFound {
			return fmt.Errorf("%w: technician %d", httpx.ErrNotFound, id)
		}
		return err
	}
	s.logger.Info("technician deactivated", slog.Int64("id", id))
	return nil
}
