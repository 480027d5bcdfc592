package workorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

var validate = validator.New()

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateWorkOrderRequest) (*WorkOrder, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	status := StatusNew
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		status = *req.Status
	}

	wo := WorkOrder{
		CustomerID:  req.CustomerID,
		LocationID:  req.LocationID,
		Description: req.Description,
		Status:      status,
		Notes:       req.Notes,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
	}
	if status == StatusCompleted {
		now := time.Now().UTC()
		wo.CompletedAt = &now
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		ok, err := repo.CustomerExists(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("check customer: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: customer %d", httpx.ErrNotFound, req.CustomerID)
		}
		ok, err = repo.LocationExists(ctx, req.CustomerID, req.LocationID)
		if err != nil {
			return fmt.Errorf("check location: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: location %d for customer %d", httpx.ErrNotFound, req.LocationID, req.CustomerID)
		}

		id, err = repo.Create(ctx, wo)
		if err != nil {
			return fmt.Errorf("create work order: %w", err)
		}
		for _, item := range req.Items {
			li, err := buildItem(id, item)
			if err != nil {
				return err
			}
			if _, err := repo.AddItem(ctx, li); err != nil {
				return fmt.Errorf("add item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: work order %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return wo, nil
}

func (s *Service) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

// Update applies a shallow merge of provided fields. Status moves are guarded:
// a terminal order never transitions again, and COMPLETED stamps completed_at.
func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkOrderRequest) (*WorkOrder, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.WindowStart != nil {
		updates["window_start"] = *req.WindowStart
	}
	if req.WindowEnd != nil {
		updates["window_end"] = *req.WindowEnd
	}
	if req.Status != nil && *req.Status != existing.Status {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		if existing.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: work order is %s", httpx.ErrPrecondition, existing.Status)
		}
		updates["status"] = string(*req.Status)
		if *req.Status == StatusCompleted {
			updates["completed_at"] = time.Now().UTC()
		}
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, workOrderID int64) ([]LineItem, error) {
	if _, err := s.Get(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, workOrderID)
}

func (s *Service) AddItem(ctx context.Context, workOrderID int64, req AddItemRequest) (*LineItem, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if _, err := s.Get(ctx, workOrderID); err != nil {
		return nil, err
	}

	item, err := buildItem(workOrderID, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.AddItem(ctx, item)
		if err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		item.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) RemoveItem(ctx context.Context, workOrderID, itemID int64) error {
	if _, err := s.Get(ctx, workOrderID); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.RemoveItem(ctx, workOrderID, itemID)
	})
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Errorf("%w: item %d on work order %d", httpx.ErrNotFound, itemID, workOrderID)
	}
	return err
}

func buildItem(workOrderID int64, req AddItemRequest) (LineItem, error) {
	itemType := req.Type
	if itemType == "" {
		itemType = ItemService
	}
	if !itemType.IsValid() {
		return LineItem{}, fmt.Errorf("%w: unknown item type %q", httpx.ErrValidation, req.Type)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	return LineItem{
		WorkOrderID:    workOrderID,
		Type:           itemType,
		Description:    req.Description,
		Details:        req.Details,
		Quantity:       qty,
		UnitPriceCents: req.UnitPriceCents,
		Taxable:        req.Taxable,
	}, nil
}
