package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

var validate = validator.New()

// Notifier enqueues the customer-facing notification when an invoice goes
// out. Failures are soft: the status transition must never be held hostage
// by the queue.
type Notifier interface {
	InvoiceSent(ctx context.Context, invoiceID int64, token string) error
}

// ServiceConfig tunes invoice generation.
type ServiceConfig struct {
	// TaxRateBPS is the flat tax rate in basis points (500 = 5%).
	TaxRateBPS int
	// DueDays sets due_at relative to sent_at.
	DueDays int
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	cfg      ServiceConfig
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.TaxRateBPS <= 0 {
		cfg.TaxRateBPS = 500
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = 30
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, cfg: cfg}
}

// CreateFromWorkOrder generates a DRAFT invoice from a completed, not yet
// invoiced work order. Line items are copied once; totals are computed from
// the copied set inside the same transaction.
func (s *Service) CreateFromWorkOrder(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		info, err := repo.GetWorkOrderInfo(ctx, req.WorkOrderID)
		if err != nil {
			if errors.Is(err, ErrWorkOrderNotFound) {
				return fmt.Errorf("%w: work order %d", httpx.ErrNotFound, req.WorkOrderID)
			}
			return fmt.Errorf("load work order: %w", err)
		}
		if info.Status != "COMPLETED" {
			return fmt.Errorf("%w: work order not completed", httpx.ErrPrecondition)
		}
		exists, err := repo.ExistsForWorkOrder(ctx, req.WorkOrderID)
		if err != nil {
			return fmt.Errorf("check existing invoice: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: invoice already exists", httpx.ErrPrecondition)
		}

		items := make([]LineItem, 0, len(info.Items))
		for _, src := range info.Items {
			items = append(items, LineItem{
				Description:    src.Description,
				Details:        src.Details,
				Quantity:       src.Quantity,
				UnitPriceCents: src.UnitPriceCents,
				Taxable:        src.Taxable,
			})
		}
		subtotal, tax, total := Totals(items, s.cfg.TaxRateBPS)

		invoiceID, err = repo.Create(ctx, Invoice{
			WorkOrderID:     info.ID,
			CustomerID:      info.CustomerID,
			LocationID:      info.LocationID,
			CustomerName:    info.CustomerName,
			LocationAddress: info.LocationAddress,
			Status:          StatusDraft,
			SubtotalCents:   subtotal,
			TaxCents:        tax,
			TotalCents:      total,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		for i := range items {
			items[i].InvoiceID = invoiceID
			if _, err := repo.AddItem(ctx, items[i]); err != nil {
				return fmt.Errorf("copy item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, invoiceID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

// GetByToken serves the unauthenticated portal. Only invoices that have been
// sent (or are past sent) are visible; everything else is a 404, never a
// permission error, so the token namespace leaks nothing.
func (s *Service) GetByToken(ctx context.Context, token string) (*Invoice, error) {
	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invoice", httpx.ErrNotFound)
		}
		return nil, err
	}
	if inv.Status == StatusDraft {
		return nil, fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	return inv, nil
}

// UpdateStatus advances the invoice lifecycle. The transition to SENT
// generates the public token and sent/due timestamps exactly once; repeating
// the transition keeps the existing token.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if req.Status == nil {
		return nil, fmt.Errorf("%w: status is required", httpx.ErrValidation)
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *req.Status
	if !existing.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move invoice from %s to %s", httpx.ErrPrecondition, existing.Status, next)
	}
	if existing.Status == next {
		return existing, nil
	}

	updates := map[string]interface{}{"status": string(next)}
	var token string
	if next == StatusSent && existing.PublicToken == nil {
		token = uuid.NewString()
		now := time.Now().UTC()
		due := now.AddDate(0, 0, s.cfg.DueDays)
		updates["public_token"] = token
		updates["sent_at"] = now
		updates["due_at"] = due
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	if next == StatusSent && s.notifier != nil {
		notifyToken := token
		if notifyToken == "" && existing.PublicToken != nil {
			notifyToken = *existing.PublicToken
		}
		if err := s.notifier.InvoiceSent(ctx, id, notifyToken); err != nil {
			s.logger.Warn("invoice sent notification enqueue failed",
				slog.Int64("invoice_id", id), slog.Any("error", err))
		}
	}

	return s.Get(ctx, id)
}

// AddItem appends a line item to a DRAFT invoice and recomputes totals in
// the same transaction.
func (s *Service) AddItem(ctx context.Context, invoiceID int64, req AddItemRequest) (*Invoice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	item := LineItem{
		InvoiceID:      invoiceID,
		Description:    req.Description,
		Details:        req.Details,
		Quantity:       qty,
		UnitPriceCents: req.UnitPriceCents,
		Taxable:        req.Taxable,
	}

	err := s.mutateItems(ctx, invoiceID, func(ctx context.Context, repo Repository) error {
		_, err := repo.AddItem(ctx, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, invoiceID)
}

// RemoveItem deletes a line item from a DRAFT invoice and recomputes totals
// in the same transaction.
func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID int64) (*Invoice, error) {
	err := s.mutateItems(ctx, invoiceID, func(ctx context.Context, repo Repository) error {
		if err := repo.RemoveItem(ctx, invoiceID, itemID); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return fmt.Errorf("%w: item %d on invoice %d", httpx.ErrNotFound, itemID, invoiceID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, invoiceID)
}

// mutateItems wraps an item mutation with the DRAFT guard and the totals
// recompute so no caller can observe a stale total.
func (s *Service) mutateItems(ctx context.Context, invoiceID int64, mutate func(context.Context, Repository) error) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.Get(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, invoiceID)
			}
			return err
		}
		if !inv.Status.CanEditItems() {
			return fmt.Errorf("%w: items are only editable while the invoice is DRAFT", httpx.ErrPrecondition)
		}
		if err := mutate(ctx, repo); err != nil {
			return err
		}
		items, err := repo.ListItems(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("reload items: %w", err)
		}
		subtotal, tax, total := Totals(items, s.cfg.TaxRateBPS)
		if err := repo.SetTotals(ctx, invoiceID, subtotal, tax, total); err != nil {
			return fmt.Errorf("recompute totals: %w", err)
		}
		return nil
	})
}

// MarkOverdue is invoked by the background scan.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return s.repo.MarkOverdue(ctx, asOf)
}
