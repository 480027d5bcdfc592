package customers

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

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("%w: customer %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if err := validateContacts(req.Phones, req.Emails); err != nil {
		return nil, err
	}

	c := Customer{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Notes:       req.Notes,
	}
	if c.DisplayName == "" {
		c.DisplayName = strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
	if c.DisplayName == "" {
		return nil, fmt.Errorf("%w: a name or display name is required", httpx.ErrValidation)
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, c)
		if err != nil {
			return err
		}
		return replaceChildren(ctx, repo, id, toPhones(req.Phones), toEmails(req.Emails), toAddresses(req.Addresses), req.Tags)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer created", slog.Int64("id", id), slog.String("display_name", c.DisplayName))
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if req.Phones != nil || req.Emails != nil {
		var phones []PhoneInput
		var emails []EmailInput
		if req.Phones != nil {
			phones = *req.Phones
		}
		if req.Emails != nil {
			emails = *req.Emails
		}
		if err := validateContacts(phones, emails); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updates); err != nil {
			if err == ErrNotFound {
				return fmt.Errorf("%w: customer %d", httpx.ErrNotFound, id)
			}
			return err
		}
		if req.Phones != nil {
			if err := repo.ReplacePhones(ctx, id, toPhones(*req.Phones)); err != nil {
				return err
			}
		}
		if req.Emails != nil {
			if err := repo.ReplaceEmails(ctx, id, toEmails(*req.Emails)); err != nil {
				return err
			}
		}
		if req.Addresses != nil {
			if err := repo.ReplaceAddresses(ctx, id, toAddresses(*req.Addresses)); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := repo.ReplaceTags(ctx, id, *req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Archive soft-deletes a customer. The record stays addressable for
// historical work orders and invoices.
func (s *Service) Archive(ctx context.Context, id int64) error {
	err := s.repo.Update(ctx, id, map[string]interface{}{"is_archived": true})
	if err != nil {
		if err == ErrNotFound {
			return fmt.Errorf("%w: customer %d", httpx.ErrNotFound, id)
		}
		return err
	}
	s.logger.Info("customer archived", slog.Int64("id", id))
	return nil
}

func validateContacts(phones []PhoneInput, emails []EmailInput) error {
	for i, p := range phones {
		if p.Kind != "" && !p.Kind.IsValid() {
			return fmt.Errorf("%w: phones[%d].kind %q is not valid", httpx.ErrValidation, i, p.Kind)
		}
	}
	for i, e := range emails {
		if e.Kind != "" && !e.Kind.IsValid() {
			return fmt.Errorf("%w: emails[%d].kind %q is not valid", httpx.ErrValidation, i, e.Kind)
		}
	}
	return nil
}

func replaceChildren(ctx context.Context, repo Repository, id int64, phones []Phone, emails []Email, addresses []Address, tags []string) error {
	if len(phones) > 0 {
		if err := repo.ReplacePhones(ctx, id, phones); err != nil {
			return err
		}
	}
	if len(emails) > 0 {
		if err := repo.ReplaceEmails(ctx, id, emails); err != nil {
			return err
		}
	}
	if len(addresses) > 0 {
		if err := repo.ReplaceAddresses(ctx, id, addresses); err != nil {
			return err
		}
	}
	if len(tags) > 0 {
		if err := repo.ReplaceTags(ctx, id, tags); err != nil {
			return err
		}
	}
	return nil
}

func toPhones(in []PhoneInput) []Phone {
	out := make([]Phone, 0, len(in))
	for _, p := range in {
		kind := p.Kind
		if kind == "" {
			kind = ContactMobile
		}
		out = append(out, Phone{Kind: kind, Number: strings.TrimSpace(p.Number)})
	}
	return out
}

func toEmails(in []EmailInput) []Email {
	out := make([]Email, 0, len(in))
	for _, e := range in {
		kind := e.Kind
		if kind == "" {
			kind = ContactHome
		}
		out = append(out, Email{Kind: kind, Address: strings.TrimSpace(e.Address)})
	}
	return out
}

func toAddresses(in []AddressInput) []Address {
	out := make([]Address, 0, len(in))
	for _, a := range in {
		out = append(out, Address{
			Line1:      strings.TrimSpace(a.Line1),
			Line2:      strings.TrimSpace(a.Line2),
			City:       strings.TrimSpace(a.City),
			State:      strings.TrimSpace(a.State),
			PostalCode: strings.TrimSpace(a.PostalCode),
			IsBilling:  a.IsBilling,
			IsService:  a.IsService,
		})
	}
	return out
}
