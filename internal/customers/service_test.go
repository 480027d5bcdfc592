package customers

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

type mockRepository struct {
	customers map[int64]*Customer
	phones    map[int64][]Phone
	emails    map[int64][]Email
	addresses map[int64][]Address
	tags      map[int64][]string
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		customers: make(map[int64]*Customer),
		phones:    make(map[int64][]Phone),
		emails:    make(map[int64][]Email),
		addresses: make(map[int64][]Address),
		tags:      make(map[int64][]string),
		nextID:    1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Phones = m.phones[id]
	cp.Emails = m.emails[id]
	cp.Addresses = m.addresses[id]
	cp.Tags = m.tags[id]
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if req.Archived != nil && c.IsArchived != *req.Archived {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, c Customer) (int64, error) {
	id := m.nextID
	m.nextID++
	c.ID = id
	m.customers[id] = &c
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	c, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["display_name"]; ok {
		c.DisplayName = v.(string)
	}
	if v, ok := updates["is_archived"]; ok {
		c.IsArchived = v.(bool)
	}
	return nil
}

func (m *mockRepository) ReplacePhones(ctx context.Context, customerID int64, phones []Phone) error {
	m.phones[customerID] = phones
	return nil
}

func (m *mockRepository) ReplaceEmails(ctx context.Context, customerID int64, emails []Email) error {
	m.emails[customerID] = emails
	return nil
}

func (m *mockRepository) ReplaceAddresses(ctx context.Context, customerID int64, addresses []Address) error {
	m.addresses[customerID] = addresses
	return nil
}

func (m *mockRepository) ReplaceTags(ctx context.Context, customerID int64, tags []string) error {
	m.tags[customerID] = tags
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo), repo
}

func TestCreateDisplayNameFallsBackToFirstLast(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), CreateCustomerRequest{
		FirstName: "  Maria ",
		LastName:  "Santos",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", c.DisplayName)
}

func TestCreateExplicitDisplayNameWins(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), CreateCustomerRequest{
		FirstName:   "Maria",
		LastName:    "Santos",
		DisplayName: "Santos Plumbing LLC",
	})
	require.NoError(t, err)
	assert.Equal(t, "Santos Plumbing LLC", c.DisplayName)
}

func TestCreateRequiresSomeName(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateCustomerRequest{})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsUnknownContactKind(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateCustomerRequest{
		DisplayName: "Acme",
		Phones:      []PhoneInput{{Kind: "PAGER", Number: "555-0100"}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDefaultsContactKinds(t *testing.T) {
	svc, repo := newTestService()

	c, err := svc.Create(context.Background(), CreateCustomerRequest{
		DisplayName: "Acme",
		Phones:      []PhoneInput{{Number: "555-0100"}},
		Emails:      []EmailInput{{Address: "info@acme.test"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.phones[c.ID], 1)
	assert.Equal(t, ContactMobile, repo.phones[c.ID][0].Kind)
	require.Len(t, repo.emails[c.ID], 1)
	assert.Equal(t, ContactHome, repo.emails[c.ID][0].Kind)
}

func TestUpdateReplacesChildrenOnlyWhenProvided(t *testing.T) {
	svc, repo := newTestService()

	c, err := svc.Create(context.Background(), CreateCustomerRequest{
		DisplayName: "Acme",
		Phones:      []PhoneInput{{Number: "555-0100"}},
	})
	require.NoError(t, err)

	// No phone field in the update: the existing list survives.
	name := "Acme Heating"
	_, err = svc.Update(context.Background(), c.ID, UpdateCustomerRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Len(t, repo.phones[c.ID], 1)

	// An explicit empty list clears it.
	empty := []PhoneInput{}
	_, err = svc.Update(context.Background(), c.ID, UpdateCustomerRequest{Phones: &empty})
	require.NoError(t, err)
	assert.Empty(t, repo.phones[c.ID])
}

func TestArchiveKeepsRecord(t *testing.T) {
	svc, repo := newTestService()

	c, err := svc.Create(context.Background(), CreateCustomerRequest{DisplayName: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), c.ID))
	assert.True(t, repo.customers[c.ID].IsArchived)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
}

func TestArchiveUnknownCustomer(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Archive(context.Background(), 999)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
