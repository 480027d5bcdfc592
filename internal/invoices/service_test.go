package invoices

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

type mockRepository struct {
	invoices      map[int64]*Invoice
	items         map[int64][]LineItem
	nextInvoiceID int64
	nextItemID    int64

	workOrders map[int64]*WorkOrderInfo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:      make(map[int64]*Invoice),
		items:         make(map[int64][]LineItem),
		nextInvoiceID: 1,
		nextItemID:    1,
		workOrders:    make(map[int64]*WorkOrderInfo),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	cp.Items = append([]LineItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *mockRepository) GetByToken(ctx context.Context, token string) (*Invoice, error) {
	for id, inv := range m.invoices {
		if inv.PublicToken != nil && *inv.PublicToken == token {
			return m.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	id := m.nextInvoiceID
	m.nextInvoiceID++
	inv.ID = id
	inv.CreatedAt = time.Now()
	m.invoices[id] = &inv
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		inv.Status = Status(v.(string))
	}
	if v, ok := updates["public_token"]; ok {
		token := v.(string)
		inv.PublicToken = &token
	}
	if v, ok := updates["sent_at"]; ok {
		t := v.(time.Time)
		inv.SentAt = &t
	}
	if v, ok := updates["due_at"]; ok {
		t := v.(time.Time)
		inv.DueAt = &t
	}
	return nil
}

func (m *mockRepository) ExistsForWorkOrder(ctx context.Context, workOrderID int64) (bool, error) {
	for _, inv := range m.invoices {
		if inv.WorkOrderID == workOrderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) GetWorkOrderInfo(ctx context.Context, workOrderID int64) (*WorkOrderInfo, error) {
	info, ok := m.workOrders[workOrderID]
	if !ok {
		return nil, ErrWorkOrderNotFound
	}
	return info, nil
}

func (m *mockRepository) AddItem(ctx context.Context, item LineItem) (int64, error) {
	item.ID = m.nextItemID
	m.nextItemID++
	m.items[item.InvoiceID] = append(m.items[item.InvoiceID], item)
	return item.ID, nil
}

func (m *mockRepository) RemoveItem(ctx context.Context, invoiceID, itemID int64) error {
	items := m.items[invoiceID]
	for i, it := range items {
		if it.ID == itemID {
			m.items[invoiceID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *mockRepository) ListItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	return append([]LineItem(nil), m.items[invoiceID]...), nil
}

func (m *mockRepository) SetTotals(ctx context.Context, invoiceID, subtotal, tax, total int64) error {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return ErrNotFound
	}
	inv.SubtotalCents = subtotal
	inv.TaxCents = tax
	inv.TotalCents = total
	return nil
}

func (m *mockRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range m.invoices {
		if inv.Status == StatusSent && inv.DueAt != nil && inv.DueAt.Before(asOf) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	calls  int
	tokens []string
	err    error
}

func (n *recordingNotifier) InvoiceSent(ctx context.Context, invoiceID int64, token string) error {
	n.calls++
	n.tokens = append(n.tokens, token)
	return n.err
}

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completedWorkOrder(id int64) *WorkOrderInfo {
	return &WorkOrderInfo{
		ID:              id,
		CustomerID:      1,
		LocationID:      1,
		CustomerName:    "Dana Whitfield",
		LocationAddress: "18 Alder Ct",
		Status:          "COMPLETED",
		Items: []WorkOrderItemInfo{
			{Description: "50-gal water heater", Quantity: 1, UnitPriceCents: 89900, Taxable: true},
			{Description: "Install labor", Quantity: 3, UnitPriceCents: 12500, Taxable: true},
		},
	}
}

func newTestService(repo *mockRepository, notifier Notifier) *Service {
	return NewService(repo, notifier, testLogger(), ServiceConfig{TaxRateBPS: 500, DueDays: 30})
}

func TestCreateFromWorkOrderComputesTotals(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	// 89900 + 3*12500 = 127400; 5% tax = 6370.
	assert.Equal(t, int64(127400), inv.SubtotalCents)
	assert.Equal(t, int64(6370), inv.TaxCents)
	assert.Equal(t, int64(133770), inv.TotalCents)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, "Dana Whitfield", inv.CustomerName)
}

func TestCreateFromWorkOrderIdempotentGuard(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	_, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	_, err = svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.ErrorIs(t, err, httpx.ErrPrecondition)
	assert.Contains(t, err.Error(), "invoice already exists")
	assert.Len(t, repo.invoices, 1)
}

func TestCreateFromWorkOrderNotCompleted(t *testing.T) {
	repo := newMockRepository()
	wo := completedWorkOrder(10)
	wo.Status = "IN_PROGRESS"
	repo.workOrders[10] = wo
	svc := newTestService(repo, nil)

	_, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.ErrorIs(t, err, httpx.ErrPrecondition)
	assert.Contains(t, err.Error(), "work order not completed")
	assert.Empty(t, repo.invoices)
}

func TestCreateFromWorkOrderUnknown(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)

	_, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 404})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSendGeneratesTokenOnce(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	sent, err := svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err)
	require.NotNil(t, sent.PublicToken)
	require.NotNil(t, sent.SentAt)
	require.NotNil(t, sent.DueAt)
	token := *sent.PublicToken

	// Same-status update is a no-op and must not regenerate the token.
	again, err := svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err)
	require.NotNil(t, again.PublicToken)
	assert.Equal(t, token, *again.PublicToken)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, []string{token}, notifier.tokens)
}

func TestNotifierFailureIsSoft(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	notifier := &recordingNotifier{err: assert.AnError}
	svc := newTestService(repo, notifier)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	sent, err := svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err, "a failed enqueue must not block the transition")
	assert.Equal(t, StatusSent, sent.Status)
}

func TestStatusTransitionGuards(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	// DRAFT cannot jump straight to PAID.
	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusPaid)})
	require.ErrorIs(t, err, httpx.ErrPrecondition)

	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusPaid)})
	require.NoError(t, err)

	// PAID is terminal.
	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusVoid)})
	require.ErrorIs(t, err, httpx.ErrPrecondition)
}

func TestItemMutationKeepsTotalsInvariant(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	inv, err = svc.AddItem(context.Background(), inv.ID, AddItemRequest{
		Description:    "Disposal fee",
		Quantity:       1,
		UnitPriceCents: 4500,
		Taxable:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, inv.SubtotalCents+inv.TaxCents, inv.TotalCents)
	assert.Equal(t, roundedTax(inv.SubtotalCents), inv.TaxCents)

	inv, err = svc.RemoveItem(context.Background(), inv.ID, inv.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, inv.SubtotalCents+inv.TaxCents, inv.TotalCents)
	assert.Equal(t, roundedTax(inv.SubtotalCents), inv.TaxCents)
}

func roundedTax(subtotal int64) int64 {
	// 5% with half-up rounding, mirrored without decimal to keep the
	// check independent.
	return (subtotal*500 + 5000) / 10000
}

func TestItemsLockedAfterSend(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), inv.ID, AddItemRequest{Description: "Late fee", UnitPriceCents: 1000})
	require.ErrorIs(t, err, httpx.ErrPrecondition)

	_, err = svc.RemoveItem(context.Background(), inv.ID, inv.Items[0].ID)
	require.ErrorIs(t, err, httpx.ErrPrecondition)
}

func TestPortalHidesDraft(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)

	// Inject a token on a DRAFT invoice; the portal must still 404 it.
	repo.invoices[inv.ID].PublicToken = strPtr("leaked-token")
	_, err = svc.GetByToken(context.Background(), "leaked-token")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestMarkOverdueFlipsPastDueSent(t *testing.T) {
	repo := newMockRepository()
	repo.workOrders[10] = completedWorkOrder(10)
	svc := newTestService(repo, nil)

	inv, err := svc.CreateFromWorkOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 10})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), inv.ID, UpdateInvoiceRequest{Status: ptrStatus(StatusSent)})
	require.NoError(t, err)

	n, err := svc.MarkOverdue(context.Background(), time.Now().AddDate(0, 0, 60))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)
}

func TestTotalsRounding(t *testing.T) {
	items := []LineItem{{Quantity: 1.5, UnitPriceCents: 333, Taxable: true}}
	subtotal, tax, total := Totals(items, 500)
	// 1.5 * 333 = 499.5 -> 500 cents; 5% of 500 = 25.
	assert.Equal(t, int64(500), subtotal)
	assert.Equal(t, int64(25), tax)
	assert.Equal(t, int64(525), total)
}

func TestRenderPDF(t *testing.T) {
	now := time.Now()
	inv := &Invoice{
		ID:              7,
		CustomerName:    "Dana Whitfield",
		LocationAddress: "18 Alder Ct",
		Status:          StatusSent,
		SubtotalCents:   127400,
		TaxCents:        6370,
		TotalCents:      133770,
		CreatedAt:       now,
		DueAt:           &now,
		Items: []LineItem{
			{Description: "50-gal water heater", Quantity: 1, UnitPriceCents: 89900},
			{Description: "Install labor", Quantity: 3, UnitPriceCents: 12500},
		},
	}
	data, err := RenderPDF(inv)
	require.NoError(t, err)
	assert.True(t, len(data) > 500, "expected a non-trivial PDF payload")
	assert.Equal(t, "%PDF", string(data[:4]))
}

func ptrStatus(s Status) *Status { return &s }
