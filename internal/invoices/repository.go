package invoices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldworks/fieldworks/internal/platform/db"
)

var (
	ErrNotFound          = errors.New("invoice not found")
	ErrItemNotFound      = errors.New("invoice item not found")
	ErrWorkOrderNotFound = errors.New("work order not found")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByToken(ctx context.Context, token string) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	ExistsForWorkOrder(ctx context.Context, workOrderID int64) (bool, error)
	GetWorkOrderInfo(ctx context.Context, workOrderID int64) (*WorkOrderInfo, error)
	AddItem(ctx context.Context, item LineItem) (int64, error)
	RemoveItem(ctx context.Context, invoiceID, itemID int64) error
	ListItems(ctx context.Context, invoiceID int64) ([]LineItem, error)
	SetTotals(ctx context.Context, invoiceID, subtotal, tax, total int64) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceColumns = `id, work_order_id, customer_id, location_id, customer_name, location_address,
	status, subtotal_cents, tax_cents, total_cents, public_token, sent_at, due_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.WorkOrderID, &inv.CustomerID, &inv.LocationID,
		&inv.CustomerName, &inv.LocationAddress, &inv.Status,
		&inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents,
		&inv.PublicToken, &inv.SentAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE public_token = $1`, token))
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM invoices WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	filter := ""
	if req.Status != nil {
		argCount++
		filter += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Status))
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += filter + ` ORDER BY created_at DESC, id DESC`
	if req.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		err := rows.Scan(
			&inv.ID, &inv.WorkOrderID, &inv.CustomerID, &inv.LocationID,
			&inv.CustomerName, &inv.LocationAddress, &inv.Status,
			&inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents,
			&inv.PublicToken, &inv.SentAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	query := `
		INSERT INTO invoices (work_order_id, customer_id, location_id, customer_name,
			location_address, status, subtotal_cents, tax_cents, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		inv.WorkOrderID, inv.CustomerID, inv.LocationID, inv.CustomerName,
		inv.LocationAddress, string(inv.Status), inv.SubtotalCents, inv.TaxCents, inv.TotalCents,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE invoices SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"status", "public_token", "sent_at", "due_at"} {
		if v, ok := updates[col]; ok {
			argPos++
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
		}
	}

	argPos++
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ExistsForWorkOrder(ctx context.Context, workOrderID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE work_order_id = $1)`, workOrderID).Scan(&exists)
	return exists, err
}

// GetWorkOrderInfo loads the work-order slice needed to generate an invoice,
// joining the customer name and the primary line of the service address.
func (r *repository) GetWorkOrderInfo(ctx context.Context, workOrderID int64) (*WorkOrderInfo, error) {
	const headerSQL = `
		SELECT w.id, w.customer_id, w.location_id, c.display_name, l.address_line, w.status
		FROM work_orders w
		INNER JOIN customers c ON c.id = w.customer_id
		INNER JOIN locations l ON l.id = w.location_id
		WHERE w.id = $1`

	info := WorkOrderInfo{}
	err := r.db.QueryRow(ctx, headerSQL, workOrderID).Scan(
		&info.ID, &info.CustomerID, &info.LocationID,
		&info.CustomerName, &info.LocationAddress, &info.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, err
	}

	const itemSQL = `
		SELECT description, details, quantity, unit_price_cents, taxable
		FROM work_order_items
		WHERE work_order_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, itemSQL, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item WorkOrderItemInfo
		if err := rows.Scan(&item.Description, &item.Details, &item.Quantity, &item.UnitPriceCents, &item.Taxable); err != nil {
			return nil, err
		}
		info.Items = append(info.Items, item)
	}
	return &info, rows.Err()
}

func (r *repository) AddItem(ctx context.Context, item LineItem) (int64, error) {
	query := `
		INSERT INTO invoice_items (invoice_id, description, details, quantity, unit_price_cents, taxable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		item.InvoiceID, item.Description, item.Details, item.Quantity, item.UnitPriceCents, item.Taxable,
	).Scan(&id)
	return id, err
}

func (r *repository) RemoveItem(ctx context.Context, invoiceID, itemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM invoice_items WHERE id = $1 AND invoice_id = $2`, itemID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) ListItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	query := `
		SELECT id, invoice_id, description, details, quantity, unit_price_cents, taxable, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var li LineItem
		err := rows.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Details,
			&li.Quantity, &li.UnitPriceCents, &li.Taxable, &li.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *repository) SetTotals(ctx context.Context, invoiceID, subtotal, tax, total int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET subtotal_cents = $2, tax_cents = $3, total_cents = $4, updated_at = NOW()
		WHERE id = $1`, invoiceID, subtotal, tax, total)
	return err
}

// MarkOverdue flips SENT invoices past their due date to OVERDUE and returns
// the number of rows touched.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = 'OVERDUE', updated_at = NOW()
		WHERE status = 'SENT' AND due_at IS NOT NULL AND due_at < $1`, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
