package workorders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldworks/fieldworks/internal/platform/db"
)

var (
	ErrNotFound     = errors.New("work order not found")
	ErrItemNotFound = errors.New("line item not found")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	Create(ctx context.Context, wo WorkOrder) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	CustomerExists(ctx context.Context, id int64) (bool, error)
	LocationExists(ctx context.Context, customerID, id int64) (bool, error)
	ListItems(ctx context.Context, workOrderID int64) ([]LineItem, error)
	AddItem(ctx context.Context, item LineItem) (int64, error)
	RemoveItem(ctx context.Context, workOrderID, itemID int64) error
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

const workOrderColumns = `id, customer_id, location_id, description, status, assigned_tech_id,
	window_start, window_end, completed_at, notes, created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(
		&wo.ID, &wo.CustomerID, &wo.LocationID, &wo.Description, &wo.Status,
		&wo.AssignedTechID, &wo.WindowStart, &wo.WindowEnd, &wo.CompletedAt,
		&wo.Notes, &wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wo, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`
	wo, err := scanWorkOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	wo.Items = items
	return wo, nil
}

func (r *repository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM work_orders WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	filter := ""
	if req.Status != nil {
		argCount++
		filter += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Status))
	}
	if req.CustomerID != nil {
		argCount++
		filter += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.CustomerID)
	}
	if req.Uninvoiced {
		filter += ` AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.work_order_id = work_orders.id)`
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

	var orders []WorkOrder
	for rows.Next() {
		var wo WorkOrder
		err := rows.Scan(
			&wo.ID, &wo.CustomerID, &wo.LocationID, &wo.Description, &wo.Status,
			&wo.AssignedTechID, &wo.WindowStart, &wo.WindowEnd, &wo.CompletedAt,
			&wo.Notes, &wo.CreatedAt, &wo.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, wo)
	}
	return orders, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, wo WorkOrder) (int64, error) {
	query := `
		INSERT INTO work_orders (customer_id, location_id, description, status,
			assigned_tech_id, window_start, window_end, completed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		wo.CustomerID, wo.LocationID, wo.Description, string(wo.Status),
		wo.AssignedTechID, wo.WindowStart, wo.WindowEnd, wo.CompletedAt, wo.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE work_orders SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"description", "status", "assigned_tech_id", "window_start", "window_end", "completed_at", "notes"} {
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

func (r *repository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) LocationExists(ctx context.Context, customerID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1 AND customer_id = $2)`,
		id, customerID,
	).Scan(&exists)
	return exists, err
}

func (r *repository) ListItems(ctx context.Context, workOrderID int64) ([]LineItem, error) {
	query := `
		SELECT id, work_order_id, item_type, description, details, quantity,
		       unit_price_cents, taxable, created_at
		FROM work_order_items
		WHERE work_order_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var li LineItem
		err := rows.Scan(
			&li.ID, &li.WorkOrderID, &li.Type, &li.Description, &li.Details,
			&li.Quantity, &li.UnitPriceCents, &li.Taxable, &li.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *repository) AddItem(ctx context.Context, item LineItem) (int64, error) {
	query := `
		INSERT INTO work_order_items (work_order_id, item_type, description, details,
			quantity, unit_price_cents, taxable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		item.WorkOrderID, string(item.Type), item.Description, item.Details,
		item.Quantity, item.UnitPriceCents, item.Taxable,
	).Scan(&id)
	return id, err
}

func (r *repository) RemoveItem(ctx context.Context, workOrderID, itemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM work_order_items WHERE id = $1 AND work_order_id = $2`,
		itemID, workOrderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
