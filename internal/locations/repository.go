package locations

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("location not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Location, error)
	List(ctx context.Context, req ListLocationsRequest) ([]Location, int, error)
	Create(ctx context.Context, l Location) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	WorkOrderCount(ctx context.Context, id int64) (int, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Location, error) {
	var l Location
	err := r.db.QueryRow(ctx, `
		SELECT id, customer_id, label, address_line, city, state, postal_code, access_notes, created_at, updated_at
		FROM locations WHERE id = $1`, id).Scan(
		&l.ID, &l.CustomerID, &l.Label, &l.AddressLine, &l.City, &l.State, &l.PostalCode, &l.AccessNotes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) List(ctx context.Context, req ListLocationsRequest) ([]Location, int, error) {
	query := `SELECT id, customer_id, label, address_line, city, state, postal_code, access_notes, created_at, updated_at
		FROM locations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM locations WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	filter := ""
	if req.CustomerID != nil {
		argCount++
		filter += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.CustomerID)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += filter + ` ORDER BY id`
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

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.Label, &l.AddressLine, &l.City, &l.State, &l.PostalCode, &l.AccessNotes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		locations = append(locations, l)
	}
	return locations, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, l Location) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO locations (customer_id, label, address_line, city, state, postal_code, access_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		l.CustomerID, l.Label, l.AddressLine, l.City, l.State, l.PostalCode, l.AccessNotes).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE locations SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"label", "address_line", "city", "state", "postal_code", "access_notes"} {
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

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND NOT is_archived)`, customerID).Scan(&exists)
	return exists, err
}

func (r *repository) WorkOrderCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_orders WHERE location_id = $1`, id).Scan(&count)
	return count, err
}
