package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldworks/fieldworks/internal/platform/db"
)

var ErrNotFound = errors.New("dispatch event not found")

// Repository persists dispatch events and carries the work-order side
// effects that keep the board and the job list in agreement. The work-order
// writes live here, in the same transaction as the event write, so an event
// can never exist without its assignment effect.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ListBetween(ctx context.Context, start, end time.Time) ([]Event, error)
	Get(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, ev Event) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	WorkOrderExists(ctx context.Context, id int64) (bool, error)
	TechExists(ctx context.Context, id int64) (bool, error)
	HasOverlap(ctx context.Context, techID int64, start, end time.Time, excludeEventID int64) (bool, error)
	LatestActiveEvent(ctx context.Context, workOrderID, excludeEventID int64) (*Event, error)
	HasActiveEventForWorkOrder(ctx context.Context, workOrderID int64) (bool, error)

	AssignWorkOrder(ctx context.Context, workOrderID, techID int64, start, end time.Time) error
	CompleteWorkOrder(ctx context.Context, workOrderID int64) error
	UnassignWorkOrder(ctx context.Context, workOrderID int64) error
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

const eventColumns = `id, work_order_id, tech_id, start_at, end_at, status, event_type, notes, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(
		&ev.ID, &ev.WorkOrderID, &ev.TechID, &ev.StartAt, &ev.EndAt,
		&ev.Status, &ev.Type, &ev.Notes, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func (r *repository) ListBetween(ctx context.Context, start, end time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM dispatch_events
		WHERE start_at >= $1 AND start_at < $2
		ORDER BY start_at, id`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		err := rows.Scan(
			&ev.ID, &ev.WorkOrderID, &ev.TechID, &ev.StartAt, &ev.EndAt,
			&ev.Status, &ev.Type, &ev.Notes, &ev.CreatedAt, &ev.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM dispatch_events WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, ev Event) (int64, error) {
	query := `
		INSERT INTO dispatch_events (work_order_id, tech_id, start_at, end_at, status, event_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		ev.WorkOrderID, ev.TechID, ev.StartAt, ev.EndAt, string(ev.Status), string(ev.Type), ev.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE dispatch_events SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"tech_id", "start_at", "end_at", "status", "notes"} {
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
	tag, err := r.db.Exec(ctx, `DELETE FROM dispatch_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) WorkOrderExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM work_orders WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) TechExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM technicians WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasOverlap(ctx context.Context, techID int64, start, end time.Time, excludeEventID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM dispatch_events
			WHERE tech_id = $1
			  AND id <> $2
			  AND status IN ('SCHEDULED', 'IN_PROGRESS')
			  AND start_at < $4 AND end_at > $3
		)`, techID, excludeEventID, start, end).Scan(&exists)
	return exists, err
}

func (r *repository) LatestActiveEvent(ctx context.Context, workOrderID, excludeEventID int64) (*Event, error) {
	ev, err := scanEvent(r.db.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM dispatch_events
		WHERE work_order_id = $1
		  AND id <> $2
		  AND status IN ('SCHEDULED', 'IN_PROGRESS')
		ORDER BY start_at DESC, id DESC
		LIMIT 1`, workOrderID, excludeEventID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return ev, err
}

func (r *repository) HasActiveEventForWorkOrder(ctx context.Context, workOrderID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM dispatch_events
			WHERE work_order_id = $1 AND status IN ('SCHEDULED', 'IN_PROGRESS')
		)`, workOrderID).Scan(&exists)
	return exists, err
}

// AssignWorkOrder points the work order at the technician and time window of
// its dispatch event. NEW orders move to SCHEDULED; orders further along keep
// their status.
func (r *repository) AssignWorkOrder(ctx context.Context, workOrderID, techID int64, start, end time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE work_orders
		SET assigned_tech_id = $2,
		    window_start = $3,
		    window_end = $4,
		    status = CASE WHEN status = 'NEW' THEN 'SCHEDULED' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1`, workOrderID, techID, start, end)
	return err
}

func (r *repository) CompleteWorkOrder(ctx context.Context, workOrderID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE work_orders
		SET status = 'COMPLETED',
		    completed_at = COALESCE(completed_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'CANCELED'`, workOrderID)
	return err
}

// UnassignWorkOrder clears the scheduling link. Only SCHEDULED orders revert
// to NEW; an order already in progress or completed keeps its status.
func (r *repository) UnassignWorkOrder(ctx context.Context, workOrderID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE work_orders
		SET assigned_tech_id = NULL,
		    window_start = NULL,
		    window_end = NULL,
		    status = CASE WHEN status = 'SCHEDULED' THEN 'NEW' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1`, workOrderID)
	return err
}
