package technicians

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("technician not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Technician, error)
	List(ctx context.Context, req ListTechniciansRequest) ([]Technician, int, error)
	Create(ctx context.Context, t Technician) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
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

func (r *repository) Get(ctx context.Context, id int64) (*Technician, error) {
	var t Technician
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone, color, status, is_active, created_at, updated_at
		FROM technicians WHERE id = $1`, id).Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.Color, &t.Status, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, req ListTechniciansRequest) ([]Technician, int, error) {
	query := `SELECT id, name, email, phone, color, status, is_active, created_at, updated_at
		FROM technicians WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM technicians WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	filter := ""
	if req.Active != nil {
		argCount++
		filter += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *req.Active)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += filter + ` ORDER BY name, id`
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

	var techs []Technician
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Color, &t.Status, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		techs = append(techs, t)
	}
	return techs, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, t Technician) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO technicians (name, email, phone, color, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.Name, t.Email, t.Phone, t.Color, string(t.Status)).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE technicians SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"name", "email", "phone", "color", "status", "is_active"} {
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
