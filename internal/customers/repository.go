package customers

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

var ErrNotFound = errors.New("customer not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, c Customer) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	ReplacePhones(ctx context.Context, customerID int64, phones []Phone) error
	ReplaceEmails(ctx context.Context, customerID int64, emails []Email) error
	ReplaceAddresses(ctx context.Context, customerID int64, addresses []Address) error
	ReplaceTags(ctx context.Context, customerID int64, tags []string) error
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

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, display_name, notes, is_archived, created_at, updated_at
		FROM customers WHERE id = $1`, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.DisplayName, &c.Notes, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) loadChildren(ctx context.Context, c *Customer) error {
	rows, err := r.db.Query(ctx,
		`SELECT id, customer_id, kind, number FROM customer_phones WHERE customer_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p Phone
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Kind, &p.Number); err != nil {
			rows.Close()
			return err
		}
		c.Phones = append(c.Phones, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx,
		`SELECT id, customer_id, kind, address FROM customer_emails WHERE customer_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var e Email
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Kind, &e.Address); err != nil {
			rows.Close()
			return err
		}
		c.Emails = append(c.Emails, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
		SELECT id, customer_id, line1, line2, city, state, postal_code, is_billing, is_service
		FROM customer_addresses WHERE customer_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.IsBilling, &a.IsService); err != nil {
			rows.Close()
			return err
		}
		c.Addresses = append(c.Addresses, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx,
		`SELECT tag FROM customer_tags WHERE customer_id = $1 ORDER BY tag`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return err
		}
		c.Tags = append(c.Tags, tag)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	query := `SELECT id, first_name, last_name, display_name, notes, is_archived, created_at, updated_at
		FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	filter := ""
	if req.Archived != nil {
		argCount++
		filter += ` AND is_archived = $` + strconv.Itoa(argCount)
		args = append(args, *req.Archived)
	}
	if req.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		filter += ` AND (display_name ILIKE $` + n + ` OR first_name ILIKE $` + n + ` OR last_name ILIKE $` + n + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += filter + ` ORDER BY display_name, id`
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

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.DisplayName, &c.Notes, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, display_name, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		c.FirstName, c.LastName, c.DisplayName, c.Notes).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE customers SET updated_at = NOW()`
	args := []interface{}{}
	argPos := 0

	for _, col := range []string{"first_name", "last_name", "display_name", "notes", "is_archived"} {
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

func (r *repository) ReplacePhones(ctx context.Context, customerID int64, phones []Phone) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM customer_phones WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for _, p := range phones {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO customer_phones (customer_id, kind, number) VALUES ($1, $2, $3)`,
			customerID, string(p.Kind), p.Number); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ReplaceEmails(ctx context.Context, customerID int64, emails []Email) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM customer_emails WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for _, e := range emails {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO customer_emails (customer_id, kind, address) VALUES ($1, $2, $3)`,
			customerID, string(e.Kind), e.Address); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ReplaceAddresses(ctx context.Context, customerID int64, addresses []Address) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM customer_addresses WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for _, a := range addresses {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO customer_addresses (customer_id, line1, line2, city, state, postal_code, is_billing, is_service)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			customerID, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.IsBilling, a.IsService); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ReplaceTags(ctx context.Context, customerID int64, tags []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM customer_tags WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO customer_tags (customer_id, tag) VALUES ($1, $2)`, customerID, tag); err != nil {
			return err
		}
	}
	return nil
}
