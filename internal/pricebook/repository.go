package pricebook

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldworks/fieldworks/internal/platform/db"
)

var ErrUploadNotFound = errors.New("upload not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ChecksumExists(ctx context.Context, checksum string) (bool, error)
	CreateUpload(ctx context.Context, filename, checksum string) (int64, error)
	ActivateUpload(ctx context.Context, id int64) error
	ListUploads(ctx context.Context) ([]Upload, error)
	ActiveUpload(ctx context.Context) (*Upload, error)

	UpsertIndustry(ctx context.Context, name string) (int64, error)
	UpsertCategory(ctx context.Context, industryID int64, name string) (int64, error)
	UpsertItem(ctx context.Context, item Item) (int64, error)
	UpsertRate(ctx context.Context, rate Rate) error
	InsertFlatEntry(ctx context.Context, e FlatEntry) error

	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	RatesForItems(ctx context.Context, itemIDs []int64) (map[int64][]Rate, error)
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

func (r *repository) ChecksumExists(ctx context.Context, checksum string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pricebook_uploads WHERE checksum = $1)`, checksum).Scan(&exists)
	return exists, err
}

func (r *repository) CreateUpload(ctx context.Context, filename, checksum string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pricebook_uploads (filename, checksum, is_active, effective_date)
		VALUES ($1, $2, FALSE, NOW())
		RETURNING id`, filename, checksum).Scan(&id)
	return id, err
}

// ActivateUpload flips the single active flag. Runs both statements on
// the same handle so callers wrap it in a transaction.
func (r *repository) ActivateUpload(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE pricebook_uploads SET is_active = FALSE WHERE is_active`); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE pricebook_uploads SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

func (r *repository) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, filename, checksum, is_active, effective_date, created_at
		FROM pricebook_uploads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.Checksum, &u.IsActive, &u.EffectiveDate, &u.CreatedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (r *repository) ActiveUpload(ctx context.Context) (*Upload, error) {
	var u Upload
	err := r.db.QueryRow(ctx, `
		SELECT id, filename, checksum, is_active, effective_date, created_at
		FROM pricebook_uploads WHERE is_active LIMIT 1`).Scan(
		&u.ID, &u.Filename, &u.Checksum, &u.IsActive, &u.EffectiveDate, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) UpsertIndustry(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pricebook_industries (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *repository) UpsertCategory(ctx context.Context, industryID int64, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pricebook_categories (industry_id, name) VALUES ($1, $2)
		ON CONFLICT (industry_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, industryID, name).Scan(&id)
	return id, err
}

func (r *repository) UpsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pricebook_items (category_id, code, name, description, unit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category_id, code) DO UPDATE SET
			name = EXCLUDED.name,
			description = COALESCE(EXCLUDED.description, pricebook_items.description),
			unit = COALESCE(EXCLUDED.unit, pricebook_items.unit)
		RETURNING id`,
		item.CategoryID, item.Code, item.Name, item.Description, item.Unit).Scan(&id)
	return id, err
}

func (r *repository) UpsertRate(ctx context.Context, rate Rate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pricebook_rates (item_id, tier, unit_price_cents, hours, equipment_cents, hourly_rate_cents, material_markup_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id, tier) DO UPDATE SET
			unit_price_cents = EXCLUDED.unit_price_cents,
			hours = EXCLUDED.hours,
			equipment_cents = EXCLUDED.equipment_cents,
			hourly_rate_cents = EXCLUDED.hourly_rate_cents,
			material_markup_pct = EXCLUDED.material_markup_pct`,
		rate.ItemID, string(rate.Tier), rate.UnitPriceCents, rate.Hours, rate.EquipmentCents, rate.HourlyRateCents, rate.MaterialMarkupPct)
	return err
}

func (r *repository) InsertFlatEntry(ctx context.Context, e FlatEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pricebook_flat (upload_id, sheet, category, code, name, tier, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.UploadID, e.Sheet, e.Category, e.Code, e.Name, string(e.Tier), e.UnitPriceCents)
	return err
}

func (r *repository) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	query := `
		SELECT i.id, i.category_id, i.code, i.name, i.description, i.unit, c.name, ind.name
		FROM pricebook_items i
		JOIN pricebook_categories c ON c.id = i.category_id
		JOIN pricebook_industries ind ON ind.id = c.industry_id
		WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if req.Query != "" {
		argCount++
		n := strconv.Itoa(argCount)
		query += ` AND (i.code ILIKE $` + n + ` OR i.name ILIKE $` + n + ` OR i.description ILIKE $` + n + `)`
		args = append(args, "%"+req.Query+"%")
	}
	if req.Sheet != "" {
		argCount++
		query += ` AND ind.name = $` + strconv.Itoa(argCount)
		args = append(args, req.Sheet)
	}

	query += ` ORDER BY ind.name, c.name, i.code`
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
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.ID, &sr.CategoryID, &sr.Code, &sr.Name, &sr.Description, &sr.Unit, &sr.Category, &sr.Sheet); err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

func (r *repository) RatesForItems(ctx context.Context, itemIDs []int64) (map[int64][]Rate, error) {
	if len(itemIDs) == 0 {
		return map[int64][]Rate{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, tier, unit_price_cents, hours, equipment_cents, hourly_rate_cents, material_markup_pct
		FROM pricebook_rates WHERE item_id = ANY($1) ORDER BY item_id, tier`, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := map[int64][]Rate{}
	for rows.Next() {
		var rt Rate
		if err := rows.Scan(&rt.ID, &rt.ItemID, &rt.Tier, &rt.UnitPriceCents, &rt.Hours, &rt.EquipmentCents, &rt.HourlyRateCents, &rt.MaterialMarkupPct); err != nil {
			return nil, err
		}
		rates[rt.ItemID] = append(rates[rt.ItemID], rt)
	}
	return rates, rows.Err()
}
