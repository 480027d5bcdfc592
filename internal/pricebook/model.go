// Package pricebook holds the service catalog: industries, categories,
// items and tiered rates, populated from CSV uploads.
package pricebook

import "time"

// Tier is a pricing level applied to a catalog item.
type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierMember   Tier = "MEMBER"
	TierRumi     Tier = "RUMI"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierStandard, TierMember, TierRumi:
		return true
	default:
		return false
	}
}

// Industry is the top of the catalog hierarchy. It maps to a source
// spreadsheet ("sheet") in the uploaded file.
type Industry struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Category struct {
	ID         int64  `json:"id" db:"id"`
	IndustryID int64  `json:"industry_id" db:"industry_id"`
	Name       string `json:"name" db:"name"`
}

type Item struct {
	ID          int64   `json:"id" db:"id"`
	CategoryID  int64   `json:"category_id" db:"category_id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Unit        *string `json:"unit,omitempty" db:"unit"`

	Rates []Rate `json:"rates,omitempty" db:"-"`
}

// Rate carries the price for one item at one tier, plus the optional
// cost-breakdown fields present in some catalogs.
type Rate struct {
	ID                int64    `json:"id" db:"id"`
	ItemID            int64    `json:"item_id" db:"item_id"`
	Tier              Tier     `json:"tier" db:"tier"`
	UnitPriceCents    int64    `json:"unit_price_cents" db:"unit_price_cents"`
	Hours             *float64 `json:"hours,omitempty" db:"hours"`
	EquipmentCents    *int64   `json:"equipment_cents,omitempty" db:"equipment_cents"`
	HourlyRateCents   *int64   `json:"hourly_rate_cents,omitempty" db:"hourly_rate_cents"`
	MaterialMarkupPct *float64 `json:"material_markup_pct,omitempty" db:"material_markup_pct"`
}

// FlatEntry is the legacy flat catalog row, keyed by sheet/category/code
// with no hierarchy. Kept per upload so older integrations keep working.
type FlatEntry struct {
	ID             int64  `json:"id" db:"id"`
	UploadID       int64  `json:"upload_id" db:"upload_id"`
	Sheet          string `json:"sheet" db:"sheet"`
	Category       string `json:"category" db:"category"`
	Code           string `json:"code" db:"code"`
	Name           string `json:"name" db:"name"`
	Tier           Tier   `json:"tier" db:"tier"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
}

// Upload records one imported catalog file. Exactly one upload is
// active at a time.
type Upload struct {
	ID            int64     `json:"id" db:"id"`
	Filename      string    `json:"filename" db:"filename"`
	Checksum      string    `json:"checksum" db:"checksum"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
