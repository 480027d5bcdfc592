package pricebook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// row is one validated CSV line.
type row struct {
	Line              int
	Sheet             string
	Category          string
	Code              string
	Name              string
	Description       string
	Unit              string
	Tier              Tier
	UnitPriceCents    int64
	Hours             *float64
	EquipmentCents    *int64
	HourlyRateCents   *int64
	MaterialMarkupPct *float64
}

// groupKey identifies one catalog item across its tier rows.
type groupKey struct {
	Sheet    string
	Category string
	Code     string
	Name     string
}

// group is one item with its tier-rate rows, in input order.
type group struct {
	Key  groupKey
	Rows []row
}

var requiredColumns = []string{"sheet", "category", "code", "name", "tier", "unit_price"}

// parseCSV reads the whole file, validating each row. Invalid rows are
// recorded and skipped; only a missing header or unreadable stream is
// fatal.
func parseCSV(r io.Reader) ([]row, int, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, 0, nil, fmt.Errorf("missing required column %q", c)
		}
	}

	var (
		rows     []row
		rowErrs  []RowError
		line     = 1
		rowsRead = 0
	)
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}
		rowsRead++

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		rw := row{
			Line:        line,
			Sheet:       get("sheet"),
			Category:    get("category"),
			Code:        get("code"),
			Name:        get("name"),
			Description: get("description"),
			Unit:        get("unit"),
		}
		if rw.Sheet == "" || rw.Category == "" || rw.Code == "" || rw.Name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "sheet, category, code and name are required"})
			continue
		}

		tier := Tier(strings.ToUpper(get("tier")))
		if !tier.IsValid() {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("tier %q is not one of STANDARD, MEMBER, RUMI", get("tier"))})
			continue
		}
		rw.Tier = tier

		price, err := parseCents(get("unit_price"))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("unit_price: %v", err)})
			continue
		}
		rw.UnitPriceCents = price

		// Optional breakdown columns. A bad value skips the row the
		// same as a bad price; a blank value is fine.
		bad := false
		if v := get("hours"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("hours: %v", err)})
				bad = true
			} else {
				rw.Hours = &f
			}
		}
		if v := get("equipment"); v != "" && !bad {
			c, err := parseCents(v)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("equipment: %v", err)})
				bad = true
			} else {
				rw.EquipmentCents = &c
			}
		}
		if v := get("hourly_rate"); v != "" && !bad {
			c, err := parseCents(v)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("hourly_rate: %v", err)})
				bad = true
			} else {
				rw.HourlyRateCents = &c
			}
		}
		if v := get("material_markup"); v != "" && !bad {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("material_markup: %v", err)})
				bad = true
			} else {
				rw.MaterialMarkupPct = &f
			}
		}
		if bad {
			continue
		}

		rows = append(rows, rw)
	}
	return rows, rowsRead, rowErrs, nil
}

// parseCents parses a money string ("129.99", "$1,299") into integer
// cents, rounding to two decimals.
func parseCents(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return d.Round(2).Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// groupRows buckets rows by (sheet, category, code, name) preserving
// first-seen order, and flags description conflicts within a group.
func groupRows(rows []row) ([]group, []string) {
	var (
		order    []groupKey
		byKey    = map[groupKey]*group{}
		warnings []string
	)
	for _, rw := range rows {
		key := groupKey{Sheet: rw.Sheet, Category: rw.Category, Code: rw.Code, Name: rw.Name}
		g, ok := byKey[key]
		if !ok {
			g = &group{Key: key}
			byKey[key] = g
			order = append(order, key)
		} else if first := g.Rows[0]; rw.Description != "" && first.Description != "" && rw.Description != first.Description {
			warnings = append(warnings, fmt.Sprintf("line %d: conflicting description for code %q, keeping first occurrence", rw.Line, rw.Code))
		}
		g.Rows = append(g.Rows, rw)
	}

	groups := make([]group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups, warnings
}
