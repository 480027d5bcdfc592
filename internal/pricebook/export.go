package pricebook

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders the whole catalog as a workbook, one sheet per
// industry, for offline review by office staff.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	results, err := s.Search(ctx, SearchRequest{Limit: 0})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Category", "Code", "Name", "Description", "Unit", "Tier", "Unit Price"}
	rowBySheet := map[string]int{}

	for _, item := range results {
		sheet := item.Sheet
		if sheet == "" {
			sheet = "Catalog"
		}
		if _, ok := rowBySheet[sheet]; !ok {
			idx, err := f.NewSheet(sheet)
			if err != nil {
				return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
			}
			f.SetActiveSheet(idx)
			if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
				return nil, err
			}
			rowBySheet[sheet] = 2
		}

		desc, unit := "", ""
		if item.Description != nil {
			desc = *item.Description
		}
		if item.Unit != nil {
			unit = *item.Unit
		}
		for _, rate := range item.Rates {
			row := rowBySheet[sheet]
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				item.Category, item.Code, item.Name, desc, unit,
				string(rate.Tier), float64(rate.UnitPriceCents) / 100,
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
			rowBySheet[sheet] = row + 1
		}
	}

	if len(rowBySheet) > 0 {
		// The default sheet is empty once real sheets exist.
		_ = f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
