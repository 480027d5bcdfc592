package pricebook

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

type Service struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		validate: validator.New(),
	}
}

// Import parses one CSV catalog and upserts its contents. A file whose
// checksum was seen before is rejected before any row is processed.
// Item groups commit one transaction at a time so a bad group never
// aborts the rest of the file, and a large file never holds one giant
// transaction open.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	dup, err := s.repo.ChecksumExists(ctx, checksum)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: file %q was already uploaded", httpx.ErrDuplicate, filename)
	}

	rows, rowsRead, rowErrs, err := parseCSV(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	result := &ImportResult{
		Filename: filename,
		RowsRead: rowsRead,
		Errors:   rowErrs,
	}

	uploadID, err := s.repo.CreateUpload(ctx, filename, checksum)
	if err != nil {
		return nil, err
	}
	result.UploadID = uploadID

	groups, warnings := groupRows(rows)
	result.Warnings = warnings

	for _, g := range groups {
		if err := s.importGroup(ctx, uploadID, g, result); err != nil {
			result.Errors = append(result.Errors, RowError{
				Line:    g.Rows[0].Line,
				Message: fmt.Sprintf("item %s: %v", g.Key.Code, err),
			})
			s.logger.Warn("pricebook group failed",
				slog.String("code", g.Key.Code), slog.Any("error", err))
		}
	}

	// Activation and deactivation of the previous upload happen in one
	// transaction so there is never a window with zero or two active
	// catalogs.
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.ActivateUpload(ctx, uploadID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pricebook imported",
		slog.String("filename", filename),
		slog.Int64("upload_id", uploadID),
		slog.Int("items", result.ItemsImported),
		slog.Int("rates", result.RatesImported),
		slog.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *Service) importGroup(ctx context.Context, uploadID int64, g group, result *ImportResult) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		first := g.Rows[0]

		industryID, err := repo.UpsertIndustry(ctx, g.Key.Sheet)
		if err != nil {
			return err
		}
		categoryID, err := repo.UpsertCategory(ctx, industryID, g.Key.Category)
		if err != nil {
			return err
		}

		item := Item{CategoryID: categoryID, Code: g.Key.Code, Name: g.Key.Name}
		if first.Description != "" {
			item.Description = &first.Description
		}
		if first.Unit != "" {
			item.Unit = &first.Unit
		}
		itemID, err := repo.UpsertItem(ctx, item)
		if err != nil {
			return err
		}

		seen := map[Tier]bool{}
		for _, rw := range g.Rows {
			if seen[rw.Tier] {
				continue
			}
			seen[rw.Tier] = true
			if err := repo.UpsertRate(ctx, Rate{
				ItemID:            itemID,
				Tier:              rw.Tier,
				UnitPriceCents:    rw.UnitPriceCents,
				Hours:             rw.Hours,
				EquipmentCents:    rw.EquipmentCents,
				HourlyRateCents:   rw.HourlyRateCents,
				MaterialMarkupPct: rw.MaterialMarkupPct,
			}); err != nil {
				return err
			}
			if err := repo.InsertFlatEntry(ctx, FlatEntry{
				UploadID:       uploadID,
				Sheet:          rw.Sheet,
				Category:       rw.Category,
				Code:           rw.Code,
				Name:           rw.Name,
				Tier:           rw.Tier,
				UnitPriceCents: rw.UnitPriceCents,
			}); err != nil {
				return err
			}
			result.RatesImported++
		}
		result.ItemsImported++
		return nil
	})
}

// Search queries the catalog, attaching every tier rate to each hit.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	results, err := s.repo.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	rates, err := s.repo.RatesForItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Rates = rates[results[i].ID]
	}
	return results, nil
}

func (s *Service) ListUploads(ctx context.Context) ([]Upload, error) {
	return s.repo.ListUploads(ctx)
}
