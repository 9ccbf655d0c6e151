package sheets

import (
	"context"
	"fmt"

	"grocery_sheets/internal/products"
	"grocery_sheets/internal/retry"

	"github.com/rs/zerolog/log"
)

// UpdateByID overwrites the six cells of the row holding product.ID.
func (s *Store) UpdateByID(ctx context.Context, product products.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := s.resolveRow(ctx, product.ID)
	if err != nil {
		return err
	}

	rowRange := s.layout.RowRange(offset)
	log.Debug().
		Str("id", product.ID).
		Str("range", rowRange).
		Msg("Updating product row")

	err = s.write(ctx, func(ctx context.Context) error {
		return s.client.UpdateRange(ctx, rowRange, [][]interface{}{products.EncodeRow(product)})
	})
	if err != nil {
		return err
	}

	log.Info().Str("id", product.ID).Int("offset", offset).Msg("Updated product row")
	return nil
}

// DeleteByID removes the row holding id from the sheet.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := s.resolveRow(ctx, id)
	if err != nil {
		return err
	}

	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	start := s.layout.SheetRowIndex(offset)
	log.Debug().
		Str("id", id).
		Int64("sheet_id", sheetID).
		Int64("row_index", start).
		Msg("Deleting product row")

	err = s.write(ctx, func(ctx context.Context) error {
		return s.client.DeleteRows(ctx, sheetID, start, start+1)
	})
	if err != nil {
		return err
	}

	log.Info().Str("id", id).Int("offset", offset).Msg("Deleted product row")
	return nil
}

// resolveSheetID looks the numeric sheet id up once and caches it.
func (s *Store) resolveSheetID(ctx context.Context) (int64, error) {
	s.sheetIDMu.Lock()
	defer s.sheetIDMu.Unlock()

	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	id, err := retry.WithRetry(ctx, s.resilience.SheetRead, func(ctx context.Context) (int64, error) {
		return s.client.SheetID(ctx, s.layout.SheetName)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	s.sheetID = &id
	return id, nil
}
