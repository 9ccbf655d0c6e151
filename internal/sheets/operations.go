package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"grocery_sheets/internal/config"
	"grocery_sheets/internal/products"
	"grocery_sheets/internal/retry"

	"github.com/rs/zerolog/log"
)

// Store keeps grocery products as rows of a spreadsheet.
//
// Mutations are serialised: the id-column read that locates a row and the
// write that follows happen with no other mutation from this Store in
// between. Edits made by other clients between those two calls are not
// detected.
type Store struct {
	client     *Client
	layout     Layout
	newID      products.IDGenerator
	resilience config.ResilienceConfig

	mu sync.Mutex

	sheetIDMu sync.Mutex
	sheetID   *int64
}

type Option func(*Store)

func WithIDGenerator(gen products.IDGenerator) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

func WithResilience(rc config.ResilienceConfig) Option {
	return func(s *Store) {
		s.resilience = rc
	}
}

func NewStore(client *Client, layout Layout, opts ...Option) *Store {
	s := &Store{
		client:     client,
		layout:     layout,
		newID:      products.UUIDGenerator(),
		resilience: config.DefaultResilienceConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll reads the product window. Blank rows are skipped; malformed rows
// are logged and skipped.
func (s *Store) FetchAll(ctx context.Context) ([]products.Product, error) {
	dataRange := s.layout.DataRange()
	log.Debug().Str("range", dataRange).Msg("Reading products")

	rows, err := s.read(ctx, dataRange)
	if err != nil {
		return nil, err
	}

	items := make([]products.Product, 0, len(rows))
	for i, row := range rows {
		rowNumber := s.layout.FirstDataRow() + i
		if isBlankRow(row) {
			log.Debug().Int("row", rowNumber).Msg("Skipping blank row")
			continue
		}

		product, err := products.DecodeRow(row, rowNumber)
		if err != nil {
			var decodeErr *products.DecodeError
			if errors.As(err, &decodeErr) {
				log.Warn().
					Int("row", decodeErr.Row).
					Str("column", decodeErr.Column).
					Str("value", decodeErr.Value).
					Msg("Skipping malformed row")
				continue
			}
			return nil, err
		}
		items = append(items, product)
	}

	log.Debug().
		Int("rows", len(rows)).
		Int("products", len(items)).
		Msg("Read products")
	return items, nil
}

// Append assigns a fresh id to draft and writes it as a new last row.
func (s *Store) Append(ctx context.Context, draft products.Draft) (products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	ids, err := s.readIDs(ctx)
	if err != nil {
		return products.Product{}, err
	}
	if indexOf(ids, id) >= 0 {
		return products.Product{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if len(ids) >= s.layout.MaxRows {
		return products.Product{}, fmt.Errorf("%w: %d rows", ErrRangeFull, len(ids))
	}

	product := draft.WithID(id)
	appendRange := s.layout.AppendRange()
	log.Debug().Str("id", id).Str("range", appendRange).Msg("Appending product row")

	err = s.write(ctx, func(ctx context.Context) error {
		return s.client.AppendRows(ctx, appendRange, [][]interface{}{products.EncodeRow(product)})
	})
	if err != nil {
		return products.Product{}, err
	}

	log.Info().Str("id", id).Str("name", product.Name).Msg("Appended product")
	return product, nil
}

// resolveRow returns the row offset of the first row whose id cell equals id.
// Callers must hold s.mu.
func (s *Store) resolveRow(ctx context.Context, id string) (int, error) {
	ids, err := s.readIDs(ctx)
	if err != nil {
		return 0, err
	}

	offset := indexOf(ids, id)
	log.Debug().
		Str("id", id).
		Int("ids", len(ids)).
		Int("offset", offset).
		Msg("Resolved product row")
	if offset < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return offset, nil
}

func (s *Store) readIDs(ctx context.Context) ([]string, error) {
	rows, err := s.read(ctx, s.layout.IDRange())
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(products.CellText(row[0]))
		}
	}
	return ids, nil
}

func (s *Store) read(ctx context.Context, range_ string) ([][]interface{}, error) {
	rows, err := retry.WithRetry(ctx, s.resilience.SheetRead, func(ctx context.Context) ([][]interface{}, error) {
		return s.client.ReadSheet(ctx, range_)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	return rows, nil
}

func (s *Store) write(ctx context.Context, op func(context.Context) error) error {
	_, err := retry.WithRetry(ctx, s.resilience.SheetWrite, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate != "" && candidate == id {
			return i
		}
	}
	return -1
}

func isBlankRow(row []interface{}) bool {
	for _, v := range row {
		if strings.TrimSpace(products.CellText(v)) != "" {
			return false
		}
	}
	return true
}
