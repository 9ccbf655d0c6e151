package sheets

import (
	"fmt"
	"strings"

	"grocery_sheets/internal/products"
)

// lastColumn is the column letter of the final product cell.
var lastColumn = string(rune('A' + products.Columns - 1))

// Layout describes where products live in the sheet: HeaderRows rows of
// headings followed by a window of at most MaxRows product rows.
type Layout struct {
	SheetName  string
	HeaderRows int
	MaxRows    int
}

func DefaultLayout(sheetName string) Layout {
	return Layout{
		SheetName:  sheetName,
		HeaderRows: 1,
		MaxRows:    1000,
	}
}

func (l Layout) Validate() error {
	if strings.TrimSpace(l.SheetName) == "" {
		return fmt.Errorf("sheet name is required")
	}
	if l.HeaderRows < 0 {
		return fmt.Errorf("header rows must not be negative, got %d", l.HeaderRows)
	}
	if l.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive, got %d", l.MaxRows)
	}
	return nil
}

// FirstDataRow is the 1-based sheet row of row offset 0.
func (l Layout) FirstDataRow() int {
	return l.HeaderRows + 1
}

func (l Layout) LastDataRow() int {
	return l.HeaderRows + l.MaxRows
}

func (l Layout) DataRange() string {
	return fmt.Sprintf("%s!A%d:%s%d", l.quotedName(), l.FirstDataRow(), lastColumn, l.LastDataRow())
}

func (l Layout) IDRange() string {
	return fmt.Sprintf("%s!A%d:A%d", l.quotedName(), l.FirstDataRow(), l.LastDataRow())
}

func (l Layout) AppendRange() string {
	return fmt.Sprintf("%s!A:%s", l.quotedName(), lastColumn)
}

// RowRange addresses the cells of the product at the given row offset.
func (l Layout) RowRange(offset int) string {
	row := l.FirstDataRow() + offset
	return fmt.Sprintf("%s!A%d:%s%d", l.quotedName(), row, lastColumn, row)
}

// SheetRowIndex converts a row offset into the zero-based row index used by
// structural requests.
func (l Layout) SheetRowIndex(offset int) int64 {
	return int64(l.HeaderRows + offset)
}

func (l Layout) quotedName() string {
	return "'" + strings.ReplaceAll(l.SheetName, "'", "''") + "'"
}
