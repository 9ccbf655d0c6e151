package products

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Columns is the fixed width of an encoded product row: id, name, quantity,
// unit price, total price, purchased.
const Columns = 6

const (
	colID = iota
	colName
	colQuantity
	colUnitPrice
	colTotalPrice
	colPurchased
)

// Product is one grocery list entry.
type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Purchased  bool    `json:"purchased"`
}

// Draft is a product that has not been assigned an id yet.
type Draft struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Purchased  bool    `json:"purchased"`
}

// NewDraft builds a draft with its total computed from quantity and unit price.
func NewDraft(name string, quantity int, unitPrice float64, purchased bool) Draft {
	return Draft{
		Name:       strings.TrimSpace(name),
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: float64(quantity) * unitPrice,
		Purchased:  purchased,
	}
}

// WithID turns the draft into a product.
func (d Draft) WithID(id string) Product {
	return Product{
		ID:         id,
		Name:       d.Name,
		Quantity:   d.Quantity,
		UnitPrice:  d.UnitPrice,
		TotalPrice: d.TotalPrice,
		Purchased:  d.Purchased,
	}
}

// Reprice returns a copy with new quantity and unit price and a recomputed total.
func (p Product) Reprice(quantity int, unitPrice float64) Product {
	p.Quantity = quantity
	p.UnitPrice = unitPrice
	p.TotalPrice = float64(quantity) * unitPrice
	return p
}

// DecodeError reports a sheet row that could not be turned into a Product.
type DecodeError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: invalid %s %q", e.Row, e.Column, e.Value)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeRow flattens a product into the six string cells stored in the sheet.
func EncodeRow(p Product) []interface{} {
	return []interface{}{
		p.ID,
		p.Name,
		strconv.Itoa(p.Quantity),
		formatFloat(p.UnitPrice),
		formatFloat(p.TotalPrice),
		strconv.FormatBool(p.Purchased),
	}
}

// DecodeRow parses a positional sheet row. rowNumber is only used for error
// reporting. Trailing cells left out by the Sheets API read as empty.
func DecodeRow(row []interface{}, rowNumber int) (Product, error) {
	id := strings.TrimSpace(cell(row, colID))
	if id == "" {
		return Product{}, &DecodeError{Row: rowNumber, Column: "id", Value: id}
	}

	rawQty := strings.TrimSpace(cell(row, colQuantity))
	quantity, err := strconv.Atoi(rawQty)
	if err != nil {
		return Product{}, &DecodeError{Row: rowNumber, Column: "quantity", Value: rawQty, Err: err}
	}
	if quantity < 0 {
		return Product{}, &DecodeError{Row: rowNumber, Column: "quantity", Value: rawQty, Err: fmt.Errorf("negative")}
	}

	unitPrice, err := parsePrice(row, colUnitPrice, "unit price", rowNumber)
	if err != nil {
		return Product{}, err
	}
	totalPrice, err := parsePrice(row, colTotalPrice, "total price", rowNumber)
	if err != nil {
		return Product{}, err
	}

	return Product{
		ID:         id,
		Name:       cell(row, colName),
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
		Purchased:  strings.EqualFold(strings.TrimSpace(cell(row, colPurchased)), "true"),
	}, nil
}

func parsePrice(row []interface{}, index int, column string, rowNumber int) (float64, error) {
	raw := strings.TrimSpace(cell(row, index))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &DecodeError{Row: rowNumber, Column: column, Value: raw, Err: err}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, &DecodeError{Row: rowNumber, Column: column, Value: raw, Err: fmt.Errorf("out of range")}
	}
	return value, nil
}

// cell safely extracts a string field from a row at the given index
func cell(row []interface{}, index int) string {
	if len(row) > index {
		return CellText(row[index])
	}
	return ""
}

// CellText renders a cell value as read from the Sheets API. Unformatted
// numbers arrive as float64 and are written without exponent, so numeric ids
// like 1700000000123 keep their digits.
func CellText(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
