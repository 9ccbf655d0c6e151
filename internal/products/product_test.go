package products

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Product{
		{ID: "1", Name: "Eggs", Quantity: 12, UnitPrice: 0.5, TotalPrice: 6, Purchased: false},
		{ID: "b3c1", Name: "Bread", Quantity: 1, UnitPrice: 4, TotalPrice: 4, Purchased: true},
		{ID: "x", Name: "", Quantity: 0, UnitPrice: 0, TotalPrice: 0},
		{ID: "y", Name: "Coffee, ground", Quantity: 3, UnitPrice: 0.1, TotalPrice: 0.30000000000000004},
	}

	for _, want := range cases {
		got, err := DecodeRow(EncodeRow(want), 2)
		if err != nil {
			t.Fatalf("DecodeRow(EncodeRow(%+v)) error: %v", want, err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestEncodeRowIsStrings(t *testing.T) {
	row := EncodeRow(Product{ID: "2", Name: "Bread", Quantity: 1, UnitPrice: 4, TotalPrice: 4, Purchased: true})
	want := []string{"2", "Bread", "1", "4", "4", "true"}
	if len(row) != Columns {
		t.Fatalf("len(row) = %d, want %d", len(row), Columns)
	}
	for i, w := range want {
		s, ok := row[i].(string)
		if !ok {
			t.Fatalf("row[%d] is %T, want string", i, row[i])
		}
		if s != w {
			t.Errorf("row[%d] = %q, want %q", i, s, w)
		}
	}
}

func TestDecodeRow(t *testing.T) {
	got, err := DecodeRow([]interface{}{"2", "Bread", "1", "4", "4", "TRUE"}, 3)
	if err != nil {
		t.Fatalf("DecodeRow error: %v", err)
	}
	want := Product{ID: "2", Name: "Bread", Quantity: 1, UnitPrice: 4, TotalPrice: 4, Purchased: true}
	if got != want {
		t.Errorf("DecodeRow = %+v, want %+v", got, want)
	}
}

func TestDecodeRowMissingTrailingCells(t *testing.T) {
	got, err := DecodeRow([]interface{}{"7", "Milk", "2", "3.5", "7"}, 2)
	if err != nil {
		t.Fatalf("DecodeRow error: %v", err)
	}
	if got.Purchased {
		t.Error("expected missing purchased cell to decode as false")
	}
}

func TestDecodeRowNonStringCells(t *testing.T) {
	got, err := DecodeRow([]interface{}{float64(9), "Rice", float64(2), 1.25, 2.5, true}, 2)
	if err != nil {
		t.Fatalf("DecodeRow error: %v", err)
	}
	if got.ID != "9" || got.Quantity != 2 || got.UnitPrice != 1.25 || !got.Purchased {
		t.Errorf("DecodeRow = %+v", got)
	}
}

func TestCellText(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"Milk", "Milk"},
		{float64(1700000000123), "1700000000123"},
		{3.5, "3.5"},
		{float64(2), "2"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := CellText(tc.in); got != tc.want {
			t.Errorf("CellText(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeRowMalformed(t *testing.T) {
	cases := []struct {
		name   string
		row    []interface{}
		column string
	}{
		{"empty id", []interface{}{"", "Milk", "1", "1", "1", "false"}, "id"},
		{"empty row", []interface{}{}, "id"},
		{"non-numeric quantity", []interface{}{"1", "Milk", "two", "1", "2", "false"}, "quantity"},
		{"negative quantity", []interface{}{"1", "Milk", "-1", "1", "-1", "false"}, "quantity"},
		{"missing unit price", []interface{}{"1", "Milk", "1"}, "unit price"},
		{"nan unit price", []interface{}{"1", "Milk", "1", "NaN", "1", "false"}, "unit price"},
		{"infinite total", []interface{}{"1", "Milk", "1", "1", "Inf", "false"}, "total price"},
		{"formatted total", []interface{}{"1", "Milk", "1", "1", "R$ 1,00", "false"}, "total price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRow(tc.row, 5)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if decodeErr.Column != tc.column {
				t.Errorf("column = %q, want %q", decodeErr.Column, tc.column)
			}
			if decodeErr.Row != 5 {
				t.Errorf("row = %d, want 5", decodeErr.Row)
			}
		})
	}
}

func TestNewDraftComputesTotal(t *testing.T) {
	d := NewDraft("  Milk ", 2, 3.5, false)
	if d.Name != "Milk" {
		t.Errorf("name = %q, want %q", d.Name, "Milk")
	}
	if d.TotalPrice != 7.0 {
		t.Errorf("total = %v, want 7", d.TotalPrice)
	}

	p := d.WithID("abc").Reprice(3, 2.25)
	if p.ID != "abc" {
		t.Errorf("id = %q, want abc", p.ID)
	}
	if p.TotalPrice != float64(p.Quantity)*p.UnitPrice {
		t.Errorf("total = %v, want %v", p.TotalPrice, float64(p.Quantity)*p.UnitPrice)
	}
}

func TestTimestampGenerator(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	gen := TimestampGenerator(func() time.Time { return at })
	if got := gen(); got != "1700000000123" {
		t.Errorf("id = %q, want %q", got, "1700000000123")
	}
}

func TestUUIDGeneratorUnique(t *testing.T) {
	gen := UUIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGeneratorFor(t *testing.T) {
	for _, scheme := range []string{"", "uuid", "timestamp"} {
		if _, ok := GeneratorFor(scheme); !ok {
			t.Errorf("GeneratorFor(%q) not ok", scheme)
		}
	}
	if _, ok := GeneratorFor("sequence"); ok {
		t.Error("expected unknown scheme to be rejected")
	}

	gen, _ := GeneratorFor("timestamp")
	if _, err := strconv.ParseInt(gen(), 10, 64); err != nil {
		t.Errorf("timestamp id not numeric: %v", err)
	}
}

func TestFilter(t *testing.T) {
	items := []Product{
		{ID: "1", Name: "Whole Milk"},
		{ID: "2", Name: "Bread"},
		{ID: "3", Name: "milk chocolate"},
	}

	got := Filter(items, " MILK ")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("Filter(milk) = %+v", got)
	}
	if all := Filter(items, ""); len(all) != 3 {
		t.Errorf("Filter(\"\") returned %d items, want 3", len(all))
	}
	if none := Filter(nil, "x"); none == nil || len(none) != 0 {
		t.Errorf("Filter(nil) = %#v, want empty non-nil slice", none)
	}
}

func TestSummarize(t *testing.T) {
	items := []Product{
		{ID: "1", TotalPrice: 0.1},
		{ID: "2", TotalPrice: 0.2, Purchased: true},
		{ID: "3", TotalPrice: 6},
	}

	s := Summarize(items)
	if s.Count != 3 || s.Purchased != 1 {
		t.Errorf("counts = %d/%d, want 3/1", s.Count, s.Purchased)
	}
	if s.Total.StringFixed(2) != "6.30" {
		t.Errorf("total = %s, want 6.30", s.Total.StringFixed(2))
	}
	if s.Remaining.StringFixed(2) != "6.10" {
		t.Errorf("remaining = %s, want 6.10", s.Remaining.StringFixed(2))
	}
	if empty := Summarize(nil); !empty.Total.IsZero() || empty.Count != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
