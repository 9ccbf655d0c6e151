package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const testSpreadsheetID = "spreadsheet-123"

var rowRangePattern = regexp.MustCompile(`!A(\d+):F(\d+)$`)

// fakeSheets is an in-memory Sheets API serving a single product sheet.
type fakeSheets struct {
	t      *testing.T
	layout Layout

	// idReadDelay holds id-column reads open before they are served, so
	// concurrent callers get a chance to interleave. Set before use.
	idReadDelay time.Duration

	mu          sync.Mutex
	rows        [][]interface{}
	sheetID     int64
	calls       []string
	fail        map[string]int
	authHeaders []string
	lastBatch   string
	lastAppend  string
}

func newFakeSheets(t *testing.T, layout Layout, rows ...[]interface{}) *fakeSheets {
	t.Helper()
	return &fakeSheets{
		t:      t,
		layout: layout,
		rows:   rows,
		fail:   make(map[string]int),
	}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.idReadDelay > 0 && r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/values/"+f.layout.IDRange()) {
		time.Sleep(f.idReadDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	prefix := "/v4/spreadsheets/" + testSpreadsheetID
	if !strings.HasPrefix(r.URL.Path, prefix) {
		f.writeError(w, http.StatusNotFound, "unknown spreadsheet")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case rest == "" && r.Method == http.MethodGet:
		f.handle(w, "meta", f.meta)
	case rest == ":batchUpdate" && r.Method == http.MethodPost:
		f.handle(w, "batch", func(w http.ResponseWriter) { f.batchUpdate(w, r) })
	case strings.HasPrefix(rest, "/values/"):
		rng := strings.TrimPrefix(rest, "/values/")
		switch {
		case strings.HasSuffix(rng, ":append") && r.Method == http.MethodPost:
			f.handle(w, "append", func(w http.ResponseWriter) { f.append(w, r) })
		case r.Method == http.MethodGet:
			f.handle(w, "get "+rng, func(w http.ResponseWriter) { f.get(w, rng) })
		case r.Method == http.MethodPut:
			f.handle(w, "update "+rng, func(w http.ResponseWriter) { f.update(w, r, rng) })
		default:
			f.writeError(w, http.StatusBadRequest, "unsupported values call")
		}
	default:
		f.writeError(w, http.StatusBadRequest, "unsupported call "+rest)
	}
}

func (f *fakeSheets) handle(w http.ResponseWriter, call string, fn func(http.ResponseWriter)) {
	f.calls = append(f.calls, call)
	kind := strings.SplitN(call, " ", 2)[0]
	if status, ok := f.fail[kind]; ok {
		f.writeError(w, status, "injected failure")
		return
	}
	fn(w)
}

func (f *fakeSheets) get(w http.ResponseWriter, rng string) {
	resp := &sheets.ValueRange{Range: rng, MajorDimension: "ROWS"}
	window := f.window()

	switch rng {
	case f.layout.DataRange():
		if len(window) > 0 {
			resp.Values = window
		}
	case f.layout.IDRange():
		for _, row := range window {
			if len(row) == 0 {
				resp.Values = append(resp.Values, []interface{}{})
				continue
			}
			resp.Values = append(resp.Values, []interface{}{row[0]})
		}
	default:
		f.writeError(w, http.StatusBadRequest, "unexpected range "+rng)
		return
	}
	f.writeJSON(w, resp)
}

// window returns the stored rows clipped to the layout window with trailing
// blank rows removed, as the real API does.
func (f *fakeSheets) window() [][]interface{} {
	rows := f.rows
	if len(rows) > f.layout.MaxRows {
		rows = rows[:f.layout.MaxRows]
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func (f *fakeSheets) append(w http.ResponseWriter, r *http.Request) {
	if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
		f.writeError(w, http.StatusBadRequest, "valueInputOption "+got)
		return
	}
	var body sheets.ValueRange
	if err := f.decode(r, &body); err != nil {
		f.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.lastAppend = strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+testSpreadsheetID+"/values/"), ":append")
	f.rows = append(f.rows, body.Values...)
	f.writeJSON(w, &sheets.AppendValuesResponse{SpreadsheetId: testSpreadsheetID})
}

func (f *fakeSheets) update(w http.ResponseWriter, r *http.Request, rng string) {
	m := rowRangePattern.FindStringSubmatch(rng)
	if m == nil || m[1] != m[2] {
		f.writeError(w, http.StatusBadRequest, "unexpected update range "+rng)
		return
	}
	row, _ := strconv.Atoi(m[1])
	offset := row - f.layout.FirstDataRow()

	var body sheets.ValueRange
	if err := f.decode(r, &body); err != nil || len(body.Values) != 1 {
		f.writeError(w, http.StatusBadRequest, "bad update body")
		return
	}
	for len(f.rows) <= offset {
		f.rows = append(f.rows, []interface{}{})
	}
	f.rows[offset] = body.Values[0]
	f.writeJSON(w, &sheets.UpdateValuesResponse{UpdatedRange: rng})
}

func (f *fakeSheets) meta(w http.ResponseWriter) {
	f.writeJSON(w, &sheets.Spreadsheet{
		SpreadsheetId: testSpreadsheetID,
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{SheetId: 77, Title: "Archive"}},
			{Properties: &sheets.SheetProperties{SheetId: f.sheetID, Title: f.layout.SheetName}},
		},
	})
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		f.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.lastBatch = string(raw)

	var req sheets.BatchUpdateSpreadsheetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		f.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, sub := range req.Requests {
		del := sub.DeleteDimension
		if del == nil || del.Range == nil || del.Range.Dimension != "ROWS" || del.Range.SheetId != f.sheetID {
			f.writeError(w, http.StatusBadRequest, "unexpected batch request")
			return
		}
		start := int(del.Range.StartIndex) - f.layout.HeaderRows
		end := int(del.Range.EndIndex) - f.layout.HeaderRows
		if start < 0 || end > len(f.rows) || start >= end {
			f.writeError(w, http.StatusBadRequest, "delete out of range")
			return
		}
		f.rows = append(f.rows[:start:start], f.rows[end:]...)
	}
	f.writeJSON(w, &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: testSpreadsheetID})
}

func (f *fakeSheets) decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (f *fakeSheets) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode fake response: %v", err)
	}
}

func (f *fakeSheets) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, msg)
}

func (f *fakeSheets) snapshot() [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]interface{}, len(f.rows))
	copy(out, f.rows)
	return out
}

func (f *fakeSheets) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSheets) failOn(kind string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[kind] = status
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), testSpreadsheetID,
		option.WithEndpoint(srv.URL+"/"),
		WithBearer(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func newTestStore(t *testing.T, fake *fakeSheets, opts ...Option) *Store {
	t.Helper()
	return NewStore(newTestClient(t, fake), fake.layout, opts...)
}

func row(cells ...string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
