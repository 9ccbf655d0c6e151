package sheets

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client is a thin wrapper over the Sheets API bound to one spreadsheet.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// WithBearer authenticates every request with the current token of ts.
// The token is asked for on each request, so a session that changes its
// token is picked up without rebuilding the client.
func WithBearer(ts oauth2.TokenSource) option.ClientOption {
	return option.WithHTTPClient(&http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   http.DefaultTransport,
		},
	})
}

// ReadSheet returns the raw cell values of range_. Values are read
// unformatted, so a price column shown as currency still reads as 3.5.
func (c *Client) ReadSheet(ctx context.Context, range_ string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, range_).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if resp.Values == nil {
		return [][]interface{}{}, nil
	}
	return resp.Values, nil
}

func (c *Client) AppendRows(ctx context.Context, range_ string, rows [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: rows,
	}

	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, range_, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	return nil
}

func (c *Client) UpdateRange(ctx context.Context, range_ string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, range_, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update range: %w", err)
	}

	return nil
}

// SheetID looks up the numeric id of the sheet titled title.
func (c *Client) SheetID(ctx context.Context, title string) (int64, error) {
	meta, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", title)
}

// DeleteRows removes the zero-based, end-exclusive row span [start, end).
func (c *Client) DeleteRows(ctx context.Context, sheetID, start, end int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:         sheetID,
						Dimension:       "ROWS",
						StartIndex:      start,
						EndIndex:        end,
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			},
		},
	}

	_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}

	return nil
}
