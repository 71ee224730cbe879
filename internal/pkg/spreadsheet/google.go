package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Values are written as RAW so dates, times and durations read back exactly
// as they were stored.
const valueInputOption = "RAW"

type GoogleClient struct {
	spreadsheetID string
	service       *sheets.Service
	policy        upstream.Policy
}

func NewGoogleClient(ctx context.Context, spreadsheetID string, creds *google.Credentials, policy upstream.Policy) (*GoogleClient, error) {
	service, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleClient{
		spreadsheetID: spreadsheetID,
		service:       service,
		policy:        policy,
	}, nil
}

func (g *GoogleClient) ListSheets(ctx context.Context) ([]string, error) {
	return upstream.Value(ctx, g.policy, "sheets.spreadsheets.get", func(ctx context.Context) ([]string, error) {
		resp, err := g.service.Spreadsheets.Get(g.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
		if err != nil {
			return nil, classify(err)
		}
		titles := make([]string, 0, len(resp.Sheets))
		for _, s := range resp.Sheets {
			if s.Properties != nil {
				titles = append(titles, s.Properties.Title)
			}
		}
		return titles, nil
	})
}

func (g *GoogleClient) AddSheet(ctx context.Context, title string) error {
	return upstream.Call(ctx, g.policy, "sheets.spreadsheets.batchUpdate", func(ctx context.Context) error {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			}},
		}
		_, err := g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		return classify(err)
	})
}

func (g *GoogleClient) Get(ctx context.Context, rng string) ([][]string, error) {
	return upstream.Value(ctx, g.policy, "sheets.values.get", func(ctx context.Context) ([][]string, error) {
		resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, classify(err)
		}
		rows := make([][]string, len(resp.Values))
		for i, values := range resp.Values {
			row := make([]string, len(values))
			for j, v := range values {
				row[j] = fmt.Sprint(v)
			}
			rows[i] = row
		}
		return rows, nil
	})
}

func (g *GoogleClient) Update(ctx context.Context, rng string, rows [][]string) error {
	return upstream.Call(ctx, g.policy, "sheets.values.update", func(ctx context.Context) error {
		_, err := g.service.Spreadsheets.Values.Update(g.spreadsheetID, rng, toValueRange(rng, rows)).
			ValueInputOption(valueInputOption).
			Context(ctx).
			Do()
		return classify(err)
	})
}

// Append is not idempotent. Only rate-limited attempts are retried.
func (g *GoogleClient) Append(ctx context.Context, rng string, rows [][]string) error {
	return upstream.Call(ctx, g.policy, "sheets.values.append", func(ctx context.Context) error {
		_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, rng, toValueRange(rng, rows)).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		var gerr *googleapi.Error
		if err != nil && (!errors.As(err, &gerr) || gerr.Code != http.StatusTooManyRequests) {
			return upstream.Permanent(err)
		}
		return err
	})
}

func (g *GoogleClient) BatchUpdate(ctx context.Context, data []RangeValues) error {
	if len(data) == 0 {
		return nil
	}
	return upstream.Call(ctx, g.policy, "sheets.values.batchUpdate", func(ctx context.Context) error {
		req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInputOption}
		for _, d := range data {
			req.Data = append(req.Data, toValueRange(d.Range, d.Rows))
		}
		_, err := g.service.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		return classify(err)
	})
}

func toValueRange(rng string, rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return &sheets.ValueRange{Range: rng, Values: values}
}

// classify marks client-side API failures as permanent. Rate limiting, server
// errors and transport failures stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError {
			return err
		}
		return upstream.Permanent(err)
	}
	return err
}
