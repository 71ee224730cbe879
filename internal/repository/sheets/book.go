package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
)

// Book is one spreadsheet shared by every repository in this package. It
// caches which segments (sheets) exist.
type Book struct {
	client spreadsheet.Client

	mu     sync.Mutex
	loaded bool
	known  map[string]bool
}

func NewBook(client spreadsheet.Client) *Book {
	return &Book{
		client: client,
		known:  make(map[string]bool),
	}
}

// YearSegment names the attendance segment for year.
func YearSegment(year int) string {
	return strconv.Itoa(year)
}

func (b *Book) refresh(ctx context.Context) error {
	titles, err := b.client.ListSheets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sheets: %w", err)
	}
	b.known = make(map[string]bool, len(titles))
	for _, t := range titles {
		b.known[t] = true
	}
	b.loaded = true
	return nil
}

// Exists reports whether the segment is present.
func (b *Book) Exists(ctx context.Context, title string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.known[title] {
		return true, nil
	}
	// A segment another process created since the last listing is picked up
	// on the next refresh.
	if err := b.refresh(ctx); err != nil {
		return false, err
	}
	return b.known[title], nil
}

// Present returns the subset of titles that exist. The sheet list is
// refreshed at most once per call.
func (b *Book) Present(ctx context.Context, titles []string) (map[string]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]bool, len(titles))
	refreshed := false
	for _, t := range titles {
		if !b.known[t] && !refreshed {
			if err := b.refresh(ctx); err != nil {
				return nil, err
			}
			refreshed = true
		}
		if b.known[t] {
			out[t] = true
		}
	}
	return out, nil
}

// Ensure creates the segment with header when it does not exist. The header
// of an existing segment is never rewritten.
func (b *Book) Ensure(ctx context.Context, title string, header []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		if err := b.refresh(ctx); err != nil {
			return err
		}
	}
	if b.known[title] {
		return nil
	}

	if err := b.client.AddSheet(ctx, title); err != nil {
		if rerr := b.refresh(ctx); rerr == nil && b.known[title] {
			slog.Debug("Segment created concurrently", "segment", title)
			return nil
		}
		return fmt.Errorf("failed to add sheet %s: %w", title, err)
	}

	last := spreadsheet.ColumnLetter(len(header) - 1)
	if err := b.client.Update(ctx, spreadsheet.Row(title, 1, "A", last), [][]string{header}); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", title, err)
	}

	b.known[title] = true
	slog.Info("Segment created", "segment", title)
	return nil
}

// rows reads every data row of a segment, header excluded. A missing segment
// has no rows. The returned row numbers are 1-based sheet rows.
func (b *Book) rows(ctx context.Context, title string, width int) ([][]string, []int, error) {
	ok, err := b.Exists(ctx, title)
	if err != nil || !ok {
		return nil, nil, err
	}
	return b.read(ctx, title, width)
}

// read is rows for a segment already known to exist.
func (b *Book) read(ctx context.Context, title string, width int) ([][]string, []int, error) {
	last := spreadsheet.ColumnLetter(width - 1)
	values, err := b.client.Get(ctx, spreadsheet.Range(title, "A:"+last))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", title, err)
	}
	if len(values) <= 1 {
		return nil, nil, nil
	}

	rows := make([][]string, 0, len(values)-1)
	nums := make([]int, 0, len(values)-1)
	for i, v := range values[1:] {
		rows = append(rows, v)
		nums = append(nums, i+2)
	}
	return rows, nums, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
