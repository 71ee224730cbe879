package spreadsheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryClient keeps sheets in process memory. It mirrors how the Sheets API
// reports values: trailing empty cells and rows are trimmed on read.
type MemoryClient struct {
	mu     sync.RWMutex
	order  []string
	sheets map[string][][]string
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{sheets: make(map[string][][]string)}
}

func (m *MemoryClient) ListSheets(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}

func (m *MemoryClient) AddSheet(ctx context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sheets[title]; ok {
		return fmt.Errorf("%w: %s", ErrSheetExists, title)
	}
	m.sheets[title] = nil
	m.order = append(m.order, title)
	return nil
}

func (m *MemoryClient) Get(ctx context.Context, rng string) ([][]string, error) {
	r, err := parseA1(rng)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.sheets[r.sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, r.sheet)
	}

	firstRow, lastRow := 1, len(data)
	if r.start.row > 0 {
		firstRow = r.start.row
	}
	if r.end.row > 0 && r.end.row < lastRow {
		lastRow = r.end.row
	}
	firstCol, lastCol := 0, -1
	if r.start.col >= 0 {
		firstCol = r.start.col
	}
	if r.end.col >= 0 {
		lastCol = r.end.col
	}

	var out [][]string
	for i := firstRow; i <= lastRow; i++ {
		src := data[i-1]
		var row []string
		for c := firstCol; c < len(src) && (lastCol < 0 || c <= lastCol); c++ {
			row = append(row, src[c])
		}
		out = append(out, trimRow(row))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *MemoryClient) Update(ctx context.Context, rng string, rows [][]string) error {
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(r, rows)
}

func (m *MemoryClient) Append(ctx context.Context, rng string, rows [][]string) error {
	r, err := parseA1(rng)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sheets[r.sheet]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, r.sheet)
	}
	last := len(data)
	for last > 0 && len(trimRow(data[last-1])) == 0 {
		last--
	}
	r.start.row = last + 1
	return m.write(r, rows)
}

func (m *MemoryClient) BatchUpdate(ctx context.Context, data []RangeValues) error {
	parsed := make([]a1Range, len(data))
	for i, d := range data {
		r, err := parseA1(d.Range)
		if err != nil {
			return err
		}
		parsed[i] = r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range data {
		if err := m.write(parsed[i], d.Rows); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryClient) write(r a1Range, rows [][]string) error {
	data, ok := m.sheets[r.sheet]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, r.sheet)
	}
	startRow := r.start.row
	if startRow == 0 {
		startRow = 1
	}
	startCol := r.start.col
	if startCol < 0 {
		startCol = 0
	}

	for i, values := range rows {
		idx := startRow - 1 + i
		for len(data) <= idx {
			data = append(data, nil)
		}
		row := data[idx]
		for len(row) < startCol+len(values) {
			row = append(row, "")
		}
		copy(row[startCol:], values)
		data[idx] = row
	}
	m.sheets[r.sheet] = data
	return nil
}

func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	if end == 0 {
		return []string{}
	}
	return append([]string(nil), row[:end]...)
}
