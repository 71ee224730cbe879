package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSheetExists   = errors.New("sheet already exists")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrInvalidRange  = errors.New("invalid A1 range")
)

// Client is the subset of a spreadsheet API the repositories rely on.
// Cell values travel as plain strings.
type Client interface {
	ListSheets(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	Get(ctx context.Context, rng string) ([][]string, error)
	Update(ctx context.Context, rng string, rows [][]string) error
	Append(ctx context.Context, rng string, rows [][]string) error
	BatchUpdate(ctx context.Context, data []RangeValues) error
}

// RangeValues is one write inside a BatchUpdate.
type RangeValues struct {
	Range string
	Rows  [][]string
}

// Range builds a sheet-qualified A1 range, quoting the title.
func Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// Row builds an A1 range covering columns first..last of a single row.
func Row(sheet string, row int, first, last string) string {
	return Range(sheet, fmt.Sprintf("%s%d:%s%d", first, row, last, row))
}

// ColumnLetter converts a zero-based column index into A1 letters.
func ColumnLetter(idx int) string {
	var b []byte
	for idx >= 0 {
		b = append([]byte{byte('A' + idx%26)}, b...)
		idx = idx/26 - 1
	}
	return string(b)
}

type cellRef struct {
	col int // zero-based, -1 when absent
	row int // one-based, 0 when absent
}

type a1Range struct {
	sheet string
	start cellRef
	end   cellRef
}

func parseA1(rng string) (a1Range, error) {
	idx := strings.LastIndex(rng, "!")
	if idx <= 0 {
		return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}
	sheet := rng[:idx]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	cells := rng[idx+1:]
	startText, endText, hasEnd := strings.Cut(cells, ":")
	start, err := parseCell(startText)
	if err != nil {
		return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}
	end := start
	if hasEnd {
		end, err = parseCell(endText)
		if err != nil {
			return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
		}
	}
	return a1Range{sheet: sheet, start: start, end: end}, nil
}

func parseCell(s string) (cellRef, error) {
	ref := cellRef{col: -1}
	i := 0
	col := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i > 0 {
		ref.col = col - 1
	}
	if i < len(s) {
		row, err := strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return cellRef{}, ErrInvalidRange
		}
		ref.row = row
	}
	if ref.col < 0 && ref.row == 0 {
		return cellRef{}, ErrInvalidRange
	}
	return ref, nil
}
