package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidHours = errors.New("invalid hours format")

// ParseHours accepts a positive decimal ("2", "1.5") or "H:MM" and returns
// whole minutes.
func ParseHours(text string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(text))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "hrs"), "h")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidHours
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		if !isDigits(h) || len(m) != 2 || !isDigits(m) {
			return 0, ErrInvalidHours
		}
		hours, _ := strconv.Atoi(h)
		minutes, _ := strconv.Atoi(m)
		if minutes > 59 {
			return 0, ErrInvalidHours
		}
		total := hours*60 + minutes
		if total <= 0 || total > 24*60 {
			return 0, ErrInvalidHours
		}
		return total, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v <= 0 || v > 24 {
		return 0, ErrInvalidHours
	}
	return int(math.Round(v * 60)), nil
}

// FormatHours renders minutes as zero-padded HH:MM. Negative input renders as 00:00.
func FormatHours(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeHours parses text and re-renders it as HH:MM.
func NormalizeHours(text string) (string, error) {
	m, err := ParseHours(text)
	if err != nil {
		return "", err
	}
	return FormatHours(m), nil
}
