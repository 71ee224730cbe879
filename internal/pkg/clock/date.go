package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the textual date representation stored in every segment.
const DateLayout = "01/02/2006"

// MaxRangeDays bounds every range a caller may ask for.
const MaxRangeDays = 366

var (
	ErrInvalidDate  = errors.New("invalid date format")
	ErrInvalidRange = errors.New("invalid date range")
	ErrRangeTooLong = fmt.Errorf("%w: longer than %d days", ErrInvalidRange, MaxRangeDays)
)

// ParseDate reads MM/DD/YYYY. Single-digit month and day are accepted.
func ParseDate(text string) (civil.Date, error) {
	t, err := time.Parse("1/2/2006", strings.TrimSpace(text))
	if err != nil {
		return civil.Date{}, ErrInvalidDate
	}
	return civil.DateOf(t), nil
}

// FormatDate renders d as MM/DD/YYYY.
func FormatDate(d civil.Date) string {
	return d.In(time.UTC).Format(DateLayout)
}

// Today returns the calendar date of now.
func Today(src Source) civil.Date {
	return civil.DateOf(src.Now())
}

// Range is an inclusive span of calendar dates.
type Range struct {
	From civil.Date
	To   civil.Date
}

func SingleDay(d civil.Date) Range {
	return Range{From: d, To: d}
}

// Days returns the number of calendar days covered.
func (r Range) Days() int {
	return r.To.DaysSince(r.From) + 1
}

func (r Range) Contains(d civil.Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Years lists the calendar years the range touches, ascending.
func (r Range) Years() []int {
	years := make([]int, 0, r.To.Year-r.From.Year+1)
	for y := r.From.Year; y <= r.To.Year; y++ {
		years = append(years, y)
	}
	return years
}

func (r Range) String() string {
	if r.From == r.To {
		return FormatDate(r.From)
	}
	return fmt.Sprintf("%s - %s", FormatDate(r.From), FormatDate(r.To))
}

// ParseRange resolves a single date, an explicit "start-end" pair, or one of
// the named ranges relative to today. Weeks start on Monday. Blank text
// means today. Explicit pairs longer than MaxRangeDays fail with
// ErrRangeTooLong.
func ParseRange(text string, today civil.Date) (Range, error) {
	s := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	switch s {
	case "", "today":
		return SingleDay(today), nil
	case "yesterday":
		return SingleDay(today.AddDays(-1)), nil
	case "this week":
		monday := startOfWeek(today)
		return Range{From: monday, To: monday.AddDays(6)}, nil
	case "last week":
		monday := startOfWeek(today).AddDays(-7)
		return Range{From: monday, To: monday.AddDays(6)}, nil
	case "this month":
		return monthRange(today.Year, today.Month), nil
	case "last month":
		first := civil.Date{Year: today.Year, Month: today.Month, Day: 1}.AddDays(-1)
		return monthRange(first.Year, first.Month), nil
	}

	if start, end, ok := strings.Cut(s, "-"); ok {
		from, err := ParseDate(start)
		if err != nil {
			return Range{}, err
		}
		to, err := ParseDate(end)
		if err != nil {
			return Range{}, err
		}
		if to.Before(from) {
			return Range{}, ErrInvalidRange
		}
		r := Range{From: from, To: to}
		if r.Days() > MaxRangeDays {
			return Range{}, ErrRangeTooLong
		}
		return r, nil
	}

	d, err := ParseDate(s)
	if err != nil {
		return Range{}, err
	}
	return SingleDay(d), nil
}

func startOfWeek(d civil.Date) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func monthRange(year int, month time.Month) Range {
	first := civil.Date{Year: year, Month: month, Day: 1}
	next := civil.DateOf(first.In(time.UTC).AddDate(0, 1, 0))
	return Range{From: first, To: next.AddDays(-1)}
}
