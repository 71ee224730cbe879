package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("invalid time format")

// TimeOfDay is a wall-clock time with minute precision. Hour is 0-23.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Source supplies the current time in the service timezone.
type Source interface {
	Now() time.Time
}

// System is the production Source.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed always returns T. Used in tests and jobs that replay a day.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// Of returns the wall-clock time of t.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// FromMinutes builds a TimeOfDay from minutes past midnight.
func FromMinutes(m int) (TimeOfDay, error) {
	if m < 0 || m >= 24*60 {
		return TimeOfDay{}, ErrInvalidTime
	}
	return TimeOfDay{Hour: m / 60, Minute: m % 60}, nil
}

// Minutes returns minutes past midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Minutes() < u.Minutes()
}

// String renders the canonical "h:mm AM" form.
func (t TimeOfDay) String() string {
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	meridiem := "AM"
	if t.Hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, meridiem)
}

// ParseTime normalizes free-form time text. Accepted shapes include
// "7:30 AM", "7:30pm", "7:30 p.m.", "730 AM", "7:30", "19:30", "1930" and "7".
// Without a meridiem the hour is read on a 24-hour clock, so hours below 12
// are AM and the rest PM.
func ParseTime(text string) (TimeOfDay, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ".", "")

	meridiem := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if s == "" {
		return TimeOfDay{}, ErrInvalidTime
	}

	var hourText, minuteText string
	if h, m, ok := strings.Cut(s, ":"); ok {
		if len(h) < 1 || len(h) > 2 || len(m) != 2 {
			return TimeOfDay{}, ErrInvalidTime
		}
		hourText, minuteText = h, m
	} else {
		switch len(s) {
		case 1, 2:
			hourText, minuteText = s, "00"
		case 3, 4:
			hourText, minuteText = s[:len(s)-2], s[len(s)-2:]
		default:
			return TimeOfDay{}, ErrInvalidTime
		}
	}
	if !isDigits(hourText) || !isDigits(minuteText) {
		return TimeOfDay{}, ErrInvalidTime
	}

	hour, _ := strconv.Atoi(hourText)
	minute, _ := strconv.Atoi(minuteText)
	if minute > 59 {
		return TimeOfDay{}, ErrInvalidTime
	}

	switch meridiem {
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, ErrInvalidTime
		}
		if meridiem == "AM" && hour == 12 {
			hour = 0
		} else if meridiem == "PM" && hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return TimeOfDay{}, ErrInvalidTime
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ResolveTime parses text, or falls back to the wall-clock time of now when
// text is blank.
func ResolveTime(text string, now time.Time) (TimeOfDay, error) {
	if strings.TrimSpace(text) == "" {
		return Of(now), nil
	}
	return ParseTime(text)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
