package attendance

import (
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

const (
	lunchStart   = 12 * 60
	lunchEnd     = 13 * 60
	lunchMinutes = 60
	minutesInDay = 24 * 60
)

// CalculateTotalHours returns the worked duration between in and out as HH:MM.
// A clock-out earlier than the clock-in is an overnight shift and wraps past
// midnight. One hour of lunch is deducted for each 12:00-13:00 window the
// shift overlaps, the next day's included. Returns "" when either time is
// missing.
func CalculateTotalHours(in, out *clock.TimeOfDay) string {
	if in == nil || out == nil {
		return ""
	}

	start, end := in.Minutes(), out.Minutes()
	if end < start {
		end += minutesInDay
	}

	worked := end - start
	for _, day := range []int{0, minutesInDay} {
		if start < lunchEnd+day && end > lunchStart+day {
			worked -= lunchMinutes
		}
	}
	return clock.FormatHours(worked)
}
