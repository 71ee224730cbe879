package command

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

type column struct {
	title string
	width int
	value func(a attendance.Attendance) string
}

var (
	nameColumn  = column{"Name", 20, func(a attendance.Attendance) string { return a.EmployeeName }}
	dateColumn  = column{"Date", 10, func(a attendance.Attendance) string { return clock.FormatDate(a.Date) }}
	inColumn    = column{"In", 8, func(a attendance.Attendance) string { return timeText(a.ClockIn) }}
	outColumn   = column{"Out", 8, func(a attendance.Attendance) string { return timeText(a.ClockOut) }}
	totalColumn = column{"Total", 5, func(a attendance.Attendance) string { return a.TotalHours }}
	otColumn    = column{"OT", 5, func(a attendance.Attendance) string { return a.OvertimeHours }}
	utColumn    = column{"UT", 5, func(a attendance.Attendance) string { return a.UndertimeHours }}
)

// personalTable lists one employee's records by date.
func personalTable(records []attendance.Attendance) string {
	return renderTable(records, []column{dateColumn, inColumn, outColumn, totalColumn, otColumn, utColumn})
}

// teamTable lists everyone's records. The date column is only shown for
// multi-day ranges.
func teamTable(records []attendance.Attendance, multiDay bool) string {
	cols := []column{nameColumn, inColumn, outColumn, totalColumn, otColumn, utColumn}
	if multiDay {
		cols = append([]column{nameColumn, dateColumn}, cols[1:]...)
	}
	return renderTable(records, cols)
}

func renderTable(records []attendance.Attendance, cols []column) string {
	var b strings.Builder
	b.WriteString("```\n")

	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = pad(c.title, c.width)
	}
	writeRow(&b, cells)
	for i, c := range cols {
		cells[i] = strings.Repeat("-", c.width)
	}
	writeRow(&b, cells)

	for _, rec := range records {
		for i, c := range cols {
			cells[i] = pad(c.value(rec), c.width)
		}
		writeRow(&b, cells)
	}

	b.WriteString("```")
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, " | "), " "))
	b.WriteByte('\n')
}

// pad left-aligns s in width runes, truncating with "~" when it does not fit.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "~"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func timeText(t *clock.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// pendingList renders one line per request, ending with its ID.
func pendingList(reqs []request.Request) string {
	var b strings.Builder
	for _, r := range reqs {
		fmt.Fprintf(&b, "• *%s* %s on %s, %s hours", capitalize(string(r.Type)), mention(r.Employee()), clock.FormatDate(r.Date), r.Hours)
		if r.Reason != "" {
			fmt.Fprintf(&b, " (%s)", r.Reason)
		}
		fmt.Fprintf(&b, " `%s`\n", r.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
