package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
)

const (
	colName = iota
	colDate
	colClockIn
	colClockOut
	colTotalHours
	colOvertime
	colUndertime
	colEmployeeID
	attendanceWidth
)

var attendanceHeader = []string{
	"Name of Employee",
	"Date",
	"Clock In",
	"Clock Out",
	"Total Hours",
	"Overtime Hours",
	"Undertime Hours",
	"Employee ID",
}

type attendanceRepository struct {
	book *Book
}

func NewAttendanceRepository(book *Book) attendance.AttendanceRepository {
	return &attendanceRepository{book: book}
}

// EnsureSegment implements attendance.AttendanceRepository.
func (a *attendanceRepository) EnsureSegment(ctx context.Context, year int) error {
	return a.book.Ensure(ctx, YearSegment(year), attendanceHeader)
}

// Find implements attendance.AttendanceRepository.
func (a *attendanceRepository) Find(ctx context.Context, employee attendance.Employee, date civil.Date) (*attendance.Attendance, error) {
	_, record, err := a.find(ctx, employee, date)
	return record, err
}

// Append implements attendance.AttendanceRepository.
func (a *attendanceRepository) Append(ctx context.Context, record attendance.Attendance) error {
	title := YearSegment(record.Date.Year)
	last := spreadsheet.ColumnLetter(attendanceWidth - 1)
	if err := a.book.client.Append(ctx, spreadsheet.Range(title, "A:"+last), [][]string{formatAttendance(record)}); err != nil {
		return fmt.Errorf("failed to append attendance: %w", err)
	}
	return nil
}

// UpdateFields implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateFields(ctx context.Context, employee attendance.Employee, date civil.Date, patch attendance.Patch) error {
	rowNum, record, err := a.find(ctx, employee, date)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s on %s", attendance.ErrRecordNotFound, employee, clock.FormatDate(date))
	}

	patch.Apply(record)
	last := spreadsheet.ColumnLetter(attendanceWidth - 1)
	rng := spreadsheet.Row(YearSegment(date.Year), rowNum, "A", last)
	if err := a.book.client.Update(ctx, rng, [][]string{formatAttendance(*record)}); err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	return nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, r clock.Range) ([]attendance.Attendance, error) {
	return a.list(ctx, r, func(attendance.Attendance) bool { return true })
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employee attendance.Employee, r clock.Range) ([]attendance.Attendance, error) {
	return a.list(ctx, r, func(rec attendance.Attendance) bool {
		return employee.Matches(rec.EmployeeID, rec.EmployeeName)
	})
}

func (a *attendanceRepository) list(ctx context.Context, r clock.Range, keep func(attendance.Attendance) bool) ([]attendance.Attendance, error) {
	years := r.Years()
	titles := make([]string, 0, len(years))
	for _, year := range years {
		titles = append(titles, YearSegment(year))
	}
	present, err := a.book.Present(ctx, titles)
	if err != nil {
		return nil, err
	}

	var out []attendance.Attendance
	for _, title := range titles {
		if !present[title] {
			continue
		}
		rows, _, err := a.book.read(ctx, title, attendanceWidth)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec, ok := parseAttendance(row)
			if !ok || !r.Contains(rec.Date) || !keep(rec) {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// find returns the first matching row. Later matches are a data defect and
// are only logged.
func (a *attendanceRepository) find(ctx context.Context, employee attendance.Employee, date civil.Date) (int, *attendance.Attendance, error) {
	rows, nums, err := a.book.rows(ctx, YearSegment(date.Year), attendanceWidth)
	if err != nil {
		return 0, nil, err
	}

	var (
		found  *attendance.Attendance
		rowNum int
	)
	for i, row := range rows {
		rec, ok := parseAttendance(row)
		if !ok || rec.Date != date || !employee.Matches(rec.EmployeeID, rec.EmployeeName) {
			continue
		}
		if found != nil {
			slog.Warn("Duplicate attendance rows",
				"error", attendance.ErrDuplicateRecord,
				"employee", employee.String(),
				"date", clock.FormatDate(date),
				"used_row", rowNum,
				"duplicate_row", nums[i],
			)
			continue
		}
		found = &rec
		rowNum = nums[i]
	}
	return rowNum, found, nil
}

func parseAttendance(row []string) (attendance.Attendance, bool) {
	date, err := clock.ParseDate(cell(row, colDate))
	if err != nil {
		return attendance.Attendance{}, false
	}

	rec := attendance.Attendance{
		EmployeeName:   strings.TrimSpace(cell(row, colName)),
		EmployeeID:     strings.TrimSpace(cell(row, colEmployeeID)),
		Date:           date,
		TotalHours:     cell(row, colTotalHours),
		OvertimeHours:  cell(row, colOvertime),
		UndertimeHours: cell(row, colUndertime),
	}
	rec.ClockIn = parseStoredTime(cell(row, colClockIn))
	rec.ClockOut = parseStoredTime(cell(row, colClockOut))
	return rec, true
}

func parseStoredTime(s string) *clock.TimeOfDay {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := clock.ParseTime(s)
	if err != nil {
		slog.Warn("Unreadable time cell", "value", s, "error", err)
		return nil
	}
	return &t
}

func formatAttendance(a attendance.Attendance) []string {
	row := make([]string, attendanceWidth)
	row[colName] = a.EmployeeName
	row[colDate] = clock.FormatDate(a.Date)
	if a.ClockIn != nil {
		row[colClockIn] = a.ClockIn.String()
	}
	if a.ClockOut != nil {
		row[colClockOut] = a.ClockOut.String()
	}
	row[colTotalHours] = a.TotalHours
	row[colOvertime] = a.OvertimeHours
	row[colUndertime] = a.UndertimeHours
	row[colEmployeeID] = a.EmployeeID
	return row
}
