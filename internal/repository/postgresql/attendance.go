package postgresql

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type attendanceRepository struct {
	db       *database.DB
	segments sync.Map
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `employee_id, employee_name, date, clock_in, clock_out,
	total_hours, overtime_hours, undertime_hours`

// IDs are compared when both sides carry one, names otherwise.
const matchEmployee = `(CASE WHEN $1::text <> '' AND employee_id <> ''
	THEN employee_id = $1::text
	ELSE lower(employee_name) = lower($2::text) END)`

// EnsureSegment implements attendance.AttendanceRepository.
func (a *attendanceRepository) EnsureSegment(ctx context.Context, year int) error {
	if _, ok := a.segments.Load(year); ok {
		return nil
	}

	q := GetQuerier(ctx, a.db)
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS attendances_%d PARTITION OF attendances FOR VALUES FROM ('%d-01-01') TO ('%d-01-01')`,
		year, year, year+1,
	)
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create partition for %d: %w", year, err)
	}

	a.segments.Store(year, struct{}{})
	return nil
}

// Find implements attendance.AttendanceRepository.
func (a *attendanceRepository) Find(ctx context.Context, employee attendance.Employee, date civil.Date) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE ` + matchEmployee + ` AND date = $3
		ORDER BY seq
		LIMIT 1`

	rows, err := q.Query(ctx, query, employee.ID, employee.Name, toPgDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance: %w", err)
	}
	records, err := scanAttendances(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Append implements attendance.AttendanceRepository.
func (a *attendanceRepository) Append(ctx context.Context, record attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	key := attendance.Employee{ID: record.EmployeeID, Name: record.EmployeeName}.Key()
	query := `
		INSERT INTO attendances (employee_key, ` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		key,
		record.EmployeeID,
		record.EmployeeName,
		toPgDate(record.Date),
		toPgTime(record.ClockIn),
		toPgTime(record.ClockOut),
		record.TotalHours,
		record.OvertimeHours,
		record.UndertimeHours,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

// UpdateFields implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateFields(ctx context.Context, employee attendance.Employee, date civil.Date, patch attendance.Patch) error {
	q := GetQuerier(ctx, a.db)

	updates := make([]string, 0)
	args := []interface{}{employee.ID, employee.Name, toPgDate(date)}
	argIdx := 4

	set := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.EmployeeID != nil {
		set("employee_id", *patch.EmployeeID)
		set("employee_key", attendance.Employee{ID: *patch.EmployeeID, Name: employee.Name}.Key())
	}
	if patch.EmployeeName != nil {
		set("employee_name", *patch.EmployeeName)
	}
	if patch.ClockIn != nil {
		set("clock_in", toPgTime(patch.ClockIn))
	}
	if patch.ClockOut != nil {
		set("clock_out", toPgTime(patch.ClockOut))
	}
	if patch.TotalHours != nil {
		set("total_hours", *patch.TotalHours)
	}
	if patch.OvertimeHours != nil {
		set("overtime_hours", *patch.OvertimeHours)
	}
	if patch.UndertimeHours != nil {
		set("undertime_hours", *patch.UndertimeHours)
	}
	updates = append(updates, "updated_at = NOW()")

	query := `UPDATE attendances SET ` + strings.Join(updates, ", ") + `
		WHERE seq = (
			SELECT seq FROM attendances
			WHERE ` + matchEmployee + ` AND date = $3
			ORDER BY seq
			LIMIT 1
		) AND date = $3`

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s on %s", attendance.ErrRecordNotFound, employee, clock.FormatDate(date))
	}
	return nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, r clock.Range) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE date BETWEEN $1 AND $2
		ORDER BY seq`

	rows, err := q.Query(ctx, query, toPgDate(r.From), toPgDate(r.To))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return scanAttendances(rows)
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employee attendance.Employee, r clock.Range) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE ` + matchEmployee + ` AND date BETWEEN $3 AND $4
		ORDER BY seq`

	rows, err := q.Query(ctx, query, employee.ID, employee.Name, toPgDate(r.From), toPgDate(r.To))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance history: %w", err)
	}
	return scanAttendances(rows)
}

func scanAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		var (
			rec      attendance.Attendance
			date     time.Time
			clockIn  pgtype.Time
			clockOut pgtype.Time
		)
		if err := rows.Scan(
			&rec.EmployeeID, &rec.EmployeeName, &date, &clockIn, &clockOut,
			&rec.TotalHours, &rec.OvertimeHours, &rec.UndertimeHours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		rec.Date = civil.DateOf(date)
		rec.ClockIn = fromPgTime(clockIn)
		rec.ClockOut = fromPgTime(clockOut)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", err)
	}
	return out, nil
}

func toPgDate(d civil.Date) pgtype.Date {
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func toPgTime(t *clock.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) *clock.TimeOfDay {
	if !t.Valid {
		return nil
	}
	minutes := int(t.Microseconds / int64(time.Minute/time.Microsecond))
	tod, err := clock.FromMinutes(minutes)
	if err != nil {
		return nil
	}
	return &tod
}
