package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/keylock"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	locks *keylock.Locker
	clock clock.Source
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	locks *keylock.Locker,
	src clock.Source,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		locks:                locks,
		clock:                src,
	}
}

// LockKey is the serialization key for one employee's record on one date.
func LockKey(employee attendance.Employee, date civil.Date) string {
	return "attendance|" + employee.Key() + "|" + clock.FormatDate(date)
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.Attendance, error) {
	if err := req.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = civil.DateOf(now)
	}
	in, err := clock.ResolveTime(req.Time, now)
	if err != nil {
		return attendance.Attendance{}, err
	}

	unlock, err := s.locks.Lock(ctx, LockKey(req.Employee, date))
	if err != nil {
		return attendance.Attendance{}, err
	}
	defer unlock()

	if err := s.AttendanceRepository.EnsureSegment(ctx, date.Year); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to ensure segment %d: %w", date.Year, err)
	}

	existing, err := s.AttendanceRepository.Find(ctx, req.Employee, date)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to find attendance: %w", err)
	}

	if existing.State() != attendance.StateNoRecord {
		return *existing, &attendance.StateError{Err: attendance.ErrAlreadyClockedIn, Time: *existing.ClockIn}
	}

	if existing != nil {
		patch := identityPatch(*existing, req.Employee)
		patch.ClockIn = &in
		if err := s.AttendanceRepository.UpdateFields(ctx, req.Employee, date, patch); err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
		}
		patch.Apply(existing)
		return *existing, nil
	}

	record := attendance.Attendance{
		EmployeeID:   req.Employee.ID,
		EmployeeName: req.Employee.Name,
		Date:         date,
		ClockIn:      &in,
	}
	if err := s.AttendanceRepository.Append(ctx, record); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	slog.Info("Clocked in", "employee_id", req.Employee.ID, "date", clock.FormatDate(date), "time", in.String())
	return record, nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockRequest) (attendance.Attendance, error) {
	if err := req.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = civil.DateOf(now)
	}
	out, err := clock.ResolveTime(req.Time, now)
	if err != nil {
		return attendance.Attendance{}, err
	}

	unlock, err := s.locks.Lock(ctx, LockKey(req.Employee, date))
	if err != nil {
		return attendance.Attendance{}, err
	}
	defer unlock()

	existing, err := s.AttendanceRepository.Find(ctx, req.Employee, date)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to find attendance: %w", err)
	}

	switch existing.State() {
	case attendance.StateNoRecord:
		return attendance.Attendance{}, attendance.ErrNotClockedIn
	case attendance.StateClockedOut:
		return *existing, &attendance.StateError{Err: attendance.ErrAlreadyClockedOut, Time: *existing.ClockOut}
	}

	if out.Before(*existing.ClockIn) {
		return *existing, &attendance.StateError{Err: attendance.ErrClockOutBeforeClockIn, Time: *existing.ClockIn}
	}

	total := CalculateTotalHours(existing.ClockIn, &out)
	patch := identityPatch(*existing, req.Employee)
	patch.ClockOut = &out
	patch.TotalHours = &total
	if err := s.AttendanceRepository.UpdateFields(ctx, req.Employee, date, patch); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	patch.Apply(existing)

	slog.Info("Clocked out", "employee_id", req.Employee.ID, "date", clock.FormatDate(date), "time", out.String(), "total_hours", total)
	return *existing, nil
}

// View implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) View(ctx context.Context, r clock.Range) ([]attendance.Attendance, error) {
	records, err := s.AttendanceRepository.ListByDate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// History implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) History(ctx context.Context, employee attendance.Employee, r clock.Range) ([]attendance.Attendance, error) {
	records, err := s.AttendanceRepository.ListByEmployee(ctx, employee, r)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance history: %w", err)
	}
	return records, nil
}

// Edit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Edit(ctx context.Context, req attendance.EditRequest) (attendance.Attendance, error) {
	if err := req.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	in, err := clock.ParseTime(req.ClockIn)
	if err != nil {
		return attendance.Attendance{}, err
	}
	out, err := clock.ParseTime(req.ClockOut)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if out.Before(in) {
		return attendance.Attendance{}, &attendance.StateError{Err: attendance.ErrClockOutBeforeClockIn, Time: in}
	}
	total := CalculateTotalHours(&in, &out)

	unlock, err := s.locks.Lock(ctx, LockKey(req.Employee, req.Date))
	if err != nil {
		return attendance.Attendance{}, err
	}
	defer unlock()

	if err := s.AttendanceRepository.EnsureSegment(ctx, req.Date.Year); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to ensure segment %d: %w", req.Date.Year, err)
	}

	existing, err := s.AttendanceRepository.Find(ctx, req.Employee, req.Date)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to find attendance: %w", err)
	}

	if existing == nil {
		record := attendance.Attendance{
			EmployeeID:   req.Employee.ID,
			EmployeeName: req.Employee.Name,
			Date:         req.Date,
			ClockIn:      &in,
			ClockOut:     &out,
			TotalHours:   total,
		}
		if err := s.AttendanceRepository.Append(ctx, record); err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
		}
		return record, nil
	}

	patch := identityPatch(*existing, req.Employee)
	patch.ClockIn = &in
	patch.ClockOut = &out
	patch.TotalHours = &total
	if err := s.AttendanceRepository.UpdateFields(ctx, req.Employee, req.Date, patch); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	patch.Apply(existing)
	return *existing, nil
}

// SetAdjustment implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SetAdjustment(ctx context.Context, req attendance.AdjustmentRequest) (attendance.Attendance, error) {
	if err := req.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	hours, err := clock.NormalizeHours(req.Hours)
	if err != nil {
		return attendance.Attendance{}, err
	}

	unlock, err := s.locks.Lock(ctx, LockKey(req.Employee, req.Date))
	if err != nil {
		return attendance.Attendance{}, err
	}
	defer unlock()

	existing, err := s.AttendanceRepository.Find(ctx, req.Employee, req.Date)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to find attendance: %w", err)
	}
	if existing == nil {
		return attendance.Attendance{}, fmt.Errorf("%w: %s on %s", attendance.ErrRecordNotFound, req.Employee, clock.FormatDate(req.Date))
	}

	patch := attendance.AdjustmentPatch(req.Type, hours)
	if err := s.AttendanceRepository.UpdateFields(ctx, req.Employee, req.Date, patch); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to set %s: %w", req.Type, err)
	}
	patch.Apply(existing)

	slog.Info("Attendance adjusted", "employee", req.Employee.String(), "date", clock.FormatDate(req.Date), "type", req.Type, "hours", hours)
	return *existing, nil
}

// identityPatch refreshes the stored identity of a row: it backfills the ID
// on rows keyed by name only and keeps the display name current.
func identityPatch(existing attendance.Attendance, employee attendance.Employee) attendance.Patch {
	var patch attendance.Patch
	if employee.ID != "" && existing.EmployeeID != employee.ID {
		id := employee.ID
		patch.EmployeeID = &id
	}
	if employee.Name != "" && existing.EmployeeName != employee.Name {
		name := employee.Name
		patch.EmployeeName = &name
	}
	return patch
}
