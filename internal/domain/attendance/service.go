package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn records the clock-in time. Fails with ErrAlreadyClockedIn when a
	// clock-in already exists for the date.
	ClockIn(ctx context.Context, req ClockRequest) (Attendance, error)

	// ClockOut records the clock-out time and computes total hours.
	ClockOut(ctx context.Context, req ClockRequest) (Attendance, error)

	// View lists all employees' records within r
	View(ctx context.Context, r clock.Range) ([]Attendance, error)

	// History lists one employee's records within r
	History(ctx context.Context, employee Employee, r clock.Range) ([]Attendance, error)

	// Edit overwrites both clock times (admin)
	Edit(ctx context.Context, req EditRequest) (Attendance, error)

	// SetAdjustment writes overtime or undertime hours onto an existing record
	SetAdjustment(ctx context.Context, req AdjustmentRequest) (Attendance, error)
}
