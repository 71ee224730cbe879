package attendance

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// AttendanceRepository stores records in yearly segments.
type AttendanceRepository interface {
	// EnsureSegment creates the segment for year if it does not exist yet.
	// Calling it again for an existing segment is a no-op.
	EnsureSegment(ctx context.Context, year int) error

	// Find returns the record for employee on date, or nil when none exists.
	// When several rows match, the first one in insertion order is returned.
	Find(ctx context.Context, employee Employee, date civil.Date) (*Attendance, error)

	Append(ctx context.Context, record Attendance) error

	// UpdateFields writes patch onto the record for employee on date.
	// Returns ErrRecordNotFound when there is no such record.
	UpdateFields(ctx context.Context, employee Employee, date civil.Date, patch Patch) error

	// ListByDate returns every record within r in insertion order.
	ListByDate(ctx context.Context, r clock.Range) ([]Attendance, error)

	// ListByEmployee returns the employee's records within r in insertion order.
	ListByEmployee(ctx context.Context, employee Employee, r clock.Range) ([]Attendance, error)
}
