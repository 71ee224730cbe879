package attendance

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// Attendance domain errors
var (
	// Clock state errors
	ErrAlreadyClockedIn      = errors.New("already clocked in")
	ErrAlreadyClockedOut     = errors.New("already clocked out")
	ErrNotClockedIn          = errors.New("not clocked in")
	ErrClockOutBeforeClockIn = errors.New("clock-out time is before clock-in time")

	// General errors
	ErrRecordNotFound        = errors.New("attendance record not found")
	ErrInvalidAdjustmentType = errors.New("adjustment type must be overtime or undertime")
	ErrDuplicateRecord       = errors.New("duplicate attendance records")
)

// StateError carries the stored time that caused a state check to fail.
type StateError struct {
	Err  error
	Time clock.TimeOfDay
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s at %s", e.Err, e.Time)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
