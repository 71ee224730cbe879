package attendance

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// Attendance is one employee's record for one calendar date.
type Attendance struct {
	EmployeeID     string
	EmployeeName   string
	Date           civil.Date
	ClockIn        *clock.TimeOfDay
	ClockOut       *clock.TimeOfDay
	TotalHours     string
	OvertimeHours  string
	UndertimeHours string
}

type State string

const (
	StateNoRecord   State = "NO_RECORD"
	StateClockedIn  State = "CLOCKED_IN"
	StateClockedOut State = "CLOCKED_OUT"
)

// State derives the clock state of a record. A nil record has no state yet.
func (a *Attendance) State() State {
	switch {
	case a == nil || a.ClockIn == nil:
		return StateNoRecord
	case a.ClockOut == nil:
		return StateClockedIn
	default:
		return StateClockedOut
	}
}

// Employee identifies the owner of a record. ID is the stable Slack user ID;
// Name is the display name and may change over time.
type Employee struct {
	ID   string
	Name string
}

// Matches reports whether a stored row belongs to e. IDs win when both sides
// carry one; rows written before IDs existed fall back to the name.
func (e Employee) Matches(id, name string) bool {
	if e.ID != "" && id != "" {
		return e.ID == id
	}
	return strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(name))
}

// Key is the lock and storage key for e.
func (e Employee) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return strings.ToLower(strings.TrimSpace(e.Name))
}

func (e Employee) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

type AdjustmentType string

const (
	AdjustmentOvertime  AdjustmentType = "overtime"
	AdjustmentUndertime AdjustmentType = "undertime"
)

func (t AdjustmentType) Valid() bool {
	return t == AdjustmentOvertime || t == AdjustmentUndertime
}

// Patch lists the fields UpdateFields writes. Nil fields are left untouched.
type Patch struct {
	EmployeeID     *string
	EmployeeName   *string
	ClockIn        *clock.TimeOfDay
	ClockOut       *clock.TimeOfDay
	TotalHours     *string
	OvertimeHours  *string
	UndertimeHours *string
}

// Apply copies the set fields of p onto a.
func (p Patch) Apply(a *Attendance) {
	if p.EmployeeID != nil {
		a.EmployeeID = *p.EmployeeID
	}
	if p.EmployeeName != nil {
		a.EmployeeName = *p.EmployeeName
	}
	if p.ClockIn != nil {
		in := *p.ClockIn
		a.ClockIn = &in
	}
	if p.ClockOut != nil {
		out := *p.ClockOut
		a.ClockOut = &out
	}
	if p.TotalHours != nil {
		a.TotalHours = *p.TotalHours
	}
	if p.OvertimeHours != nil {
		a.OvertimeHours = *p.OvertimeHours
	}
	if p.UndertimeHours != nil {
		a.UndertimeHours = *p.UndertimeHours
	}
}

// AdjustmentPatch sets the column that belongs to t.
func AdjustmentPatch(t AdjustmentType, hours string) Patch {
	if t == AdjustmentUndertime {
		return Patch{UndertimeHours: &hours}
	}
	return Patch{OvertimeHours: &hours}
}
