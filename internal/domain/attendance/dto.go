package attendance

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// ClockRequest is used for both clock-in and clock-out. A zero Date means
// today and a blank Time means now.
type ClockRequest struct {
	Employee Employee
	Date     civil.Date
	Time     string
}

func (r *ClockRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Employee.ID) && validator.IsEmpty(r.Employee.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee",
			Message: "employee is required",
		})
	}

	if !r.Date.IsZero() && !r.Date.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is not a valid calendar date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EditRequest struct {
	Employee Employee
	Date     civil.Date
	ClockIn  string
	ClockOut string
}

func (r *EditRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Employee.ID) && validator.IsEmpty(r.Employee.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee",
			Message: "employee is required",
		})
	}

	if !r.Date.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	}

	if validator.IsEmpty(r.ClockIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in",
			Message: "clock_in is required",
		})
	}

	if validator.IsEmpty(r.ClockOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_out",
			Message: "clock_out is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AdjustmentRequest sets overtime or undertime hours directly. Hours must
// already be normalized to HH:MM.
type AdjustmentRequest struct {
	Employee Employee
	Date     civil.Date
	Type     AdjustmentType
	Hours    string
}

func (r *AdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Employee.ID) && validator.IsEmpty(r.Employee.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee",
			Message: "employee is required",
		})
	}

	if !r.Date.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	}

	if !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: ErrInvalidAdjustmentType.Error(),
		})
	}

	if validator.IsEmpty(r.Hours) {
		errs = append(errs, validator.ValidationError{
			Field:   "hours",
			Message: "hours is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AttendanceFilter is the admin API query. Dates are MM/DD/YYYY.
type AttendanceFilter struct {
	From       string `json:"from"`
	To         string `json:"to"`
	EmployeeID string `json:"employee_id"`
}

// Range validates the filter and resolves it. A missing bound defaults to
// the other one, and both missing means today.
func (f AttendanceFilter) Range(today civil.Date) (clock.Range, error) {
	var errs validator.ValidationErrors
	r := clock.SingleDay(today)

	if !validator.IsEmpty(f.From) {
		d, err := clock.ParseDate(f.From)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be MM/DD/YYYY"})
		}
		r.From, r.To = d, d
	}
	if !validator.IsEmpty(f.To) {
		d, err := clock.ParseDate(f.To)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be MM/DD/YYYY"})
		}
		r.To = d
		if validator.IsEmpty(f.From) {
			r.From = d
		}
	}
	if len(errs) > 0 {
		return clock.Range{}, errs
	}
	if r.To.Before(r.From) {
		return clock.Range{}, validator.ValidationErrors{{Field: "to", Message: "to must not be before from"}}
	}
	if r.Days() > clock.MaxRangeDays {
		return clock.Range{}, validator.ValidationErrors{{Field: "to", Message: fmt.Sprintf("range must not exceed %d days", clock.MaxRangeDays)}}
	}
	return r, nil
}

type AttendanceResponse struct {
	EmployeeID     string  `json:"employee_id,omitempty"`
	EmployeeName   string  `json:"employee_name"`
	Date           string  `json:"date"`
	ClockIn        *string `json:"clock_in"`
	ClockOut       *string `json:"clock_out"`
	TotalHours     string  `json:"total_hours,omitempty"`
	OvertimeHours  string  `json:"overtime_hours,omitempty"`
	UndertimeHours string  `json:"undertime_hours,omitempty"`
}

func NewAttendanceResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		EmployeeID:     a.EmployeeID,
		EmployeeName:   a.EmployeeName,
		Date:           clock.FormatDate(a.Date),
		ClockIn:        timeToString(a.ClockIn),
		ClockOut:       timeToString(a.ClockOut),
		TotalHours:     a.TotalHours,
		OvertimeHours:  a.OvertimeHours,
		UndertimeHours: a.UndertimeHours,
	}
}

func NewAttendanceResponses(records []Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(records))
	for _, a := range records {
		out = append(out, NewAttendanceResponse(a))
	}
	return out
}

func timeToString(t *clock.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
