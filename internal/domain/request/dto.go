package request

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

// ========================================
// REQUEST DTOs
// ========================================

// SubmitRequest is an employee's overtime or undertime claim. Hours accepts
// a decimal ("1.5") or H:MM.
type SubmitRequest struct {
	Type     attendance.AdjustmentType
	Employee attendance.Employee
	Date     civil.Date
	Hours    string
	Reason   string
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: attendance.ErrInvalidAdjustmentType.Error(),
		})
	}

	if validator.IsEmpty(r.Employee.ID) {
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

	if _, err := clock.ParseHours(r.Hours); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "hours",
			Message: "hours must be a positive number like 2, 1.5 or 1:30",
		})
	}

	if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DecideRequest struct {
	ID         string `json:"-"`
	Approved   bool   `json:"-"`
	DeciderID  string `json:"-"`
	DenyReason string `json:"reason"`
}

func (r *DecideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "request id is required",
		})
	}

	if validator.IsEmpty(r.DeciderID) {
		errs = append(errs, validator.ValidationError{
			Field:   "decider",
			Message: "decider is required",
		})
	}

	if r.Approved && !validator.IsEmpty(r.DenyReason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is only accepted when denying",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RequestResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Date         string  `json:"date"`
	Hours        string  `json:"hours"`
	Reason       string  `json:"reason,omitempty"`
	Status       string  `json:"status"`
	RequestTime  string  `json:"request_time"`
	DecidedBy    string  `json:"decided_by,omitempty"`
	DecidedAt    *string `json:"decided_at,omitempty"`
	DenyReason   string  `json:"deny_reason,omitempty"`
}

func NewRequestResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		Type:         string(r.Type),
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Date:         clock.FormatDate(r.Date),
		Hours:        r.Hours,
		Reason:       r.Reason,
		Status:       string(r.Status),
		RequestTime:  r.RequestTime.Format(time.RFC3339),
		DecidedBy:    r.DecidedBy,
		DenyReason:   r.DenyReason,
	}
	if r.DecidedAt != nil {
		at := r.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &at
	}
	return resp
}

func NewRequestResponses(reqs []Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewRequestResponse(r))
	}
	return out
}

// ListRequest is the admin API query for requests. Dates are MM/DD/YYYY.
type ListRequest struct {
	Status     string `json:"status"`
	Type       string `json:"type"`
	EmployeeID string `json:"employee_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

func (r *ListRequest) Filter() (Filter, error) {
	var errs validator.ValidationErrors
	f := Filter{EmployeeID: r.EmployeeID}

	if !validator.IsEmpty(r.Status) {
		f.Status = Status(strings.ToUpper(r.Status))
		if !f.Status.Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of PENDING, APPROVED, DENIED, OVERWRITTEN",
			})
		}
	}

	if !validator.IsEmpty(r.Type) {
		f.Type = attendance.AdjustmentType(strings.ToLower(r.Type))
		if !f.Type.Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "type",
				Message: attendance.ErrInvalidAdjustmentType.Error(),
			})
		}
	}

	if !validator.IsEmpty(r.From) {
		d, err := clock.ParseDate(r.From)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be MM/DD/YYYY"})
		}
		f.From = d
	}
	if !validator.IsEmpty(r.To) {
		d, err := clock.ParseDate(r.To)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be MM/DD/YYYY"})
		}
		f.To = d
	}

	if len(errs) > 0 {
		return Filter{}, errs
	}
	return f, nil
}
