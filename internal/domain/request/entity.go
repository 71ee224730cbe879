package request

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusApproved    Status = "APPROVED"
	StatusDenied      Status = "DENIED"
	StatusOverwritten Status = "OVERWRITTEN"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusOverwritten:
		return true
	}
	return false
}

// Request is an overtime or undertime claim awaiting, or past, a decision.
type Request struct {
	ID           string
	Type         attendance.AdjustmentType
	EmployeeID   string
	EmployeeName string
	Date         civil.Date
	Hours        string
	Reason       string
	Status       Status
	RequestTime  time.Time
	DecidedBy    string
	DecidedAt    *time.Time
	DenyReason   string
}

func (r Request) Employee() attendance.Employee {
	return attendance.Employee{ID: r.EmployeeID, Name: r.EmployeeName}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status     Status
	Type       attendance.AdjustmentType
	EmployeeID string
	From       civil.Date
	To         civil.Date
}

func (f Filter) Match(r Request) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.From.IsValid() && r.Date.Before(f.From) {
		return false
	}
	if f.To.IsValid() && r.Date.After(f.To) {
		return false
	}
	return true
}
