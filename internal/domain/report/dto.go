package report

import (
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// ========================================
// ATTENDANCE REPORT
// ========================================

type AttendanceReportRequest struct {
	attendance.AttendanceFilter
}

type AttendanceReport struct {
	Range       clock.Range
	GeneratedAt time.Time
	Records     []attendance.Attendance
	Employees   []EmployeeSummary
}

// EmployeeSummary totals one employee's records. Minute fields skip cells
// that do not parse as hours.
type EmployeeSummary struct {
	EmployeeID       string
	EmployeeName     string
	DaysPresent      int
	MissingClockOuts int
	TotalMinutes     int
	OvertimeMinutes  int
	UndertimeMinutes int
}

type AttendanceReportResponse struct {
	PeriodStart string                    `json:"period_start"`
	PeriodEnd   string                    `json:"period_end"`
	GeneratedAt string                    `json:"generated_at"`
	Employees   []EmployeeSummaryResponse `json:"employees"`
}

type EmployeeSummaryResponse struct {
	EmployeeID       string `json:"employee_id,omitempty"`
	EmployeeName     string `json:"employee_name"`
	DaysPresent      int    `json:"days_present"`
	MissingClockOuts int    `json:"missing_clock_outs"`
	TotalHours       string `json:"total_hours"`
	OvertimeHours    string `json:"overtime_hours"`
	UndertimeHours   string `json:"undertime_hours"`
}

func NewAttendanceReportResponse(r AttendanceReport) AttendanceReportResponse {
	resp := AttendanceReportResponse{
		PeriodStart: clock.FormatDate(r.Range.From),
		PeriodEnd:   clock.FormatDate(r.Range.To),
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		Employees:   make([]EmployeeSummaryResponse, 0, len(r.Employees)),
	}
	for _, e := range r.Employees {
		resp.Employees = append(resp.Employees, EmployeeSummaryResponse{
			EmployeeID:       e.EmployeeID,
			EmployeeName:     e.EmployeeName,
			DaysPresent:      e.DaysPresent,
			MissingClockOuts: e.MissingClockOuts,
			TotalHours:       clock.FormatHours(e.TotalMinutes),
			OvertimeHours:    clock.FormatHours(e.OvertimeMinutes),
			UndertimeHours:   clock.FormatHours(e.UndertimeMinutes),
		})
	}
	return resp
}
