package report

import (
	"context"
	"io"
)

// ReportService defines the interface for report generation
type ReportService interface {
	// GenerateAttendanceReport summarizes attendance per employee
	GenerateAttendanceReport(ctx context.Context, req AttendanceReportRequest) (AttendanceReport, error)

	// ExportAttendance writes the report as an XLSX workbook to w
	ExportAttendance(ctx context.Context, req AttendanceReportRequest, w io.Writer) error
}
