package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/report"
	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	reportService     report.ReportService
	clock             clock.Source
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, reportService report.ReportService, src clock.Source) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		reportService:     reportService,
		clock:             src,
	}
}

func filterFromQuery(r *http.Request) attendance.AttendanceFilter {
	q := r.URL.Query()
	return attendance.AttendanceFilter{
		From:       q.Get("from"),
		To:         q.Get("to"),
		EmployeeID: q.Get("employee_id"),
	}
}

// List handles GET /attendance
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	rng, err := filter.Range(clock.Today(h.clock))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var records []attendance.Attendance
	if filter.EmployeeID != "" {
		records, err = h.attendanceService.History(r.Context(), attendance.Employee{ID: filter.EmployeeID}, rng)
	} else {
		records, err = h.attendanceService.View(r.Context(), rng)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, attendance.NewAttendanceResponses(records), &response.Meta{
		TotalItems: len(records),
		From:       clock.FormatDate(rng.From),
		To:         clock.FormatDate(rng.To),
	})
}

// Report handles GET /attendance/report
func (h *attendanceHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reportService.GenerateAttendanceReport(r.Context(), report.AttendanceReportRequest{AttendanceFilter: filterFromQuery(r)})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report.NewAttendanceReportResponse(rep))
}

// Export handles GET /attendance/export
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	req := report.AttendanceReportRequest{AttendanceFilter: filterFromQuery(r)}
	rng, err := req.Range(clock.Today(h.clock))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Render fully before writing headers so failures still get a JSON error.
	var buf bytes.Buffer
	if err := h.reportService.ExportAttendance(r.Context(), req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx", rng.From, rng.To)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write export", "error", err)
	}
}
