package report

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/report"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet = "Attendance"
	summarySheet = "Summary"
)

var recordsHeader = []interface{}{
	"Name of Employee", "Date", "Clock In", "Clock Out",
	"Total Hours", "Overtime Hours", "Undertime Hours", "Employee ID",
}

var summaryHeader = []interface{}{
	"Name of Employee", "Employee ID", "Days Present", "Missing Clock-Outs",
	"Total Hours", "Overtime Hours", "Undertime Hours",
}

type ReportServiceImpl struct {
	attendanceService attendance.AttendanceService
	clock             clock.Source
}

func NewReportService(attendanceService attendance.AttendanceService, src clock.Source) report.ReportService {
	return &ReportServiceImpl{
		attendanceService: attendanceService,
		clock:             src,
	}
}

// GenerateAttendanceReport implements report.ReportService.
func (s *ReportServiceImpl) GenerateAttendanceReport(ctx context.Context, req report.AttendanceReportRequest) (report.AttendanceReport, error) {
	rng, err := req.Range(clock.Today(s.clock))
	if err != nil {
		return report.AttendanceReport{}, err
	}

	var records []attendance.Attendance
	if req.EmployeeID != "" {
		records, err = s.attendanceService.History(ctx, attendance.Employee{ID: req.EmployeeID}, rng)
	} else {
		records, err = s.attendanceService.View(ctx, rng)
	}
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to get attendance data: %w", err)
	}

	return report.AttendanceReport{
		Range:       rng,
		GeneratedAt: s.clock.Now(),
		Records:     records,
		Employees:   summarize(records),
	}, nil
}

// ExportAttendance implements report.ReportService.
func (s *ReportServiceImpl) ExportAttendance(ctx context.Context, req report.AttendanceReportRequest, w io.Writer) error {
	rep, err := s.GenerateAttendanceReport(ctx, req)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(rep)
	if err != nil {
		return fmt.Errorf("%w: %w", report.ErrReportGenerationFailed, err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(rep report.AttendanceReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	rows := make([][]interface{}, 0, len(rep.Records))
	for _, a := range rep.Records {
		rows = append(rows, []interface{}{
			a.EmployeeName, clock.FormatDate(a.Date), timeCell(a.ClockIn), timeCell(a.ClockOut),
			a.TotalHours, a.OvertimeHours, a.UndertimeHours, a.EmployeeID,
		})
	}
	if err := writeSheet(f, recordsSheet, recordsHeader, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, e := range rep.Employees {
		rows = append(rows, []interface{}{
			e.EmployeeName, e.EmployeeID, e.DaysPresent, e.MissingClockOuts,
			clock.FormatHours(e.TotalMinutes), clock.FormatHours(e.OvertimeMinutes), clock.FormatHours(e.UndertimeMinutes),
		})
	}
	if err := writeSheet(f, summarySheet, summaryHeader, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func timeCell(t *clock.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// summarize groups records per employee, ordered by name.
func summarize(records []attendance.Attendance) []report.EmployeeSummary {
	index := make(map[string]int)
	var out []report.EmployeeSummary

	for _, a := range records {
		key := attendance.Employee{ID: a.EmployeeID, Name: a.EmployeeName}.Key()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, report.EmployeeSummary{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName})
		}

		e := &out[i]
		if a.ClockIn != nil {
			e.DaysPresent++
			if a.ClockOut == nil {
				e.MissingClockOuts++
			}
		}
		e.TotalMinutes += minutes(a.TotalHours)
		e.OvertimeMinutes += minutes(a.OvertimeHours)
		e.UndertimeMinutes += minutes(a.UndertimeHours)
	}

	slices.SortStableFunc(out, func(a, b report.EmployeeSummary) int {
		return strings.Compare(strings.ToLower(a.EmployeeName), strings.ToLower(b.EmployeeName))
	})
	return out
}

// minutes reads an HH:MM cell. Blank or malformed cells count as zero.
func minutes(hhmm string) int {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0
	}
	return hours*60 + mins
}
