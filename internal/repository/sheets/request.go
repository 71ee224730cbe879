package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
)

// RequestsSegment holds overtime and undertime requests of every year.
const RequestsSegment = "Requests"

const (
	reqColType = iota
	reqColUserID
	reqColName
	reqColDate
	reqColHours
	reqColReason
	reqColStatus
	reqColRequestTime
	reqColRequestID
	reqColDecidedBy
	reqColDecidedAt
	reqColDenyReason
	requestWidth
)

var requestHeader = []string{
	"Type", "UserId", "Name", "Date", "Hours", "Reason", "Status", "RequestTime",
	"RequestId", "DecidedBy", "DecidedAt", "DenyReason",
}

type requestRepository struct {
	book *Book
}

func NewRequestRepository(book *Book) request.RequestRepository {
	return &requestRepository{book: book}
}

// Create implements request.RequestRepository.
func (r *requestRepository) Create(ctx context.Context, req request.Request) error {
	if err := r.book.Ensure(ctx, RequestsSegment, requestHeader); err != nil {
		return err
	}
	last := spreadsheet.ColumnLetter(requestWidth - 1)
	if err := r.book.client.Append(ctx, spreadsheet.Range(RequestsSegment, "A:"+last), [][]string{formatRequest(req)}); err != nil {
		return fmt.Errorf("failed to append request: %w", err)
	}
	return nil
}

// CreateSuperseding implements request.RequestRepository. The sheet has no
// transactions, so the new row is appended before older rows change.
func (r *requestRepository) CreateSuperseding(ctx context.Context, req request.Request, superseded []request.Request) error {
	if err := r.Create(ctx, req); err != nil {
		return err
	}
	return r.UpdateStatuses(ctx, superseded)
}

// GetByID implements request.RequestRepository.
func (r *requestRepository) GetByID(ctx context.Context, id string) (request.Request, error) {
	rows, _, err := r.book.rows(ctx, RequestsSegment, requestWidth)
	if err != nil {
		return request.Request{}, err
	}
	for _, row := range rows {
		if cell(row, reqColRequestID) != id {
			continue
		}
		if req, ok := parseRequest(row); ok {
			return req, nil
		}
	}
	return request.Request{}, request.ErrRequestNotFound
}

// FindPending implements request.RequestRepository.
func (r *requestRepository) FindPending(ctx context.Context, kind attendance.AdjustmentType, employee attendance.Employee, date civil.Date) ([]request.Request, error) {
	all, err := r.List(ctx, request.Filter{Status: request.StatusPending, Type: kind, From: date, To: date})
	if err != nil {
		return nil, err
	}
	var out []request.Request
	for _, req := range all {
		if employee.Matches(req.EmployeeID, req.EmployeeName) {
			out = append(out, req)
		}
	}
	return out, nil
}

// UpdateStatuses implements request.RequestRepository.
func (r *requestRepository) UpdateStatuses(ctx context.Context, reqs []request.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	rows, nums, err := r.book.rows(ctx, RequestsSegment, requestWidth)
	if err != nil {
		return err
	}
	rowByID := make(map[string]int, len(rows))
	for i, row := range rows {
		if id := cell(row, reqColRequestID); id != "" {
			if _, seen := rowByID[id]; !seen {
				rowByID[id] = nums[i]
			}
		}
	}

	last := spreadsheet.ColumnLetter(requestWidth - 1)
	data := make([]spreadsheet.RangeValues, 0, len(reqs))
	for _, req := range reqs {
		n, ok := rowByID[req.ID]
		if !ok {
			return fmt.Errorf("%w: %s", request.ErrRequestNotFound, req.ID)
		}
		data = append(data, spreadsheet.RangeValues{
			Range: spreadsheet.Row(RequestsSegment, n, "A", last),
			Rows:  [][]string{formatRequest(req)},
		})
	}
	if err := r.book.client.BatchUpdate(ctx, data); err != nil {
		return fmt.Errorf("failed to update request statuses: %w", err)
	}
	return nil
}

// List implements request.RequestRepository.
func (r *requestRepository) List(ctx context.Context, filter request.Filter) ([]request.Request, error) {
	rows, _, err := r.book.rows(ctx, RequestsSegment, requestWidth)
	if err != nil {
		return nil, err
	}
	var out []request.Request
	for _, row := range rows {
		req, ok := parseRequest(row)
		if ok && filter.Match(req) {
			out = append(out, req)
		}
	}
	return out, nil
}

func parseRequest(row []string) (request.Request, bool) {
	date, err := clock.ParseDate(cell(row, reqColDate))
	if err != nil {
		return request.Request{}, false
	}
	req := request.Request{
		ID:           cell(row, reqColRequestID),
		Type:         attendance.AdjustmentType(strings.ToLower(strings.TrimSpace(cell(row, reqColType)))),
		EmployeeID:   cell(row, reqColUserID),
		EmployeeName: cell(row, reqColName),
		Date:         date,
		Hours:        cell(row, reqColHours),
		Reason:       cell(row, reqColReason),
		Status:       request.Status(strings.ToUpper(strings.TrimSpace(cell(row, reqColStatus)))),
		DecidedBy:    cell(row, reqColDecidedBy),
		DenyReason:   cell(row, reqColDenyReason),
	}
	if t, err := time.Parse(time.RFC3339, cell(row, reqColRequestTime)); err == nil {
		req.RequestTime = t
	}
	if t, err := time.Parse(time.RFC3339, cell(row, reqColDecidedAt)); err == nil {
		req.DecidedAt = &t
	}
	return req, true
}

func formatRequest(req request.Request) []string {
	row := make([]string, requestWidth)
	row[reqColType] = string(req.Type)
	row[reqColUserID] = req.EmployeeID
	row[reqColName] = req.EmployeeName
	row[reqColDate] = clock.FormatDate(req.Date)
	row[reqColHours] = req.Hours
	row[reqColReason] = req.Reason
	row[reqColStatus] = string(req.Status)
	if !req.RequestTime.IsZero() {
		row[reqColRequestTime] = req.RequestTime.Format(time.RFC3339)
	}
	row[reqColRequestID] = req.ID
	row[reqColDecidedBy] = req.DecidedBy
	if req.DecidedAt != nil {
		row[reqColDecidedAt] = req.DecidedAt.Format(time.RFC3339)
	}
	row[reqColDenyReason] = req.DenyReason
	return row
}
