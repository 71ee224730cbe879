package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type requestRepository struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) request.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id::text, type, employee_id, employee_name, date, hours, reason,
	status, request_time, decided_by, decided_at, deny_reason`

// Create implements request.RequestRepository.
func (r *requestRepository) Create(ctx context.Context, req request.Request) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_requests (id, type, employee_id, employee_name, date, hours, reason,
			status, request_time, decided_by, decided_at, deny_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := q.Exec(ctx, query,
		req.ID,
		string(req.Type),
		req.EmployeeID,
		req.EmployeeName,
		toPgDate(req.Date),
		req.Hours,
		req.Reason,
		string(req.Status),
		req.RequestTime,
		req.DecidedBy,
		req.DecidedAt,
		req.DenyReason,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// CreateSuperseding implements request.RequestRepository in one transaction.
// Older rows are updated first to satisfy attendance_requests_one_pending; a
// failed insert rolls them back.
func (r *requestRepository) CreateSuperseding(ctx context.Context, req request.Request, superseded []request.Request) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		if err := r.UpdateStatuses(ctx, superseded); err != nil {
			return err
		}
		return r.Create(ctx, req)
	})
}

// GetByID implements request.RequestRepository.
func (r *requestRepository) GetByID(ctx context.Context, id string) (request.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return request.Request{}, request.ErrRequestNotFound
	}

	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + requestColumns + ` FROM attendance_requests WHERE id = $1`

	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, request.ErrRequestNotFound
		}
		return request.Request{}, fmt.Errorf("failed to get request by id: %w", err)
	}
	return req, nil
}

// FindPending implements request.RequestRepository.
func (r *requestRepository) FindPending(ctx context.Context, kind attendance.AdjustmentType, employee attendance.Employee, date civil.Date) ([]request.Request, error) {
	return r.List(ctx, request.Filter{
		Status:     request.StatusPending,
		Type:       kind,
		EmployeeID: employee.ID,
		From:       date,
		To:         date,
	})
}

// UpdateStatuses implements request.RequestRepository. All rows are written
// in one transaction.
func (r *requestRepository) UpdateStatuses(ctx context.Context, reqs []request.Request) error {
	if len(reqs) == 0 {
		return nil
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		query := `
			UPDATE attendance_requests
			SET status = $2, decided_by = $3, decided_at = $4, deny_reason = $5
			WHERE id = $1
		`
		for _, req := range reqs {
			if _, err := uuid.Parse(req.ID); err != nil {
				return fmt.Errorf("%w: %s", request.ErrRequestNotFound, req.ID)
			}
			tag, err := q.Exec(ctx, query, req.ID, string(req.Status), req.DecidedBy, req.DecidedAt, req.DenyReason)
			if err != nil {
				return fmt.Errorf("failed to update request %s: %w", req.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", request.ErrRequestNotFound, req.ID)
			}
		}
		return nil
	})
}

// List implements request.RequestRepository.
func (r *requestRepository) List(ctx context.Context, filter request.Filter) ([]request.Request, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Type != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.EmployeeID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, filter.EmployeeID)
		argIdx++
	}
	if filter.From.IsValid() {
		whereClauses = append(whereClauses, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, toPgDate(filter.From))
		argIdx++
	}
	if filter.To.IsValid() {
		whereClauses = append(whereClauses, fmt.Sprintf("date <= $%d", argIdx))
		args = append(args, toPgDate(filter.To))
		argIdx++
	}

	query := `SELECT ` + requestColumns + ` FROM attendance_requests`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY request_time, id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read request rows: %w", err)
	}
	return out, nil
}

func scanRequest(row pgx.Row) (request.Request, error) {
	var (
		req       request.Request
		kind      string
		status    string
		date      time.Time
		decidedAt *time.Time
	)
	err := row.Scan(
		&req.ID, &kind, &req.EmployeeID, &req.EmployeeName, &date, &req.Hours, &req.Reason,
		&status, &req.RequestTime, &req.DecidedBy, &decidedAt, &req.DenyReason,
	)
	if err != nil {
		return request.Request{}, err
	}
	req.Type = attendance.AdjustmentType(kind)
	req.Status = request.Status(status)
	req.Date = civil.DateOf(date)
	req.DecidedAt = decidedAt
	return req, nil
}
