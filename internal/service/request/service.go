package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
	"github.com/google/uuid"
)

type RequestServiceImpl struct {
	request.RequestRepository
	attendanceService attendance.AttendanceService
	identityService   identity.IdentityService
	notifier          notification.Service
	locks             *keylock.Locker
	clock             clock.Source
}

func NewRequestService(
	requestRepo request.RequestRepository,
	attendanceService attendance.AttendanceService,
	identityService identity.IdentityService,
	notifier notification.Service,
	locks *keylock.Locker,
	src clock.Source,
) request.RequestService {
	return &RequestServiceImpl{
		RequestRepository: requestRepo,
		attendanceService: attendanceService,
		identityService:   identityService,
		notifier:          notifier,
		locks:             locks,
		clock:             src,
	}
}

// LockKey serializes writes to the requests of one type, employee and date.
func LockKey(kind attendance.AdjustmentType, employee attendance.Employee, date string) string {
	return "request|" + string(kind) + "|" + employee.Key() + "|" + date
}

// Submit implements request.RequestService.
func (s *RequestServiceImpl) Submit(ctx context.Context, req request.SubmitRequest) (request.Request, error) {
	if err := req.Validate(); err != nil {
		return request.Request{}, err
	}

	hours, err := clock.NormalizeHours(req.Hours)
	if err != nil {
		return request.Request{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to generate request id: %w", err)
	}

	unlock, err := s.locks.Lock(ctx, LockKey(req.Type, req.Employee, clock.FormatDate(req.Date)))
	if err != nil {
		return request.Request{}, err
	}
	defer unlock()

	pending, err := s.RequestRepository.FindPending(ctx, req.Type, req.Employee, req.Date)
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to find pending requests: %w", err)
	}
	for i := range pending {
		pending[i].Status = request.StatusOverwritten
	}

	created := request.Request{
		ID:           id.String(),
		Type:         req.Type,
		EmployeeID:   req.Employee.ID,
		EmployeeName: req.Employee.Name,
		Date:         req.Date,
		Hours:        hours,
		Reason:       req.Reason,
		Status:       request.StatusPending,
		RequestTime:  s.clock.Now(),
	}
	if err := s.RequestRepository.CreateSuperseding(ctx, created, pending); err != nil {
		return request.Request{}, fmt.Errorf("failed to create request: %w", err)
	}
	if len(pending) > 0 {
		slog.Info("Pending requests overwritten", "type", req.Type, "employee_id", req.Employee.ID, "date", clock.FormatDate(req.Date), "count", len(pending))
	}

	slog.Info("Request submitted", "request_id", created.ID, "type", created.Type, "employee_id", created.EmployeeID, "date", clock.FormatDate(created.Date))

	if err := s.notifyApprovers(ctx, created); err != nil {
		slog.Error("Failed to notify approvers", "request_id", created.ID, "error", err)
		return created, fmt.Errorf("%w: %w", request.ErrNotifyFailed, err)
	}
	return created, nil
}

func (s *RequestServiceImpl) notifyApprovers(ctx context.Context, r request.Request) error {
	approvers, err := s.identityService.ApproverIDs(ctx)
	if err != nil {
		return err
	}
	if len(approvers) == 0 {
		return notification.ErrNoRecipient
	}

	ns := make([]notification.Notification, 0, len(approvers))
	for _, id := range approvers {
		ns = append(ns, notification.RequestSubmitted(id, r))
	}
	return s.notifier.SendAll(ctx, ns)
}

// Decide implements request.RequestService.
func (s *RequestServiceImpl) Decide(ctx context.Context, req request.DecideRequest) (request.Request, error) {
	if err := req.Validate(); err != nil {
		return request.Request{}, err
	}

	target, err := s.RequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return request.Request{}, err
	}

	// Same key as Submit so a decision cannot race an overwrite.
	unlock, err := s.locks.Lock(ctx, LockKey(target.Type, target.Employee(), clock.FormatDate(target.Date)))
	if err != nil {
		return request.Request{}, err
	}
	defer unlock()

	target, err = s.RequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return request.Request{}, err
	}
	if target.Status != request.StatusPending {
		return target, request.ErrRequestNotPending
	}

	if req.Approved {
		_, err := s.attendanceService.SetAdjustment(ctx, attendance.AdjustmentRequest{
			Employee: target.Employee(),
			Date:     target.Date,
			Type:     target.Type,
			Hours:    target.Hours,
		})
		switch {
		case errors.Is(err, attendance.ErrRecordNotFound):
			slog.Warn("Approved request has no attendance record, hours not applied",
				"request_id", target.ID, "employee_id", target.EmployeeID, "date", clock.FormatDate(target.Date))
		case err != nil:
			return request.Request{}, fmt.Errorf("failed to apply %s hours: %w", target.Type, err)
		}
	}

	now := s.clock.Now()
	target.DecidedBy = req.DeciderID
	target.DecidedAt = &now
	if req.Approved {
		target.Status = request.StatusApproved
	} else {
		target.Status = request.StatusDenied
		target.DenyReason = req.DenyReason
	}

	if err := s.RequestRepository.UpdateStatuses(ctx, []request.Request{target}); err != nil {
		return request.Request{}, fmt.Errorf("failed to update request status: %w", err)
	}

	slog.Info("Request decided", "request_id", target.ID, "status", target.Status, "decided_by", target.DecidedBy)

	if err := s.notifier.Queue(notification.RequestDecided(target)); err != nil {
		slog.Error("Failed to queue decision notice", "request_id", target.ID, "error", err)
	}
	return target, nil
}

// Get implements request.RequestService.
func (s *RequestServiceImpl) Get(ctx context.Context, id string) (request.Request, error) {
	if !validator.IsValidUUID(id) {
		return request.Request{}, request.ErrRequestNotFound
	}
	return s.RequestRepository.GetByID(ctx, id)
}

// ListPending implements request.RequestService.
func (s *RequestServiceImpl) ListPending(ctx context.Context) ([]request.Request, error) {
	return s.List(ctx, request.Filter{Status: request.StatusPending})
}

// List implements request.RequestService.
func (s *RequestServiceImpl) List(ctx context.Context, filter request.Filter) ([]request.Request, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, request.ErrInvalidStatus
	}
	reqs, err := s.RequestRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}
