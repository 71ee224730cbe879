package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
)

// ReminderJobs nudges employees who forgot to clock out and approvers with
// requests waiting. Each job acts once per day, during Hour.
type ReminderJobs struct {
	attendanceService attendance.AttendanceService
	requestService    request.RequestService
	identityService   identity.IdentityService
	notifier          notification.Service
	clock             clock.Source
	hour              int

	mu      sync.Mutex
	lastRun map[string]civil.Date
}

func NewReminderJobs(
	attendanceService attendance.AttendanceService,
	requestService request.RequestService,
	identityService identity.IdentityService,
	notifier notification.Service,
	src clock.Source,
	hour int,
) *ReminderJobs {
	return &ReminderJobs{
		attendanceService: attendanceService,
		requestService:    requestService,
		identityService:   identityService,
		notifier:          notifier,
		clock:             src,
		hour:              hour,
		lastRun:           make(map[string]civil.Date),
	}
}

func (j *ReminderJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("remind_missing_clock_out", 1*time.Hour, j.RemindMissingClockOut)
	scheduler.AddJob("remind_pending_requests", 1*time.Hour, j.RemindPendingRequests)
}

// due reports whether job should act now and marks it done for today.
func (j *ReminderJobs) due(job string) (civil.Date, bool) {
	now := j.clock.Now()
	if now.Hour() != j.hour {
		return civil.Date{}, false
	}
	today := civil.DateOf(now)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastRun[job] == today {
		return civil.Date{}, false
	}
	j.lastRun[job] = today
	return today, true
}

func (j *ReminderJobs) RemindMissingClockOut(ctx context.Context) error {
	today, ok := j.due("remind_missing_clock_out")
	if !ok {
		return nil
	}

	slog.Info("Cron: Starting missing clock-out reminders")

	records, err := j.attendanceService.View(ctx, clock.SingleDay(today))
	if err != nil {
		return fmt.Errorf("failed to list today's attendance: %w", err)
	}

	sent := 0
	for _, a := range records {
		if a.State() != attendance.StateClockedIn {
			continue
		}
		if a.EmployeeID == "" {
			slog.Warn("Cron: Cannot remind employee without ID", "employee_name", a.EmployeeName)
			continue
		}
		if err := j.notifier.Queue(notification.MissingClockOut(a)); err != nil {
			if errors.Is(err, notification.ErrStopped) {
				return err
			}
			slog.Error("Cron: Failed to queue reminder", "employee_id", a.EmployeeID, "error", err)
			continue
		}
		sent++
	}

	slog.Info("Cron: Missing clock-out reminders queued", "count", sent)
	return nil
}

func (j *ReminderJobs) RemindPendingRequests(ctx context.Context) error {
	if _, ok := j.due("remind_pending_requests"); !ok {
		return nil
	}

	pending, err := j.requestService.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}
	if len(pending) == 0 {
		slog.Info("Cron: No pending requests")
		return nil
	}

	approvers, err := j.identityService.ApproverIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve approvers: %w", err)
	}

	ns := make([]notification.Notification, 0, len(approvers))
	for _, id := range approvers {
		ns = append(ns, notification.PendingRequests(id, len(pending)))
	}
	if err := j.notifier.SendAll(ctx, ns); err != nil {
		return fmt.Errorf("failed to remind approvers: %w", err)
	}

	slog.Info("Cron: Pending request reminders sent", "approvers", len(approvers), "pending", len(pending))
	return nil
}
