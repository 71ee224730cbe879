package postgresql_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = civil.Date{Year: 2024, Month: time.May, Day: 29}

func tod(t *testing.T, s string) *clock.TimeOfDay {
	t.Helper()
	v, err := clock.ParseTime(s)
	require.NoError(t, err)
	return &v
}

func TestAttendanceRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)

	require.NoError(t, repo.EnsureSegment(ctx, 2024))
	require.NoError(t, repo.EnsureSegment(ctx, 2024))

	alice := attendance.Employee{ID: "U1", Name: "Alice"}

	rec, err := repo.Find(ctx, alice, testDate)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, repo.Append(ctx, attendance.Attendance{
		EmployeeID:   alice.ID,
		EmployeeName: alice.Name,
		Date:         testDate,
		ClockIn:      tod(t, "7:30 AM"),
	}))

	total := "08:30"
	require.NoError(t, repo.UpdateFields(ctx, alice, testDate, attendance.Patch{
		ClockOut:   tod(t, "5:00 PM"),
		TotalHours: &total,
	}))
	require.NoError(t, repo.UpdateFields(ctx, alice, testDate, attendance.AdjustmentPatch(attendance.AdjustmentOvertime, "02:00")))

	rec, err = repo.Find(ctx, alice, testDate)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "7:30 AM", rec.ClockIn.String())
	assert.Equal(t, "5:00 PM", rec.ClockOut.String())
	assert.Equal(t, "08:30", rec.TotalHours)
	assert.Equal(t, "02:00", rec.OvertimeHours)
	assert.Equal(t, attendance.StateClockedOut, rec.State())

	err = repo.UpdateFields(ctx, attendance.Employee{ID: "U2", Name: "Bob"}, testDate, attendance.Patch{TotalHours: &total})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	list, err := repo.ListByDate(ctx, clock.SingleDay(testDate))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	history, err := repo.ListByEmployee(ctx, alice, clock.Range{From: testDate.AddDays(-7), To: testDate})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAttendanceRepository_LegacyNameMatch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	require.NoError(t, repo.EnsureSegment(ctx, 2024))

	require.NoError(t, repo.Append(ctx, attendance.Attendance{
		EmployeeName: "alice smith",
		Date:         testDate,
		ClockIn:      tod(t, "8:00 AM"),
	}))

	rec, err := repo.Find(ctx, attendance.Employee{ID: "U1", Name: "Alice Smith"}, testDate)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.EmployeeID)
}

func TestRequestRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewRequestRepository(db)

	id, err := uuid.NewV7()
	require.NoError(t, err)

	req := request.Request{
		ID:           id.String(),
		Type:         attendance.AdjustmentOvertime,
		EmployeeID:   "U1",
		EmployeeName: "Alice",
		Date:         testDate,
		Hours:        "02:00",
		Reason:       "release",
		Status:       request.StatusPending,
		RequestTime:  time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Hours, got.Hours)
	assert.Equal(t, request.StatusPending, got.Status)
	assert.Nil(t, got.DecidedAt)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, request.ErrRequestNotFound)

	pending, err := repo.FindPending(ctx, attendance.AdjustmentOvertime, got.Employee(), testDate)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	decided := time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)
	got.Status = request.StatusDenied
	got.DecidedBy = "U9"
	got.DecidedAt = &decided
	got.DenyReason = "not agreed"
	require.NoError(t, repo.UpdateStatuses(ctx, []request.Request{got}))

	pending, err = repo.List(ctx, request.Filter{Status: request.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	denied, err := repo.List(ctx, request.Filter{Status: request.StatusDenied, EmployeeID: "U1"})
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.Equal(t, "not agreed", denied[0].DenyReason)
	require.NotNil(t, denied[0].DecidedAt)
	assert.True(t, decided.Equal(*denied[0].DecidedAt))
}

func TestRequestRepository_CreateSuperseding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewRequestRepository(db)

	newRequest := func() request.Request {
		id, err := uuid.NewV7()
		require.NoError(t, err)
		return request.Request{
			ID:           id.String(),
			Type:         attendance.AdjustmentOvertime,
			EmployeeID:   "U1",
			EmployeeName: "Alice",
			Date:         testDate,
			Hours:        "02:00",
			Status:       request.StatusPending,
			RequestTime:  time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC),
		}
	}

	first := newRequest()
	require.NoError(t, repo.Create(ctx, first))

	// A duplicate id fails the insert and rolls back the status change.
	overwritten := first
	overwritten.Status = request.StatusOverwritten
	err := repo.CreateSuperseding(ctx, first, []request.Request{overwritten})
	require.Error(t, err)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, got.Status)

	second := newRequest()
	require.NoError(t, repo.CreateSuperseding(ctx, second, []request.Request{overwritten}))

	pending, err := repo.FindPending(ctx, attendance.AdjustmentOvertime, first.Employee(), testDate)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusOverwritten, got.Status)
}

func TestAdminRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAdminRepository(db)

	require.NoError(t, repo.Add(ctx, "HR@example.com"))
	assert.ErrorIs(t, repo.Add(ctx, "hr@example.com"), identity.ErrAdminExists)

	emails, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@example.com"}, emails)

	require.NoError(t, repo.Remove(ctx, "hr@EXAMPLE.com"))
	assert.ErrorIs(t, repo.Remove(ctx, "hr@example.com"), identity.ErrAdminNotFound)
}
