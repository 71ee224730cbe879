package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository(t *testing.T) {
	ctx := context.Background()
	client := spreadsheet.NewMemoryClient()
	repo := NewRequestRepository(NewBook(client))

	submitted := time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC)
	first := request.Request{
		ID:           "0190c7a2-0000-7000-8000-000000000001",
		Type:         attendance.AdjustmentOvertime,
		EmployeeID:   "U1",
		EmployeeName: "Alice",
		Date:         testDate,
		Hours:        "02:00",
		Reason:       "reporting",
		Status:       request.StatusPending,
		RequestTime:  submitted,
	}
	second := first
	second.ID = "0190c7a2-0000-7000-8000-000000000002"
	second.Type = attendance.AdjustmentUndertime

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	header, err := client.Get(ctx, spreadsheet.Range(RequestsSegment, "A1:L1"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{requestHeader}, header)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, request.ErrRequestNotFound)

	pending, err := repo.FindPending(ctx, attendance.AdjustmentOvertime, attendance.Employee{ID: "U1"}, testDate)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	decided := time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)
	first.Status = request.StatusApproved
	first.DecidedBy = "U9"
	first.DecidedAt = &decided
	require.NoError(t, repo.UpdateStatuses(ctx, []request.Request{first}))

	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, got.Status)
	assert.Equal(t, "U9", got.DecidedBy)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, decided.Equal(*got.DecidedAt))

	stillPending, err := repo.List(ctx, request.Filter{Status: request.StatusPending})
	require.NoError(t, err)
	require.Len(t, stillPending, 1)
	assert.Equal(t, second.ID, stillPending[0].ID)

	err = repo.UpdateStatuses(ctx, []request.Request{{ID: "missing"}})
	assert.ErrorIs(t, err, request.ErrRequestNotFound)
}

func TestRequestRepository_EmptyBook(t *testing.T) {
	repo := NewRequestRepository(NewBook(spreadsheet.NewMemoryClient()))
	reqs, err := repo.List(context.Background(), request.Filter{})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	client := spreadsheet.NewMemoryClient()
	repo := NewAdminRepository(NewBook(client))

	emails, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, emails)

	require.NoError(t, repo.Add(ctx, "hr@example.com"))
	require.NoError(t, repo.Add(ctx, "boss@example.com"))
	require.NoError(t, repo.Add(ctx, "ops@example.com"))
	assert.ErrorIs(t, repo.Add(ctx, "HR@example.com"), identity.ErrAdminExists)

	require.NoError(t, repo.Remove(ctx, "Boss@Example.com"))
	assert.ErrorIs(t, repo.Remove(ctx, "boss@example.com"), identity.ErrAdminNotFound)

	emails, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@example.com", "ops@example.com"}, emails)

	rows, err := client.Get(ctx, spreadsheet.Range(AdminsSegment, "A:A"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Email"}, {"hr@example.com"}, {"ops@example.com"}}, rows)
}
