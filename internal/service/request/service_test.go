package request

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/cmlabs-hris/attendance-bot/internal/repository/sheets"
	attendanceService "github.com/cmlabs-hris/attendance-bot/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/attendance-bot/internal/service/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow  = time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC)
	testDate = civil.Date{Year: 2024, Month: time.May, Day: 29}
	alice    = attendance.Employee{ID: "U1", Name: "Alice"}
)

// approvers is an identity.IdentityService with a fixed approver list.
type approvers struct {
	identity.IdentityService
	ids []string
	err error
}

func (a approvers) ApproverIDs(context.Context) ([]string, error) {
	return a.ids, a.err
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (r *recordingSender) Send(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	svc        request.RequestService
	attendance attendance.AttendanceService
	repo       request.RequestRepository
	sender     *recordingSender
	notifier   notification.Service
}

func newFixture(t *testing.T, ident identity.IdentityService) *fixture {
	t.Helper()
	return newFixtureWithClient(t, ident, spreadsheet.NewMemoryClient())
}

func newFixtureWithClient(t *testing.T, ident identity.IdentityService, client spreadsheet.Client) *fixture {
	t.Helper()
	book := sheets.NewBook(client)
	locks := keylock.New()
	src := clock.Fixed{T: testNow}

	att := attendanceService.NewAttendanceService(sheets.NewAttendanceRepository(book), locks, src)
	repo := sheets.NewRequestRepository(book)
	sender := &recordingSender{}
	notifier := notificationService.NewNotificationService(sender, notificationService.Config{WorkerCount: 1})
	t.Cleanup(notifier.Stop)

	return &fixture{
		svc:        NewRequestService(repo, att, ident, notifier, locks, src),
		attendance: att,
		repo:       repo,
		sender:     sender,
		notifier:   notifier,
	}
}

func overtime(hours, reason string) request.SubmitRequest {
	return request.SubmitRequest{
		Type:     attendance.AdjustmentOvertime,
		Employee: alice,
		Date:     testDate,
		Hours:    hours,
		Reason:   reason,
	}
}

func TestSubmit_NotifiesApprovers(t *testing.T) {
	f := newFixture(t, approvers{ids: []string{"U8", "U9"}})

	req, err := f.svc.Submit(context.Background(), overtime("1.5", "reporting"))
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, req.Status)
	assert.Equal(t, "01:30", req.Hours)
	assert.NotEmpty(t, req.ID)
	assert.True(t, testNow.Equal(req.RequestTime))

	require.Len(t, f.sender.sent, 2)
	for _, n := range f.sender.sent {
		assert.Equal(t, notification.TypeRequestSubmitted, n.Type)
		assert.Equal(t, req.ID, n.Actions[0].Value)
	}
}

func TestSubmit_TwiceOverwritesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	first, err := f.svc.Submit(ctx, overtime("2", "reporting"))
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, overtime("2", "reporting"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := f.svc.List(ctx, request.Filter{EmployeeID: alice.ID, From: testDate, To: testDate})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, request.StatusOverwritten, all[0].Status)
	assert.Equal(t, request.StatusPending, all[1].Status)

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

// failingAppends fails appends to the Requests segment while fail is set.
type failingAppends struct {
	*spreadsheet.MemoryClient
	fail bool
}

func (c *failingAppends) Append(ctx context.Context, rng string, rows [][]string) error {
	if c.fail && strings.HasPrefix(rng, spreadsheet.Range(sheets.RequestsSegment, "")) {
		return upstream.ErrUnavailable
	}
	return c.MemoryClient.Append(ctx, rng, rows)
}

func TestSubmit_FailedCreateKeepsEarlierPending(t *testing.T) {
	ctx := context.Background()
	client := &failingAppends{MemoryClient: spreadsheet.NewMemoryClient()}
	f := newFixtureWithClient(t, approvers{ids: []string{"U9"}}, client)

	first, err := f.svc.Submit(ctx, overtime("2", "reporting"))
	require.NoError(t, err)

	client.fail = true
	_, err = f.svc.Submit(ctx, overtime("3", "reporting"))
	require.ErrorIs(t, err, upstream.ErrUnavailable)

	got, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, got.Status)

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	client.fail = false
	second, err := f.svc.Submit(ctx, overtime("3", "reporting"))
	require.NoError(t, err)
	pending, err = f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestSubmit_OtherTypeIsIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	_, err := f.svc.Submit(ctx, overtime("2", ""))
	require.NoError(t, err)
	under := overtime("1", "")
	under.Type = attendance.AdjustmentUndertime
	_, err = f.svc.Submit(ctx, under)
	require.NoError(t, err)

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSubmit_NotifyFailureKeepsRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})
	f.sender.err = errors.New("slack down")

	req, err := f.svc.Submit(ctx, overtime("2", ""))
	require.ErrorIs(t, err, request.ErrNotifyFailed)
	assert.NotEmpty(t, req.ID)

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, stored.Status)
}

func TestSubmit_NoApprovers(t *testing.T) {
	f := newFixture(t, approvers{})
	_, err := f.svc.Submit(context.Background(), overtime("2", ""))
	assert.ErrorIs(t, err, request.ErrNotifyFailed)
	assert.ErrorIs(t, err, notification.ErrNoRecipient)
}

func TestSubmit_Invalid(t *testing.T) {
	f := newFixture(t, approvers{ids: []string{"U9"}})
	_, err := f.svc.Submit(context.Background(), overtime("-1", ""))
	require.Error(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestDecide_ApproveWritesHours(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	_, err := f.attendance.ClockIn(ctx, attendance.ClockRequest{Employee: alice, Time: "8:00 AM"})
	require.NoError(t, err)

	under := overtime("0:30", "")
	under.Type = attendance.AdjustmentUndertime
	submitted, err := f.svc.Submit(ctx, under)
	require.NoError(t, err)

	decided, err := f.svc.Decide(ctx, request.DecideRequest{ID: submitted.ID, Approved: true, DeciderID: "U9"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, decided.Status)
	assert.Equal(t, "U9", decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)

	history, err := f.attendance.History(ctx, alice, clock.SingleDay(testDate))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "00:30", history[0].UndertimeHours)
	assert.Empty(t, history[0].OvertimeHours)

	// Second decision on the same request is a no-op.
	_, err = f.svc.Decide(ctx, request.DecideRequest{ID: submitted.ID, Approved: false, DeciderID: "U9"})
	assert.ErrorIs(t, err, request.ErrRequestNotPending)

	f.notifier.Stop()
	last := f.sender.sent[len(f.sender.sent)-1]
	assert.Equal(t, notification.TypeRequestDecided, last.Type)
	assert.Equal(t, alice.ID, last.RecipientID)
}

func TestDecide_ApproveWithoutRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	submitted, err := f.svc.Submit(ctx, overtime("2", ""))
	require.NoError(t, err)

	decided, err := f.svc.Decide(ctx, request.DecideRequest{ID: submitted.ID, Approved: true, DeciderID: "U9"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, decided.Status)
}

func TestDecide_Deny(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	submitted, err := f.svc.Submit(ctx, overtime("2", ""))
	require.NoError(t, err)

	decided, err := f.svc.Decide(ctx, request.DecideRequest{ID: submitted.ID, DeciderID: "U9", DenyReason: "no budget"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusDenied, decided.Status)
	assert.Equal(t, "no budget", decided.DenyReason)

	stored, err := f.repo.GetByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusDenied, stored.Status)
}

func TestDecide_OverwrittenRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, approvers{ids: []string{"U9"}})

	first, err := f.svc.Submit(ctx, overtime("2", ""))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, overtime("3", ""))
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, request.DecideRequest{ID: first.ID, Approved: true, DeciderID: "U9"})
	assert.ErrorIs(t, err, request.ErrRequestNotPending)
}

func TestDecide_UnknownRequest(t *testing.T) {
	f := newFixture(t, approvers{ids: []string{"U9"}})
	_, err := f.svc.Decide(context.Background(), request.DecideRequest{ID: "nope", DeciderID: "U9"})
	assert.ErrorIs(t, err, request.ErrRequestNotFound)
}
