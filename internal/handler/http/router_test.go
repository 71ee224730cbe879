package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-bot/internal/repository/sheets"
	attendanceService "github.com/cmlabs-hris/attendance-bot/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/service/command"
	identityService "github.com/cmlabs-hris/attendance-bot/internal/service/identity"
	notificationService "github.com/cmlabs-hris/attendance-bot/internal/service/notification"
	reportService "github.com/cmlabs-hris/attendance-bot/internal/service/report"
	requestService "github.com/cmlabs-hris/attendance-bot/internal/service/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"
	testJWTSecret     = "test-secret-key-for-jwt"
)

var testNow = time.Date(2024, 5, 29, 7, 30, 0, 0, time.UTC)

type directory map[string]identity.Profile

func (d directory) Lookup(_ context.Context, userID string) (identity.Profile, error) {
	p, ok := d[userID]
	if !ok {
		return identity.Profile{}, identity.ErrUserNotFound
	}
	return p, nil
}

func (d directory) LookupByEmail(_ context.Context, email string) (identity.Profile, error) {
	for _, p := range d {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return identity.Profile{}, identity.ErrUserNotFound
}

type nopSender struct{}

func (nopSender) Send(context.Context, notification.Notification) error { return nil }

type recordingResponder struct {
	mu      sync.Mutex
	replies []slackapi.Reply
}

func (r *recordingResponder) Respond(_ context.Context, _ string, reply slackapi.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

type testServer struct {
	router     http.Handler
	jwt        jwt.Service
	requests   request.RequestService
	dispatcher *command.Dispatcher
	responder  *recordingResponder
}

func newTestServer(t *testing.T, signingSecret string) *testServer {
	t.Helper()
	ctx := context.Background()

	book := sheets.NewBook(spreadsheet.NewMemoryClient())
	admins := sheets.NewAdminRepository(book)
	require.NoError(t, admins.Add(ctx, "boss@example.com"))

	dir := directory{
		"U1": {ID: "U1", DisplayName: "Alice", Email: "alice@example.com"},
		"U9": {ID: "U9", DisplayName: "Boss", Email: "boss@example.com"},
	}

	src := clock.Fixed{T: testNow}
	locks := keylock.New()
	notifier := notificationService.NewNotificationService(nopSender{}, notificationService.Config{WorkerCount: 1})
	t.Cleanup(notifier.Stop)

	ident := identityService.NewIdentityService(admins, dir, nil)
	att := attendanceService.NewAttendanceService(sheets.NewAttendanceRepository(book), locks, src)
	reqs := requestService.NewRequestService(sheets.NewRequestRepository(book), att, ident, notifier, locks, src)
	responder := &recordingResponder{}
	dispatcher := command.NewDispatcher(att, reqs, ident, responder, src, command.Config{})
	jwtService := jwt.NewJWTService(testJWTSecret, "1h")

	router := NewRouter(RouterOptions{
		AllowedOrigins:     []string{"http://localhost:3000"},
		SlackSigningSecret: signingSecret,
	}, jwtService, Handlers{
		Slack:      NewSlackHandler(dispatcher),
		Auth:       NewAuthHandler(jwtService),
		Attendance: NewAttendanceHandler(att, reportService.NewReportService(att, src), src),
		Request:    NewRequestHandler(reqs),
		Admin:      NewAdminHandler(ident),
	})

	return &testServer{
		router:     router,
		jwt:        jwtService,
		requests:   reqs,
		dispatcher: dispatcher,
		responder:  responder,
	}
}

func (s *testServer) slashCommand(t *testing.T, path string, form url.Values) slackapi.Reply {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var msg struct {
		Text         string `json:"text"`
		ResponseType string `json:"response_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	return slackapi.Reply{Text: msg.Text, InChannel: msg.ResponseType == "in_channel"}
}

func (s *testServer) api(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(auth.IssueTokenRequest{Email: "boss@example.com"})
	require.NoError(t, err)
	return tok.AccessToken
}

func commandForm(command, text, userID string) url.Values {
	return url.Values{
		"command":      {command},
		"text":         {text},
		"user_id":      {userID},
		"user_name":    {"alice"},
		"channel_id":   {"C1"},
		"response_url": {"https://hooks.slack.test/commands/1"},
	}
}

func TestSlackCommand(t *testing.T) {
	s := newTestServer(t, "")

	reply := s.slashCommand(t, "/slack/commands", commandForm("/clockin", "8:00 AM", "U1"))
	assert.Equal(t, "✅ Clocked in as *Alice* at *8:00 AM* on 05/29/2024.", reply.Text)
	assert.False(t, reply.InChannel)

	reply = s.slashCommand(t, "/slack/command/viewattendance", commandForm("", "", "U1"))
	assert.True(t, reply.InChannel)
	assert.Contains(t, reply.Text, "Alice")
}

func sign(req *http.Request, secret, body string, ts time.Time) {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", stamp, body)
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestSlackSignature(t *testing.T) {
	s := newTestServer(t, testSigningSecret)
	body := commandForm("/help", "", "U1").Encode()

	tests := []struct {
		name   string
		sign   func(req *http.Request)
		status int
	}{
		{"unsigned", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong secret", func(req *http.Request) { sign(req, "other", body, time.Now()) }, http.StatusUnauthorized},
		{"stale", func(req *http.Request) { sign(req, testSigningSecret, body, time.Now().Add(-time.Hour)) }, http.StatusUnauthorized},
		{"valid", func(req *http.Request) { sign(req, testSigningSecret, body, time.Now()) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			tt.sign(req)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "Attendance Bot Help")
			}
		})
	}
}

func TestSlackInteraction(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	s.slashCommand(t, "/slack/commands", commandForm("/overtime", "05/29/2024 2", "U1"))
	pending, err := s.requests.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	payload := fmt.Sprintf(`{
		"type": "block_actions",
		"user": {"id": "U9"},
		"response_url": "https://hooks.slack.test/actions/1",
		"actions": [{"action_id": %q, "block_id": "decision", "value": %q, "type": "button"}]
	}`, notification.ActionApprove, pending[0].ID)

	form := url.Values{"payload": {payload}}
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	s.dispatcher.Wait()
	require.Len(t, s.responder.replies, 1)
	assert.True(t, s.responder.replies[0].ReplaceOriginal)
	assert.Contains(t, s.responder.replies[0].Text, "Approved overtime request")

	got, err := s.requests.Get(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, got.Status)
}

func TestSlackInteraction_MissingPayload(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Auth(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.api(t, http.MethodGet, "/api/v1/requests", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, employeeToken, err := s.jwt.JWTAuth().Encode(map[string]interface{}{
		"email": "alice@example.com",
		"type":  "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	rec = s.api(t, http.MethodGet, "/api/v1/requests", employeeToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token := s.adminToken(t)
	rec = s.api(t, http.MethodGet, "/api/v1/admins", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boss@example.com")

	rec = s.api(t, http.MethodPost, "/api/v1/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/v1/admins", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_Requests(t *testing.T) {
	s := newTestServer(t, "")
	token := s.adminToken(t)

	s.slashCommand(t, "/slack/commands", commandForm("/undertime", "05/29/2024 1 dentist", "U1"))

	rec := s.api(t, http.MethodGet, "/api/v1/requests?status=pending", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data []request.RequestResponse `json:"data"`
		Meta struct {
			TotalItems int `json:"total_items"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Meta.TotalItems)
	id := list.Data[0].ID
	assert.Equal(t, "dentist", list.Data[0].Reason)

	rec = s.api(t, http.MethodGet, "/api/v1/requests?status=bogus", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.api(t, http.MethodPost, "/api/v1/requests/"+id+"/deny", token, `{"reason":"not approved in advance"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var decided struct {
		Data request.RequestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decided))
	assert.Equal(t, "DENIED", decided.Data.Status)
	assert.Equal(t, "boss@example.com", decided.Data.DecidedBy)
	assert.Equal(t, "not approved in advance", decided.Data.DenyReason)

	rec = s.api(t, http.MethodPost, "/api/v1/requests/"+id+"/approve", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/v1/requests/not-a-request", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Attendance(t *testing.T) {
	s := newTestServer(t, "")
	token := s.adminToken(t)

	s.slashCommand(t, "/slack/commands", commandForm("/clockin", "8:00 AM", "U1"))
	s.slashCommand(t, "/slack/commands", commandForm("/clockout", "5:00 PM", "U1"))

	rec := s.api(t, http.MethodGet, "/api/v1/attendance", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_hours":"08:00"`)
	assert.Contains(t, rec.Body.String(), `"meta":{"total_items":1,"from":"05/29/2024","to":"05/29/2024"}`)

	rec = s.api(t, http.MethodGet, "/api/v1/attendance?from=13/45/2024", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/v1/attendance/report?from=05/01/2024&to=05/31/2024", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"days_present":1`)

	rec = s.api(t, http.MethodGet, "/api/v1/attendance/export?from=05/01/2024&to=05/31/2024", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_2024-05-01_2024-05-31.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.api(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
