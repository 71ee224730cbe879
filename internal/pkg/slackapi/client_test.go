package slackapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = upstream.Policy{
	Timeout:        time.Second,
	MaxRetries:     2,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", testPolicy, slack.OptionAPIURL(srv.URL+"/"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestLookup_DisplayNamePrecedence(t *testing.T) {
	users := map[string]map[string]interface{}{
		"U1": {"id": "U1", "name": "alice", "real_name": "Alice Smith", "profile": map[string]interface{}{"display_name": "Ali", "email": "alice@example.com"}},
		"U2": {"id": "U2", "name": "bob", "real_name": "Bob Jones", "profile": map[string]interface{}{}},
		"U3": {"id": "U3", "name": "carol", "profile": map[string]interface{}{}},
		"U4": {"id": "U4", "profile": map[string]interface{}{}},
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, ok := users[r.Form.Get("user")]
		if !ok {
			writeJSON(w, map[string]interface{}{"ok": false, "error": "user_not_found"})
			return
		}
		writeJSON(w, map[string]interface{}{"ok": true, "user": user})
	})

	cases := map[string]string{"U1": "Ali", "U2": "Bob Jones", "U3": "carol", "U4": identity.UnknownName}
	for id, want := range cases {
		p, err := client.Lookup(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, want, p.DisplayName, id)
	}

	p, err := client.Lookup(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email)

	_, err = client.Lookup(context.Background(), "U404")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestSend_PostsBlocks(t *testing.T) {
	var form map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		writeJSON(w, map[string]interface{}{"ok": true, "channel": "D1", "ts": "1.0"})
	})

	err := client.Send(context.Background(), notification.Notification{
		RecipientID: "U9",
		Type:        notification.TypeRequestSubmitted,
		Title:       "New overtime request",
		Message:     "details",
		Actions: []notification.Action{
			{ID: notification.ActionApprove, Text: "Approve", Value: "req-1", Style: notification.StylePrimary},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "U9", form["channel"][0])
	assert.Contains(t, form["blocks"][0], `"action_id":"approve_request"`)
	assert.Contains(t, form["blocks"][0], `"value":"req-1"`)
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]interface{}{"ok": true, "channel": "D1", "ts": "1.0"})
	})

	require.NoError(t, client.Send(context.Background(), notification.Notification{RecipientID: "U9", Title: "hi"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSend_APIErrorIsPermanent(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, map[string]interface{}{"ok": false, "error": "channel_not_found"})
	})

	err := client.Send(context.Background(), notification.Notification{RecipientID: "U9", Title: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, upstream.ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSend_ExhaustedRetries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.Send(context.Background(), notification.Notification{RecipientID: "U9", Title: "hi"})
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestRespond(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("xoxb-test", testPolicy)
	require.NoError(t, client.Respond(context.Background(), srv.URL, Reply{Text: "done", InChannel: true}))
	assert.Equal(t, "done", body["text"])
	assert.Equal(t, "in_channel", body["response_type"])
}
