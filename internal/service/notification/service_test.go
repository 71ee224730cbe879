package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Notification
	fail map[string]error
}

func (r *recordingSender) Send(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[n.RecipientID]; err != nil {
		return err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingSender) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.RecipientID)
	}
	return out
}

func TestSend_RequiresRecipient(t *testing.T) {
	svc := NewNotificationService(&recordingSender{}, Config{WorkerCount: 1})
	defer svc.Stop()

	err := svc.Send(context.Background(), notification.Notification{Title: "hi"})
	assert.ErrorIs(t, err, notification.ErrNoRecipient)
}

func TestSendAll_JoinsFailures(t *testing.T) {
	boom := errors.New("boom")
	sender := &recordingSender{fail: map[string]error{"U2": boom}}
	svc := NewNotificationService(sender, Config{WorkerCount: 1})
	defer svc.Stop()

	err := svc.SendAll(context.Background(), []notification.Notification{
		{RecipientID: "U1"},
		{RecipientID: "U2"},
		{RecipientID: "U3"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"U1", "U3"}, sender.recipients())
}

func TestQueue_DeliveredBeforeStopReturns(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, Config{WorkerCount: 2, QueueSize: 10})

	for _, id := range []string{"U1", "U2", "U3"} {
		require.NoError(t, svc.Queue(notification.Notification{RecipientID: id}))
	}
	svc.Stop()

	assert.ElementsMatch(t, []string{"U1", "U2", "U3"}, sender.recipients())
	assert.ErrorIs(t, svc.Queue(notification.Notification{RecipientID: "U4"}), notification.ErrStopped)

	// Stop is idempotent.
	svc.Stop()
}
