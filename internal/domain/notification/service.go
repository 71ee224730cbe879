package notification

import (
	"context"
)

// Sender delivers a single notification. Backed by Slack chat.postMessage.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Service defines the notification service interface
type Service interface {
	// Send delivers synchronously and reports the first failure.
	Send(ctx context.Context, n Notification) error
	// SendAll delivers to every recipient, joining failures.
	SendAll(ctx context.Context, ns []Notification) error

	// Queue hands n to the background workers.
	Queue(n Notification) error

	// Lifecycle
	Stop()
}
