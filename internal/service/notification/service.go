package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount int           // default: 2
	QueueSize   int           // default: 100
	SendTimeout time.Duration // default: 30 seconds
}

type service struct {
	sender notification.Sender
	config Config

	queue   chan notification.Notification
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	stopCh  chan struct{}
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(sender notification.Sender, cfg Config) notification.Service {
	// Set defaults
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	s := &service{
		sender: sender,
		config: cfg,
		queue:  make(chan notification.Notification, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return s
}

// worker delivers queued notifications until Stop, then drains the queue.
func (s *service) worker(id int) {
	defer s.wg.Done()

	deliver := func(n notification.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.SendTimeout)
		defer cancel()
		if err := s.Send(ctx, n); err != nil {
			slog.Error("Failed to deliver notification", "worker", id, "type", n.Type, "recipient", n.RecipientID, "error", err)
		}
	}

	for {
		select {
		case n := <-s.queue:
			deliver(n)
		case <-s.stopCh:
			for {
				select {
				case n := <-s.queue:
					deliver(n)
				default:
					return
				}
			}
		}
	}
}

// Send implements notification.Service.
func (s *service) Send(ctx context.Context, n notification.Notification) error {
	if n.RecipientID == "" {
		return notification.ErrNoRecipient
	}
	if err := s.sender.Send(ctx, n); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", n.Type, n.RecipientID, err)
	}
	return nil
}

// SendAll implements notification.Service.
func (s *service) SendAll(ctx context.Context, ns []notification.Notification) error {
	var errs []error
	for _, n := range ns {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Queue implements notification.Service.
func (s *service) Queue(n notification.Notification) error {
	if n.RecipientID == "" {
		return notification.ErrNoRecipient
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return notification.ErrStopped
	}

	select {
	case s.queue <- n:
		return nil
	default:
		return notification.ErrQueueFull
	}
}

// Stop gracefully stops the notification service
func (s *service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	slog.Info("Notification service stopped")
}
