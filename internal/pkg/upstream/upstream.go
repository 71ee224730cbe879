package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrUnavailable is returned once an upstream call has used up its retries.
var ErrUnavailable = errors.New("upstream unavailable")

// Policy bounds a single logical upstream call.
type Policy struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultPolicy = Policy{
	Timeout:        10 * time.Second,
	MaxRetries:     3,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// Permanent marks err as not worth retrying. Call returns it unchanged.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Call runs fn under p. Every attempt gets its own timeout. Transient
// failures are retried with exponential backoff; permanent ones are
// returned as-is.
func Call(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Call for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result    T
		permanent bool
	)

	attempt := func() error {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		v, err := fn(attemptCtx)
		if err != nil {
			var perr *backoff.PermanentError
			if errors.As(err, &perr) {
				permanent = true
			}
			return err
		}
		result = v
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("Upstream call failed, retrying", "op", op, "error", err, "backoff", wait)
	}

	err := backoff.RetryNotify(attempt, p.backOff(ctx), notify)
	if err == nil {
		return result, nil
	}

	var zero T
	if permanent {
		return zero, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("%s: %w", op, ctxErr)
	}
	return zero, fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		eb.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		eb.MaxInterval = p.MaxBackoff
	}
	eb.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
