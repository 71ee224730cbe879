package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilNextBoundary(t *testing.T) {
	now := time.Date(2024, 5, 29, 17, 45, 30, 0, time.UTC)
	assert.Equal(t, 14*time.Minute+30*time.Second, untilNextBoundary(now, time.Hour))
	assert.Equal(t, time.Hour, untilNextBoundary(time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC), time.Hour))
	assert.Equal(t, time.Duration(0), untilNextBoundary(now, 0))
}

func TestRunOnce(t *testing.T) {
	s := NewScheduler()
	var calls atomic.Int32
	s.AddJob("ok", time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	s.AddJob("failing", time.Hour, func(context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})

	s.RunOnce(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler()
	s.AddJob("never", time.Hour, func(context.Context) error { return nil })
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
