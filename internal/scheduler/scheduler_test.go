package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tonhe/netflo/internal/logging"
)

func TestRunKeepsGoingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	task := TaskFunc(func(ctx context.Context) error {
		n := calls.Add(1)
		if n == 1 {
			return errors.New("first run fails")
		}
		if n == 2 {
			panic("second run panics")
		}
		if n >= 3 {
			cancel()
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- Run(ctx, logging.Discard(), task, time.Second) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not reach the third run")
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 runs, got %d", calls.Load())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, logging.Discard(), TaskFunc(func(context.Context) error { return nil }), time.Hour)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsBadInterval(t *testing.T) {
	if err := Run(context.Background(), logging.Discard(), TaskFunc(func(context.Context) error { return nil }), 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestRunSkipsOverlappingTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls, inflight, peak atomic.Int32
	task := TaskFunc(func(ctx context.Context) error {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if calls.Add(1) == 1 {
			// Outlasts the next two ticks.
			time.Sleep(2500 * time.Millisecond)
			return nil
		}
		cancel()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- Run(ctx, logging.Discard(), task, time.Second) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not reach the second run")
	}
	if got := peak.Load(); got != 1 {
		t.Errorf("expected one run at a time, saw %d concurrent", got)
	}
}
