package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func failingCalls(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return errUpstream
		})
	}
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(&Config{
		Name:             "test",
		MaxFailures:      3,
		FailureThreshold: 0.5,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	})

	failingCalls(cb, 3)

	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		t.Fatal("function should not be called while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestStaysClosedUnderOccasionalFailures(t *testing.T) {
	cb := NewCircuitBreaker(DefaultConfig("test"))

	for i := 0; i < 20; i++ {
		err := errUpstream
		if i%3 != 0 {
			err = nil
		}
		failed := err
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return failed
		})
	}

	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(&Config{
		Name:             "test",
		MaxFailures:      2,
		FailureThreshold: 0.5,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	failingCalls(cb, 2)
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	time.Sleep(20 * time.Millisecond)

	// Successful probe closes the circuit
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(&Config{
		Name:             "test",
		MaxFailures:      2,
		FailureThreshold: 0.5,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})

	failingCalls(cb, 2)
	time.Sleep(20 * time.Millisecond)

	failingCalls(cb, 1)
	if got := cb.GetState(); got != StateOpen {
		t.Errorf("state = %s, want open after failed probe", got)
	}
}
