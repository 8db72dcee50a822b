package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	def := DefaultCircuitBreakerConfig()
	if cb.failureThreshold != def.FailureThreshold {
		t.Errorf("failureThreshold = %d, want %d", cb.failureThreshold, def.FailureThreshold)
	}
	if cb.successThreshold != def.SuccessThreshold {
		t.Errorf("successThreshold = %d, want %d", cb.successThreshold, def.SuccessThreshold)
	}
	if cb.timeout != def.Timeout {
		t.Errorf("timeout = %v, want %v", cb.timeout, def.Timeout)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("new breaker state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		cb.Failure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state after 2 failures = %v, want closed", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() while closed = %v, want nil", err)
	}

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state after 3 failures = %v, want open", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow() while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.Failure()
	cb.Success()
	cb.Failure()

	if cb.State() != CircuitClosed {
		t.Errorf("state = %v, want closed (success resets the failure streak)", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          time.Millisecond,
	})

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(5 * time.Millisecond)

	// Past the timeout, Allow transitions to half-open and lets the
	// test request through.
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() after timeout = %v, want nil", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}

	cb.Success()
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state after 1 success = %v, want still half-open", cb.State())
	}
	cb.Success()
	if cb.State() != CircuitClosed {
		t.Errorf("state after 2 successes = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          time.Millisecond,
	})

	cb.Failure()
	time.Sleep(5 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() after timeout = %v", err)
	}

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Errorf("state after half-open failure = %v, want open", cb.State())
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("state after Reset = %v, want closed", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("Allow() after Reset = %v, want nil", err)
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestRunnerRejectsWhenCircuitOpen(t *testing.T) {
	factory, mock := newTestFactory(t)
	mock.FailWith(errors.New("provider exploded")) // non-transient, no retries

	runner, err := factory.Researcher()
	if err != nil {
		t.Fatalf("Researcher() error = %v", err)
	}

	// Trip the shared breaker with consecutive provider failures.
	threshold := DefaultCircuitBreakerConfig().FailureThreshold
	for i := 0; i < threshold; i++ {
		if _, err := runner.Execute(context.Background(), nil, "hello"); err == nil {
			t.Fatalf("Execute() #%d = nil error, want provider failure", i+1)
		}
	}

	if _, err := runner.Execute(context.Background(), nil, "hello"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() with open breaker = %v, want ErrCircuitOpen", err)
	}

	// The breaker is shared through the factory: the other assistant
	// is rejected too.
	finance, err := factory.Finance()
	if err != nil {
		t.Fatalf("Finance() error = %v", err)
	}
	if _, err := finance.Execute(context.Background(), nil, "AAPL"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("finance Execute() with open breaker = %v, want ErrCircuitOpen", err)
	}
}
