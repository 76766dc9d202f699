// Package circuitbreaker protects upstream API calls from cascading
// failures. When an endpoint keeps failing, the breaker opens and calls
// fail fast until a probe succeeds.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wallet-scanner/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means requests are allowed
	StateClosed State = "closed"
	// StateOpen means requests fail fast
	StateOpen State = "open"
	// StateHalfOpen means a limited number of probe requests are allowed
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrTooManyRequests is returned when the half-open probe budget is spent
var ErrTooManyRequests = errors.New("too many requests in half-open state")

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // Consecutive failures before opening
	FailureThreshold float64       // Failure rate to trigger open (0.0-1.0)
	Timeout          time.Duration // Time before attempting half-open
	HalfOpenMaxCalls int           // Probe calls allowed in half-open state
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      10,
		FailureThreshold: 0.5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name             string
	maxFailures      int
	failureThreshold float64
	timeout          time.Duration
	halfOpenMaxCalls int

	mu               sync.RWMutex
	state            State
	failures         int
	successes        int
	totalCalls       int
	consecutiveFails int
	lastStateChange  time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:             config.Name,
		maxFailures:      config.MaxFailures,
		failureThreshold: config.FailureThreshold,
		timeout:          config.Timeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		state:            StateClosed,
		lastStateChange:  time.Now(),
	}
}

// Execute runs fn with circuit breaker protection. The context is passed
// through untouched; when the circuit is open fn is never called.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastStateChange) > cb.timeout {
			cb.setState(StateHalfOpen)
			logging.WithFields(map[string]interface{}{
				"circuitBreaker": cb.name,
				"state":          StateHalfOpen,
			}).Info("Circuit breaker transitioning to half-open")
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.totalCalls >= cb.halfOpenMaxCalls {
			return ErrTooManyRequests
		}
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.successes++
	cb.consecutiveFails = 0

	if cb.state == StateHalfOpen && cb.successes >= cb.halfOpenMaxCalls {
		cb.setState(StateClosed)
		cb.reset()
		logging.WithFields(map[string]interface{}{
			"circuitBreaker": cb.name,
			"state":          StateClosed,
		}).Info("Circuit breaker closed after successful recovery")
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.consecutiveFails++

	switch cb.state {
	case StateClosed:
		if cb.shouldOpen() {
			cb.setState(StateOpen)
			logging.WithFields(map[string]interface{}{
				"circuitBreaker":   cb.name,
				"state":            StateOpen,
				"failures":         cb.failures,
				"totalCalls":       cb.totalCalls,
				"consecutiveFails": cb.consecutiveFails,
			}).Warn("Circuit breaker opened due to failures")
		}

	case StateHalfOpen:
		// Any failure during a probe reopens the circuit
		cb.setState(StateOpen)
		logging.WithFields(map[string]interface{}{
			"circuitBreaker": cb.name,
			"state":          StateOpen,
		}).Warn("Circuit breaker reopened after failure in half-open state")
	}
}

func (cb *CircuitBreaker) shouldOpen() bool {
	if cb.consecutiveFails >= cb.maxFailures {
		return true
	}
	// Rate check needs a minimum number of calls to be meaningful
	if cb.totalCalls < cb.maxFailures {
		return false
	}
	return float64(cb.failures)/float64(cb.totalCalls) >= cb.failureThreshold
}

func (cb *CircuitBreaker) setState(state State) {
	cb.state = state
	cb.lastStateChange = time.Now()
}

func (cb *CircuitBreaker) reset() {
	cb.failures = 0
	cb.successes = 0
	cb.totalCalls = 0
	cb.consecutiveFails = 0
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
