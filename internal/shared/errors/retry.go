package errors

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"taskctl/internal/shared/logging"
)

// RetryConfig controls RetryWithResultAndLog's backoff schedule.
type RetryConfig struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// DefaultRetryConfig returns the façade's default retry budget: two retries
// (three attempts total) with exponential backoff and 25% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.25,
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	base := c.BaseDelay
	if base == 0 {
		base = time.Second
	}
	maxDelay := c.MaxDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}
	jitter := c.JitterFactor
	if jitter == 0 {
		jitter = 0.25
	}
	d := float64(base) * float64(int(1)<<attempt)
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}
	jr := d * jitter
	d = d - jr + rand.Float64()*2*jr
	return time.Duration(d)
}

// RetryWithResultAndLog invokes fn, retrying on transient errors up to
// cfg.MaxAttempts additional times with exponential backoff. Permanent
// errors and context cancellation stop the loop immediately.
func RetryWithResultAndLog[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error), logger logging.Logger) (T, error) {
	logger = logging.OrNop(logger)
	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		d := cfg.delay(attempt)
		logger.Debug("retrying after transient error (attempt %d/%d, delay %v): %v", attempt+1, cfg.MaxAttempts, d, err)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(d):
		}
	}
	return zero, lastErr
}

// CircuitBreakerConfig tunes a CircuitBreaker's open/close thresholds.
type CircuitBreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns conservative defaults: open after 5
// consecutive failures, probe again after 30s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// CircuitBreaker guards a named dependency against cascading failures.
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	mu     sync.Mutex
	state  circuitState
	fails  int
	openAt time.Time
}

// NewCircuitBreaker constructs a closed CircuitBreaker for name.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultCircuitBreakerConfig().FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultCircuitBreakerConfig().ResetTimeout
	}
	return &CircuitBreaker{name: name, cfg: cfg}
}

func (b *CircuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case circuitOpen:
		if time.Since(b.openAt) >= b.cfg.ResetTimeout {
			b.state = circuitHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails = 0
	b.state = circuitClosed
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails++
	if b.state == circuitHalfOpen || b.fails >= b.cfg.FailureThreshold {
		b.state = circuitOpen
		b.openAt = time.Now()
	}
}

// ExecuteFunc runs fn through the breaker, short-circuiting with a
// DegradedError when the breaker is open.
func ExecuteFunc[T any](b *CircuitBreaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn(ctx)
	}
	if !b.allow() {
		return zero, NewDegradedError(
			fmt.Errorf("circuit breaker %q open", b.name),
			fmt.Sprintf("%s is temporarily unavailable", b.name),
			"last-known-good",
		)
	}
	result, err := fn(ctx)
	if err != nil {
		if !IsPermanent(err) {
			b.recordFailure()
		}
		return zero, err
	}
	b.recordSuccess()
	return result, nil
}
