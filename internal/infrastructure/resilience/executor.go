package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification tells the executor whether a failed call may be
// retried and whether it counts against the collaborator's breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Executor guards calls to one kind of collaborator (LLM, vector store,
// queue). Breakers are kept per operation name.
type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier ErrorClassifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil callback for %q", operation)
	}
	call := guardedCall{
		operation:  normalizeOperation(operation),
		fn:         fn,
		classifier: classifier,
	}
	if call.classifier == nil {
		call.classifier = failPermanently
	}

	if !e.cfg.BreakerEnabled {
		return e.retry(ctx, call)
	}
	_, err := e.breakerFor(call).Execute(func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, call)
	})
	return err
}

// BreakerState reports the breaker state for an operation; operations
// never executed report closed.
func (e *Executor) BreakerState(operation string) gobreaker.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.breakers[normalizeOperation(operation)]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

type guardedCall struct {
	operation  string
	fn         func(context.Context) error
	classifier ErrorClassifier
}

func (e *Executor) retry(ctx context.Context, call guardedCall) error {
	delays := newBackoff(e.cfg)
	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = e.attempt(ctx, call.fn)
		if lastErr == nil {
			return nil
		}
		if attempt == e.cfg.RetryMaxAttempts || !call.classifier(lastErr).Retryable {
			return lastErr
		}

		wait := delays.next()
		slog.Warn("retry_attempt",
			"operation", call.operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", lastErr,
		)
		if !sleepCtx(ctx, wait) {
			return lastErr
		}
	}
	return lastErr
}

func (e *Executor) attempt(ctx context.Context, fn func(context.Context) error) error {
	if e.cfg.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

func (e *Executor) breakerFor(call guardedCall) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[call.operation]; ok {
		return cb
	}
	cfg := e.cfg
	classifier := call.classifier
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        call.operation,
		MaxRequests: cfg.BreakerHalfOpenMaxCalls,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.BreakerMinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[call.operation] = cb
	return cb
}

// backoff yields exponentially growing delays capped at RetryMaxBackoff.
type backoff struct {
	current    time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoff(cfg Config) *backoff {
	return &backoff{current: cfg.RetryInitialBackoff, max: cfg.RetryMaxBackoff, multiplier: cfg.RetryMultiplier}
}

func (b *backoff) next() time.Duration {
	wait := min(b.current, b.max)
	b.current = min(time.Duration(float64(b.current)*b.multiplier), b.max)
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func normalizeOperation(op string) string {
	op = strings.TrimSpace(op)
	if op == "" {
		return "unknown"
	}
	return op
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func failPermanently(error) ErrorClassification {
	return ErrorClassification{RecordFailure: true}
}
