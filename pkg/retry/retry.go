package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/ratelimit"
)

// Operation is a function that might need retrying
type Operation func(ctx context.Context) error

// Policy holds retry configuration
type Policy struct {
	// MaxAttempts is the total number of attempts (values below 1 mean 1)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf decides whether an error is worth another attempt
	RetryIf func(error) bool
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultPolicy returns a policy retrying transient failures
func DefaultPolicy(attempts int, base time.Duration, log logger.Logger) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff:     DefaultExponentialBackoff(base),
		RetryIf:     Transient,
		Logger:      log,
	}
}

// StatusError is a non-success HTTP response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, msg)
}

// RetryableStatus reports whether an HTTP status may succeed when repeated
func RetryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// Transient is the default retry predicate. Cancellation never retries,
// HTTP responses retry on 429 and 5xx, anything else is treated as a
// network failure and retried. A deadline error counts as a network
// failure: it usually comes from a per-request client timeout, and Do
// stops on its own once the caller's context is done.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return RetryableStatus(statusErr.Code)
	}
	return true
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is cancelled
func Do(ctx context.Context, p Policy, op Operation) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = Transient
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("Operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled: %w", lastErr)
		}
		if !retryIf(err) || attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff.NextDelay(attempt)
		}
		log.WithError(err).WarnWithFields("Retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": attempts,
		})

		if err := ratelimit.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", lastErr)
		}
	}

	return lastErr
}

// DoWithResult runs op with Do and returns its result
func DoWithResult[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
