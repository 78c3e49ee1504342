package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/logger"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff:     ConstantBackoff(time.Millisecond),
		Logger:      logger.NewNopLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{8, time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt))
		})
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := DefaultExponentialBackoff(100 * time.Millisecond)

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 180*time.Millisecond)
		assert.LessOrEqual(t, d, 220*time.Millisecond)
	}
}

func TestTransient(t *testing.T) {
	assert.False(t, Transient(nil))
	assert.False(t, Transient(context.Canceled))
	assert.True(t, Transient(fmt.Errorf("request timeout: %w", context.DeadlineExceeded)))
	assert.True(t, Transient(errors.New("connection reset")))
	assert.True(t, Transient(&StatusError{Code: http.StatusBadGateway}))
	assert.True(t, Transient(fmt.Errorf("put: %w", &StatusError{Code: http.StatusTooManyRequests})))
	assert.False(t, Transient(&StatusError{Code: http.StatusUnauthorized}))
	assert.False(t, Transient(&StatusError{Code: http.StatusUnprocessableEntity}))
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "status 404: Not Found", (&StatusError{Code: 404}).Error())
	assert.Equal(t, "status 422: sha wasn't supplied", (&StatusError{Code: 422, Message: "sha wasn't supplied"}).Error())
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusServiceUnavailable}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return &StatusError{Code: http.StatusForbidden}
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 3, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), fastPolicy(0), func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	assert.Equal(t, 1, calls)
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fastPolicy(5)
	p.Backoff = ConstantBackoff(time.Hour)

	calls := 0
	err := Do(ctx, p, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("temporary")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRequestTimeout(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			reqCtx, cancel := context.WithTimeout(ctx, time.Nanosecond)
			defer cancel()
			<-reqCtx.Done()
			return fmt.Errorf("put contents: %w", reqCtx.Err())
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsWhenCallerDeadlinePasses(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	calls := 0
	err := Do(ctx, fastPolicy(5), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Equal(t, 1, calls)
}

func TestDoLogsRetries(t *testing.T) {
	log := logger.NewTestLogger()
	p := fastPolicy(2)
	p.Logger = log

	_ = Do(context.Background(), p, func(ctx context.Context) error {
		return errors.New("flaky")
	})

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "Retrying operation", warns[0].Message)
	assert.EqualError(t, warns[0].Error, "flaky")
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	v, err := DoWithResult(context.Background(), fastPolicy(2), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
