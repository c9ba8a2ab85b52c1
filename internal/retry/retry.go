// Package retry centralises the retry-with-backoff policy applied to every
// network call site, plus the randomised pacing delays inserted between
// requests.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrAttemptsExhausted wraps the last error once every attempt has failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy configures retry behaviour. The delay before attempt n is
// BaseDelay·2^(n-1) plus a random jitter of up to Jitter times the computed
// delay, capped at MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	// Retryable decides whether an error is worth another attempt. Nil
	// means every error is retried.
	Retryable func(error) bool
}

// DefaultPolicy mirrors the global retry configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		MaxDelay:    2 * time.Minute,
		Jitter:      0.5,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, the context is
// cancelled, or MaxAttempts attempts have been made. The returned error is
// fn's last error wrapped in ErrAttemptsExhausted when the attempt budget is
// spent.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return errors.Join(ErrAttemptsExhausted, lastErr)
}

func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	d := base << (attempt - 1)
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Pause sleeps a random duration in [min, max], honouring cancellation.
// Used for request pacing between deliveries and page fetches.
func Pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
