// Package retry re-invokes fallible operations with a fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultRetries = 3
	DefaultDelay   = time.Second
)

// Policy bounds a retry loop. Retries counts re-invocations after the first attempt.
type Policy struct {
	Retries int
	Delay   time.Duration

	// Retryable filters errors worth another attempt; nil retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns three retries one second apart.
func DefaultPolicy() Policy {
	return Policy{Retries: DefaultRetries, Delay: DefaultDelay}
}

// Attempts returns the total number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

// Do calls fn until it succeeds, the attempts are exhausted or Retryable rejects the
// error, waiting Delay between calls. The last error from fn is returned; a cancelled
// context stops the loop early and returns the last error seen.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	attempts := p.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return zero, lastErr
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == attempts || !p.retryable(err) {
			break
		}
		if sleepErr := sleepWithContext(ctx, p.Delay); sleepErr != nil {
			return zero, lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("retry: no attempts made")
	}
	return zero, lastErr
}

func (p Policy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
