package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned once the retry budget is spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryableError marks a transient failure. The wait before the next
// attempt grows linearly with the attempt number, scaled by Multiplier and
// capped at Ceiling.
type RetryableError struct {
	Err        error
	Multiplier int
	Ceiling    time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *Logger

	// Sleep waits between attempts; nil means a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do executes fn, retrying only failures wrapped in RetryableError.
// Any other error is returned immediately.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempt := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}

		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			return err
		}

		attempt++
		if attempt > r.MaxRetries {
			return fmt.Errorf("%s: %w after %d attempts: %w", operationName, ErrRetriesExhausted, attempt, err)
		}

		wait := r.backoff(attempt, retryable)
		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
				operationName, attempt, r.MaxRetries, err, wait)
		}
		if err := r.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", operationName, err)
		}
	}
}

func (r *RetryConfig) backoff(attempt int, e *RetryableError) time.Duration {
	mult := e.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := r.BaseDelay * time.Duration((attempt+1)*mult)
	if e.Ceiling > 0 && wait > e.Ceiling {
		wait = e.Ceiling
	}
	return wait
}

func (r *RetryConfig) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
