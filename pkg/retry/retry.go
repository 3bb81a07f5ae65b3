// Package retry provides bounded retry with exponential backoff and jitter.
// It is used by the display probe loop and the browser preflight, where a
// single check would race slow container cold-starts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Policy controls the retry schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first
	// call. Must be >= 1.
	MaxAttempts int

	// BaseDelay is the initial backoff step. It also bounds the jitter
	// added to each delay.
	BaseDelay time.Duration

	// MaxDelay caps any single computed delay.
	MaxDelay time.Duration
}

// DefaultPolicy returns a policy suitable for most startup checks.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Delay returns the backoff duration for the given attempt (0-indexed).
//
// Formula: min(base * 2^attempt + jitter, max) where jitter is uniform
// in [0, base].
func (p Policy) Delay(attempt int) time.Duration {
	exp := p.BaseDelay << uint(attempt)
	if exp <= 0 || exp > p.MaxDelay {
		// Shifted past MaxDelay (or overflowed); the cap applies.
		exp = p.MaxDelay
	}

	var jitter time.Duration
	if p.BaseDelay > 0 {
		jitter = time.Duration(rand.Int63n(int64(p.BaseDelay) + 1))
	}

	delay := exp + jitter
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error so that Do stops retrying and returns it
// immediately. Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do invokes fn until it returns nil, the attempts are exhausted, the
// error is marked Permanent, or ctx is done. The last error observed is
// returned; context errors take precedence when the wait is interrupted.
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be >= 1, got %d", p.MaxAttempts)
	}

	var last error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn()
		if last == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(last, &perm) {
			return perm.err
		}

		if attempt+1 == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return last
}
