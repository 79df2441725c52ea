package util

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The retry helpers stop at once
// and return err without the mark.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable clears any Permanent mark inside err for IsPermanent.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsPermanent reports whether err was marked with Permanent. The outermost
// of Permanent and Retryable in the chain decides.
func IsPermanent(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *permanentError:
		return true
	case *retryableError:
		return false
	case interface{ Unwrap() error }:
		return IsPermanent(e.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsPermanent(inner) {
				return true
			}
		}
	}
	return false
}

// unmark drops the Permanent mark fn used to stop the loop, so it does not
// leak to callers of the retry helpers.
func unmark(err error) error {
	if p, ok := err.(*permanentError); ok {
		return p.err
	}
	return err
}

// RetryWithContext calls fn up to maxTries times until it returns nil error,
// sleeping backoff*attempt plus jitter between attempts. Context errors and
// errors marked Permanent stop the loop at once; the mark itself is removed
// from the returned error. If maxTries <= 0 it defaults to 1.
func RetryWithContext[T any](ctx context.Context, maxTries int, backoff time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || IsPermanent(err) {
			return zero, unmark(err)
		}
		lastErr = err
		if i < maxTries-1 {
			if err := sleepWithJitter(ctx, backoff*time.Duration(i+1), backoff/2); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
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
