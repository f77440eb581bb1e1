package fileutil

import (
	"context"
	"io/fs"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// RetryPolicy bounds how often a transient filesystem failure is retried.
type RetryPolicy struct {
	// Attempts is the total number of tries; values below 1 mean a single try.
	Attempts int

	// Backoff is the delay before the second try; it doubles on each further retry.
	Backoff time.Duration

	// OnRetry, when set, is called before each retry.
	OnRetry func(attempt int, err error)
}

// Retry runs fn until it succeeds, fails permanently, attempts run out or ctx ends.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) || attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}

// IsPermanent reports whether retrying err cannot help.
func IsPermanent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrExist) ||
		errors.Is(err, errors.ErrCorruptArchive) ||
		errors.Is(err, errors.ErrPrecondition) ||
		errors.Is(err, errors.ErrParse) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
