package fileutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	retries := 0
	err := Retry(context.Background(), RetryPolicy{
		Attempts: 3,
		Backoff:  time.Millisecond,
		OnRetry:  func(int, error) { retries++ },
	}, func() error {
		calls++
		if calls < 3 {
			return errors.New("device busy")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("calls = %d, retries = %d; want 3, 2", calls, retries)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 5, Backoff: time.Millisecond}, func() error {
		calls++
		return errors.Mark(errors.New("zip: not a valid zip file"), errors.ErrCorruptArchive)
	})

	if !errors.Is(err, errors.ErrCorruptArchive) {
		t.Errorf("expected corrupt archive error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error retried: calls = %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, func() error {
		calls++
		return errors.New("transient")
	})
	if err == nil || calls != 2 {
		t.Errorf("Retry() = %v after %d calls, want error after 2", err, calls)
	}
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryPolicy{}, func() error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryPolicy{Attempts: 3}, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsPermanent(t *testing.T) {
	if !IsPermanent(errors.Wrap(fs.ErrNotExist, "open")) {
		t.Error("not-exist should be permanent")
	}
	if IsPermanent(errors.New("resource temporarily unavailable")) {
		t.Error("plain error should be transient")
	}
}
