package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/logging"
)

type fakeRunner struct {
	mu        sync.Mutex
	creates   int
	prunes    []int
	createErr error
}

func (f *fakeRunner) Create(_ context.Context, source string) (*backup.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &backup.Snapshot{Name: "BACKUP_test", SourceDirectory: source, TotalFiles: 1}, nil
}

func (f *fakeRunner) Prune(_ context.Context, keep int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes = append(f.prunes, keep)
	return []string{"BACKUP_old"}, nil
}

func (f *fakeRunner) calls() (int, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, append([]int(nil), f.prunes...)
}

func TestParse(t *testing.T) {
	for _, spec := range []string{"*/5 * * * *", "0 3 * * 1-5", "@hourly", "@every 90s"} {
		_, err := Parse(spec)
		assert.NoError(t, err, spec)
	}
	for _, spec := range []string{"", "* * *", "0 0 0 * * *", "@sometimes"} {
		_, err := Parse(spec)
		assert.True(t, errors.Is(err, errors.ErrInvalidConfig), spec)
	}
}

func TestNew_Preconditions(t *testing.T) {
	r := &fakeRunner{}

	_, err := New(r, Options{Spec: "@hourly"})
	assert.True(t, errors.Is(err, errors.ErrPrecondition))

	_, err = New(r, Options{Spec: "@hourly", Source: "/src", Keep: -1})
	assert.True(t, errors.Is(err, errors.ErrPrecondition))

	_, err = New(r, Options{Spec: "nope", Source: "/src"})
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestNext(t *testing.T) {
	s, err := New(&fakeRunner{}, Options{Spec: "30 2 * * *", Source: "/src", Location: time.UTC})
	require.NoError(t, err)

	from := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	want := time.Date(2025, 1, 3, 2, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(s.Next(from)), "next = %v", s.Next(from))
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("create only", func(t *testing.T) {
		r := &fakeRunner{}
		s, err := New(r, Options{Spec: "@hourly", Source: "/src", Logger: logging.ForTest(t)})
		require.NoError(t, err)

		res := s.RunOnce(ctx)
		require.NoError(t, res.Err)
		assert.Equal(t, "/src", res.Snapshot.SourceDirectory)
		assert.Empty(t, res.Pruned)

		creates, prunes := r.calls()
		assert.Equal(t, 1, creates)
		assert.Empty(t, prunes)
	})

	t.Run("create then prune", func(t *testing.T) {
		r := &fakeRunner{}
		s, err := New(r, Options{Spec: "@hourly", Source: "/src", Prune: true, Keep: 3, Logger: logging.ForTest(t)})
		require.NoError(t, err)

		var got []Result
		s.OnResult(func(res Result) { got = append(got, res) })

		res := s.RunOnce(ctx)
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"BACKUP_old"}, res.Pruned)
		_, prunes := r.calls()
		assert.Equal(t, []int{3}, prunes)
		assert.Len(t, got, 1)
	})

	t.Run("failed create skips prune", func(t *testing.T) {
		r := &fakeRunner{createErr: errors.Wrap(errors.ErrBackupFailed, "disk full")}
		s, err := New(r, Options{Spec: "@hourly", Source: "/src", Prune: true, Logger: logging.ForTest(t)})
		require.NoError(t, err)

		res := s.RunOnce(ctx)
		assert.True(t, errors.Is(res.Err, errors.ErrBackupFailed))
		_, prunes := r.calls()
		assert.Empty(t, prunes)
	})
}

func TestRun_FiresUntilCancelled(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, Options{Spec: "@every 1s", Source: "/src", Logger: logging.ForTest(t)})
	require.NoError(t, err)

	fired := make(chan struct{}, 8)
	s.OnResult(func(Result) { fired <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("schedule never fired")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	creates, _ := r.calls()
	assert.GreaterOrEqual(t, creates, 1)
}
