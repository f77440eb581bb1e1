package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

func TestGo_Succeeds(t *testing.T) {
	tk := Go(context.Background(), "sum", func(context.Context) (int, error) {
		return 42, nil
	})

	got, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, Succeeded, tk.State())
	assert.True(t, tk.State().Terminal())
}

func TestGo_Fails(t *testing.T) {
	tk := Go(context.Background(), "fail", func(context.Context) (string, error) {
		return "partial", errors.ErrIO
	})

	<-tk.Done()
	_, err := tk.Wait(context.Background())
	assert.True(t, errors.Is(err, errors.ErrIO))
	assert.Equal(t, Failed, tk.State())
}

func TestGo_PanicBecomesFailure(t *testing.T) {
	tk := Go(context.Background(), "boom", func(context.Context) (int, error) {
		panic("kaboom")
	})

	got, err := tk.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Zero(t, got)
	assert.Equal(t, Failed, tk.State())
}

func TestStart_RunsOnce(t *testing.T) {
	var runs atomic.Int32
	tk := New("once", func(context.Context) (struct{}, error) {
		runs.Add(1)
		return struct{}{}, nil
	})
	assert.Equal(t, Idle, tk.State())

	for range 5 {
		tk.Start(context.Background())
	}
	_, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, runs.Load())
}

func TestWait_NotStarted(t *testing.T) {
	tk := New("idle", func(context.Context) (int, error) { return 1, nil })
	_, err := tk.Wait(context.Background())
	assert.Error(t, err)
}

func TestWait_ContextEnds(t *testing.T) {
	release := make(chan struct{})
	tk := Go(context.Background(), "slow", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tk.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Running, tk.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
