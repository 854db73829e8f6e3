package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, RetryInterval: time.Millisecond, Timeout: time.Second}
}

func TestRunner_SuccessIsObservable(t *testing.T) {
	r := NewRunner(context.Background(), fastConfig(), zap.NewNop())

	h := r.Submit("refresh", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
	assert.Equal(t, StatusSucceeded, h.Status())
	assert.Equal(t, 1, h.Attempts())
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, int64(1), r.Stats().Succeeded)
}

func TestRunner_RetriesUntilSuccess(t *testing.T) {
	r := NewRunner(context.Background(), fastConfig(), zap.NewNop())

	var calls atomic.Int32
	h := r.Submit("flaky", func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
	assert.Equal(t, 3, h.Attempts())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunner_FailureIsReported(t *testing.T) {
	r := NewRunner(context.Background(), fastConfig(), zap.NewNop())
	boom := errors.New("boom")

	h := r.Submit("broken", func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := h.Wait(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, h.Status())
	assert.Equal(t, 3, h.Attempts())
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := NewRunner(context.Background(), Config{MaxAttempts: 1}, zap.NewNop())

	h := r.Submit("panicky", func(ctx context.Context) error { panic("oops") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := h.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestRunner_ShutdownWaitsAndRejectsNewTasks(t *testing.T) {
	r := NewRunner(context.Background(), fastConfig(), zap.NewNop())

	release := make(chan struct{})
	var finished atomic.Bool
	h := r.Submit("slow", func(ctx context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.True(t, finished.Load(), "Shutdown должен дождаться запущенной задачи")
	assert.Equal(t, StatusSucceeded, h.Status())

	late := r.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, late.Err(), ErrRunnerClosed)
	assert.Equal(t, StatusFailed, late.Status())
}
