package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrors(t *testing.T) {
	// Arrange
	m := NewManager(4)
	boom := errors.New("boom")

	// Act
	require.NoError(t, m.Go(context.Background(), "ok", func(context.Context) error { return nil }))
	require.NoError(t, m.Go(context.Background(), "bad", func(context.Context) error { return boom }))
	require.NoError(t, m.Go(context.Background(), "panics", func(context.Context) error { panic("oops") }))
	err := m.Wait()

	// Assert
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panics: panic: oops")
	assert.Zero(t, m.Running())
}

func TestManager_Limit(t *testing.T) {
	// Arrange
	m := NewManager(1)
	release := make(chan struct{})
	require.NoError(t, m.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		return nil
	}))
	require.Eventually(t, func() bool { return m.Running() == 1 }, time.Second, time.Millisecond)

	// Act
	err := m.Go(context.Background(), "second", func(context.Context) error { return nil })

	// Assert
	assert.ErrorIs(t, err, ErrLimitReached)
	close(release)
	assert.NoError(t, m.Wait())
}

func TestManager_ClosedAfterWait(t *testing.T) {
	m := NewManager(1)
	require.NoError(t, m.Wait())

	assert.ErrorIs(t, m.Go(context.Background(), "late", func(context.Context) error { return nil }), ErrClosed)
}

func TestManager_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(1)
	require.NoError(t, m.Go(ctx, "consumer", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	cancel()
	assert.NoError(t, m.Wait())
}
