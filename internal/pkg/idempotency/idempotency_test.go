package idempotency

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("OTPGATE_INTEGRATION") == "" {
		t.Skip("set OTPGATE_INTEGRATION=1 to run against a redis container")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	t.Run("runs once then reports completed", func(t *testing.T) {
		// Arrange
		s := New(client, "test:")
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		// Act
		first := s.Exec(ctx, "cb-1", fn)
		second := s.Exec(ctx, "cb-1", fn)

		// Assert
		require.NoError(t, first)
		assert.ErrorIs(t, second, ErrAlreadyCompleted)
		assert.Equal(t, 1, calls)
	})

	t.Run("failure releases the key", func(t *testing.T) {
		// Arrange
		s := New(client, "test:")
		boom := errors.New("boom")

		// Act
		first := s.Exec(ctx, "cb-2", func(context.Context) error { return boom })
		second := s.Exec(ctx, "cb-2", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, first, boom)
		assert.NoError(t, second)
	})

	t.Run("keep failed", func(t *testing.T) {
		// Arrange
		s := New(client, "test:")

		// Act
		_ = s.Exec(ctx, "cb-3", func(context.Context) error { return errors.New("x") }, WithKeepFailed())
		err := s.Exec(ctx, "cb-3", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, err, ErrAlreadyFailed)
	})

	t.Run("in progress", func(t *testing.T) {
		// Arrange
		s := New(client, "test:")
		state, err := s.Acquire(ctx, "cb-4", time.Minute)
		require.NoError(t, err)
		require.Equal(t, StateNone, state)

		// Act
		err = s.Exec(ctx, "cb-4", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})
}
