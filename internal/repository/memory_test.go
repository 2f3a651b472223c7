package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterCache(t *testing.T) {
	cache := NewMemoryCounterCache(time.Hour)
	ctx := context.Background()

	t.Run("SetGetInvalidate", func(t *testing.T) {
		require.NoError(t, cache.SetUnreadCount(ctx, 1, 4))

		count, ok, err := cache.GetUnreadCount(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(4), count)

		require.NoError(t, cache.InvalidateUnreadCount(ctx, 1))

		_, ok, err = cache.GetUnreadCount(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExpiredEntryIsMiss", func(t *testing.T) {
		short := NewMemoryCounterCache(-time.Second)
		require.NoError(t, short.SetUnreadCount(ctx, 2, 1))

		_, ok, err := short.GetUnreadCount(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RateLimit", func(t *testing.T) {
		allowed, err := cache.CheckRateLimit(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _ = cache.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)

		allowed, _ = cache.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.False(t, allowed)
	})
}
