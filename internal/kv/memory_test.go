package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		s := NewMemoryStore()
		_, ok, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", "v", 0))
		val, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", val)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", "v1", 0))
		require.NoError(t, s.Set(ctx, "k", "v2", 0))
		val, _, _ := s.Get(ctx, "k")
		assert.Equal(t, "v2", val)
	})

	t.Run("delete", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", "v", 0))
		require.NoError(t, s.Delete(ctx, "k"))
		_, ok, _ := s.Get(ctx, "k")
		assert.False(t, ok)
		assert.NoError(t, s.Delete(ctx, "k"))
	})

	t.Run("expiry", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		s := NewMemoryStore().WithClock(func() time.Time { return now })

		require.NoError(t, s.Set(ctx, "otp", "1234", time.Minute))
		_, ok, _ := s.Get(ctx, "otp")
		assert.True(t, ok)

		now = now.Add(59 * time.Second)
		_, ok, _ = s.Get(ctx, "otp")
		assert.True(t, ok)

		now = now.Add(time.Second)
		_, ok, _ = s.Get(ctx, "otp")
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("set if absent", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		s := NewMemoryStore().WithClock(func() time.Time { return now })

		ok, err := s.SetIfAbsent(ctx, "jti", "1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.SetIfAbsent(ctx, "jti", "2", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		val, _, _ := s.Get(ctx, "jti")
		assert.Equal(t, "1", val)

		now = now.Add(time.Minute)
		ok, err = s.SetIfAbsent(ctx, "jti", "3", 0)
		require.NoError(t, err)
		assert.True(t, ok, "an expired key can be claimed again")
	})
}
