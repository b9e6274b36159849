package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) RefreshCache {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache("redis://"+mr.Addr(), "test:rt:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestRedisCache_SetGet(t *testing.T) {
	t.Parallel()

	c := newCache(t)
	ctx := context.Background()

	entry := &RefreshEntry{
		UserID:    uuid.New(),
		Revoked:   false,
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second).UTC(),
	}

	require.NoError(t, c.Set(ctx, "hash-1", entry, time.Hour))

	got, ok, err := c.Get(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry.UserID, got.UserID)
	require.False(t, got.Revoked)
	require.Equal(t, entry.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestRedisCache_GetMiss(t *testing.T) {
	t.Parallel()

	c := newCache(t)

	got, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestRedisCache_MarkRevoked(t *testing.T) {
	t.Parallel()

	c := newCache(t)
	ctx := context.Background()

	entry := &RefreshEntry{
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, c.Set(ctx, "hash-2", entry, time.Hour))

	require.NoError(t, c.MarkRevoked(ctx, "hash-2"))

	got, ok, err := c.Get(ctx, "hash-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Revoked)
	require.Equal(t, entry.UserID, got.UserID)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	entry := &RefreshEntry{UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Minute).UTC()}
	require.NoError(t, c.Set(ctx, "hash-3", entry, time.Minute))

	// miniredis позволяет промотать время вперёд.
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "hash-3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not-a-url", "")
	require.Error(t, err)
}
