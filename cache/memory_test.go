package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_PutGet(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u1", []byte(`{"id":"u1"}`), time.Minute))

	data, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"u1"}`), data)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache()
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_PutOverwrites(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u1", []byte("old"), time.Minute))
	require.NoError(t, c.Put(ctx, "u1", []byte("new"), time.Minute))

	data, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u1", []byte("x"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u1", []byte("x"), time.Minute))

	present, err := c.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, present)

	// idempotent: second delete reports absence, no error
	present, err = c.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, present)

	_, err = c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
