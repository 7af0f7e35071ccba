package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestClient(t *testing.T, maxSize int) (*MemoryClient, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryClient(maxSize)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryClient_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestClient(t, 10)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	clock.Advance(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v2"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_EvictsEarliestExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, 2)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestMemoryClient_Incr(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestClient(t, 10)

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "rl", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	clock.Advance(61 * time.Second)
	n, err := c.Incr(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryClient_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestClient(t, 10)
	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", []byte("1"), time.Hour))

	clock.Advance(time.Minute)
	c.sweep()
	assert.Equal(t, 1, c.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, 10)

	type product struct {
		Barcode string `json:"barcode"`
		Name    string `json:"name"`
	}
	key := BarcodeKey("0123456789")
	assert.Equal(t, "barcode:0123456789", key)

	require.NoError(t, SetJSON(ctx, c, key, product{Barcode: "0123456789", Name: "Tuna"}, time.Hour))
	var got product
	require.NoError(t, GetJSON(ctx, c, key, &got))
	assert.Equal(t, "Tuna", got.Name)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Hour))
	err := GetJSON(ctx, c, "bad", &got)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}

func TestRateLimitKey(t *testing.T) {
	window := time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, "ratelimit:10.0.0.1:202403011234", RateLimitKey("10.0.0.1", window))
}
