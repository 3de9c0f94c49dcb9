package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func newTestCache(t *testing.T, maxEntries int) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(maxEntries, time.Minute)
	t.Cleanup(c.Close)
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	price := 1.19
	records := []domain.ComparisonRecord{{
		CanonicalName: "Alpsko mleko poltrajno 1L",
		CheapestStore: "tus",
		Prices:        []domain.StorePrice{{Store: "tus", Price: &price}},
	}}

	require.NoError(t, c.Set(ctx, "comparison:abc", records, time.Minute))

	got, err := c.Get(ctx, "comparison:abc")
	require.NoError(t, err)

	stored, ok := got.([]domain.ComparisonRecord)
	require.True(t, ok, "value should keep its concrete type")
	assert.Equal(t, "tus", stored[0].CheapestStore)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "value", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	c := newTestCache(t, 10)

	_, err := c.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "delete-test", "value", time.Minute))
	require.NoError(t, c.Delete(ctx, "delete-test"))

	_, err := c.Get(ctx, "delete-test")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Exists(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.Set(ctx, "exists-test", "value", time.Minute))

	exists, err = c.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	c := newTestCache(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), i, time.Minute))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, c.Set(ctx, "k3", 3, time.Minute))

	assert.Equal(t, 3, c.Size())
	_, err := c.Get(ctx, "k0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "oldest entry should be evicted")
	_, err = c.Get(ctx, "k3")
	assert.NoError(t, err)
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	c := newTestCache(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Set(ctx, "a", 3, time.Minute))

	assert.Equal(t, 2, c.Size())
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestMemoryCache_Clear(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, string(rune('a'+i)), i, time.Minute))
	}
	require.Equal(t, 5, c.Size())

	c.Clear()

	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(1, time.Millisecond)
	c.Close()
	c.Close()
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := newTestCache(t, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := string(rune('a' + id))
			assert.NoError(t, c.Set(ctx, key, id, time.Minute))
			_, err := c.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
