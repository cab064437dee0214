package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func sampleProducts() []*domain.Product {
	return []*domain.Product{
		{ID: "p1", Name: "Oolong", Price: 12.5, Stock: 3},
		{ID: "p2", Name: "Sencha", Price: 8, Stock: 0, Image: "/uploads/x.png"},
	}
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, gen, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
	assert.Equal(t, uint64(0), gen)
}

func TestSetThenGet(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	_, gen, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, cache.Set(ctx, gen, sampleProducts()))

	stored, err := mr.Get(productListKey(gen))
	require.NoError(t, err)
	var decoded []*domain.Product
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	assert.Len(t, decoded, 2)

	result, _, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.ProductID("p1"), result[0].ID)
	assert.Equal(t, "/uploads/x.png", result[1].Image)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), 0, sampleProducts()))

	ttl := mr.TTL(productListKey(0))
	assert.True(t, ttl >= 5*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl < 6*time.Minute, "TTL should be base + max jitter")
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(productListKey(0), `[{"id":`))

	_, _, err := cache.Get(context.Background())
	require.ErrorContains(t, err, "unmarshal products failed")
}

func TestInvalidate(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, 0, sampleProducts()))
	require.NoError(t, cache.Invalidate(ctx))

	gen, err := mr.Get(productListGenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	_, current, err := cache.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, uint64(1), current)
}

func TestSet_StaleGenerationIsNotServed(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	// A reader misses and goes to the store...
	_, readGen, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	// ...a write lands and invalidates before the reader fills the cache.
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Set(ctx, readGen, sampleProducts()))

	_, gen, err := cache.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, readGen+1, gen)
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()
	_, _, err := cache.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNopCache(t *testing.T) {
	var c ProductListCache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, sampleProducts()))
	_, _, err := c.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Invalidate(ctx))
}
