package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	productListPrefix        = "products:all"
	productListGenerationKey = "products:generation"
)

func productListKey(generation uint64) string {
	return fmt.Sprintf("%s:%d", productListPrefix, generation)
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) generation(ctx context.Context) (uint64, error) {
	gen, err := r.client.Get(ctx, productListGenerationKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (r *RedisCache) Get(ctx context.Context) ([]*domain.Product, uint64, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := r.client.Get(ctx, productListKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, ErrCacheMiss
	}
	if err != nil {
		return nil, gen, fmt.Errorf("redis get failed: %w", err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, gen, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, gen, nil
}

func (r *RedisCache) Set(ctx context.Context, generation uint64, products []*domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, productListKey(generation), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate moves to the next generation. Listings of older generations
// expire with their TTL.
func (r *RedisCache) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, productListGenerationKey).Err(); err != nil {
		return fmt.Errorf("redis incr generation failed: %w", err)
	}
	return nil
}
