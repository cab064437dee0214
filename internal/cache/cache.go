package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

// ProductListCache holds the full catalog listing as served by GET /api/products.
//
// Entries are tied to a generation. Invalidate starts a new generation, so a
// listing read from the store before an invalidation and written afterwards
// is stored under the old generation and never served.
type ProductListCache interface {
	// Get returns the cached listing and the current generation. On
	// ErrCacheMiss the generation is still valid and should be passed to Set.
	Get(ctx context.Context) ([]*domain.Product, uint64, error)
	Set(ctx context.Context, generation uint64, products []*domain.Product) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never stores anything. Every Get is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]*domain.Product, uint64, error) { return nil, 0, ErrCacheMiss }

func (NopCache) Set(context.Context, uint64, []*domain.Product) error { return nil }

func (NopCache) Invalidate(context.Context) error { return nil }
