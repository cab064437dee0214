package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCache is an in-process ProductListCache with generations
type mockCache struct {
	mu          sync.Mutex
	products    []*domain.Product
	set         bool
	generation  uint64
	invalidated int
}

func (m *mockCache) Get(context.Context) ([]*domain.Product, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, m.generation, cache.ErrCacheMiss
	}
	return m.products, m.generation, nil
}

func (m *mockCache) Set(_ context.Context, generation uint64, products []*domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return nil
	}
	m.products = products
	m.set = true
	return nil
}

func (m *mockCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = nil
	m.set = false
	m.generation++
	m.invalidated++
	return nil
}

// countingStore counts catalog reads on top of a MemoryStore
type countingStore struct {
	*store.MemoryStore
	mu        sync.Mutex
	listCalls int
}

func (c *countingStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	c.mu.Lock()
	c.listCalls++
	c.mu.Unlock()
	return c.MemoryStore.ListProducts(ctx)
}

// racingStore runs onList after reading the catalog, standing in for a write
// that lands between the read and the cache fill.
type racingStore struct {
	*store.MemoryStore
	onList func()
}

func (r *racingStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.MemoryStore.ListProducts(ctx)
	if r.onList != nil {
		r.onList()
	}
	return products, err
}

// ctxStore fails catalog reads whose context is already done
type ctxStore struct {
	*store.MemoryStore
}

func (c *ctxStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.MemoryStore.ListProducts(ctx)
}

// mockImages records removed image references
type mockImages struct {
	removed []string
	err     error
}

func (m *mockImages) Remove(ref string) error {
	m.removed = append(m.removed, ref)
	return m.err
}

// mockPublisher records published orders
type mockPublisher struct {
	mu        sync.Mutex
	published []*domain.Order
	err       error
}

func (m *mockPublisher) PublishOrderCreated(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, order)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// failingOrderStore rejects every order insert
type failingOrderStore struct {
	*store.MemoryStore
}

func (f *failingOrderStore) CreateOrder(context.Context, *domain.Order) error {
	return errors.New("write concern failed")
}

// barrierStore holds every GetProduct caller until n callers have read,
// so concurrent orders all observe the same stock before any of them writes.
type barrierStore struct {
	*store.MemoryStore
	reads sync.WaitGroup
}

func newBarrierStore(inner *store.MemoryStore, n int) *barrierStore {
	b := &barrierStore{MemoryStore: inner}
	b.reads.Add(n)
	return b
}

func (b *barrierStore) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	p, err := b.MemoryStore.GetProduct(ctx, id)
	b.reads.Done()
	b.reads.Wait()
	return p, err
}
