package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements the product, order and admin repositories in memory.
// It is used for local runs without MongoDB and as a test double.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[domain.ProductID]*domain.Product
	orders   map[domain.OrderID]*domain.Order
	admins   map[domain.AdminID]*domain.Admin

	now func() time.Time
}

var (
	_ repository.ProductRepository = (*MemoryStore)(nil)
	_ repository.OrderRepository   = (*MemoryStore)(nil)
	_ repository.AdminRepository   = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[domain.ProductID]*domain.Product),
		orders:   make(map[domain.OrderID]*domain.Order),
		admins:   make(map[domain.AdminID]*domain.Admin),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	return &c
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.LineItem(nil), o.Items...)
	return &c
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, copyProduct(p))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id domain.ProductID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (s *MemoryStore) GetProducts(_ context.Context, ids []domain.ProductID) (map[domain.ProductID]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[domain.ProductID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = copyProduct(p)
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product.ID = domain.ProductID(newID())
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = copyProduct(product)
	return nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id domain.ProductID, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(p)
		p.UpdatedAt = s.now()
	}
	return copyProduct(p), nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id domain.ProductID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	delete(s.products, id)
	return p, nil
}

func (s *MemoryStore) SetStock(_ context.Context, id domain.ProductID, stock int) error {
	if stock < 0 {
		return repository.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock = stock
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) DecrementStock(_ context.Context, id domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return repository.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) IncrementStock(_ context.Context, id domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return repository.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock > math.MaxInt-quantity {
		return repository.ErrInvalidQuantity
	}
	p.Stock += quantity
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	order.ID = domain.OrderID(newID())
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

// ListOrders returns all orders, newest first. Ties on creation time fall
// back to id order, which follows insertion for ObjectID hex strings.
func (s *MemoryStore) ListOrders(_ context.Context) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, copyOrder(o))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, id domain.OrderID, patch domain.OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(o)
		o.UpdatedAt = s.now()
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.admins {
		if a.Username == username {
			c := *a
			return &c, nil
		}
	}
	return nil, repository.ErrAdminNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.AdminID) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, repository.ErrAdminNotFound
	}
	c := *a
	return &c, nil
}

func (s *MemoryStore) CreateAdmin(_ context.Context, admin *domain.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.admins {
		if a.Username == admin.Username {
			return repository.ErrDuplicateUsername
		}
	}
	admin.ID = domain.AdminID(newID())
	admin.CreatedAt = s.now()
	c := *admin
	s.admins[admin.ID] = &c
	return nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id domain.AdminID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[id]
	if !ok {
		return repository.ErrAdminNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}
