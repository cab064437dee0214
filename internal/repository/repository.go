package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid stock quantity")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAdminNotFound     = errors.New("admin not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

// ProductRepository is the catalog store.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	// GetProducts returns the subset of ids that exist, keyed by id.
	GetProducts(ctx context.Context, ids []domain.ProductID) (map[domain.ProductID]*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id domain.ProductID, patch domain.ProductPatch) (*domain.Product, error)
	// DeleteProduct removes the product and returns it as it was before deletion.
	DeleteProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)

	// SetStock overwrites the stock count. Negative counts are rejected with ErrInvalidQuantity.
	SetStock(ctx context.Context, id domain.ProductID, stock int) error
	// DecrementStock subtracts quantity only if the current stock covers it.
	// Returns ErrInsufficientStock when it does not; stock is never taken below zero.
	// Decrement and increment reject quantity <= 0 with ErrInvalidQuantity.
	DecrementStock(ctx context.Context, id domain.ProductID, quantity int) error
	IncrementStock(ctx context.Context, id domain.ProductID, quantity int) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	// ListOrders returns all orders, newest first.
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, id domain.OrderID, patch domain.OrderPatch) (*domain.Order, error)
}

// AdminRepository is the credential store.
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
	FindByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, admin *domain.Admin) error
	UpdatePassword(ctx context.Context, id domain.AdminID, passwordHash string) error
}
