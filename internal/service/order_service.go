package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/shopspring/decimal"
)

// StockPolicy selects how PlaceOrder checks and decrements stock.
type StockPolicy string

const (
	// StockPolicyAtomic validates every line item up front and decrements with
	// a conditional update at the store. A failed order leaves stock unchanged
	// and concurrent orders cannot oversell.
	StockPolicyAtomic StockPolicy = "atomic"

	// StockPolicySequential fetches, checks and overwrites stock one line item
	// at a time. Decrements made before a failing item are kept, and two
	// concurrent orders can both pass the check and oversell.
	StockPolicySequential StockPolicy = "sequential"
)

func ParseStockPolicy(s string) (StockPolicy, error) {
	switch p := StockPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case StockPolicyAtomic, StockPolicySequential:
		return p, nil
	case "":
		return StockPolicyAtomic, nil
	default:
		return "", fmt.Errorf("unknown stock policy %q", s)
	}
}

// MaxLineQuantity is the largest quantity a single line item may request.
const MaxLineQuantity = 10_000

// PlaceOrderInput is a public order request.
type PlaceOrderInput struct {
	CustomerName string
	Phone        string
	Address      string
	Products     []domain.LineItem
	TotalAmount  decimal.Decimal
}

// OrderFields is an admin edit of an order. Nil fields are left unchanged.
type OrderFields struct {
	CustomerName *string
	Phone        *string
	Address      *string
	Status       *string
}

type OrderService struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	cache     cache.ProductListCache
	publisher events.Publisher
	policy    StockPolicy
	log       *slog.Logger
}

func NewOrderService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	c cache.ProductListCache,
	publisher events.Publisher,
	policy StockPolicy,
	log *slog.Logger,
) *OrderService {
	if c == nil {
		c = cache.NopCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if policy == "" {
		policy = StockPolicyAtomic
	}
	return &OrderService{
		products:  products,
		orders:    orders,
		cache:     c,
		publisher: publisher,
		policy:    policy,
		log:       log,
	}
}

func (s *OrderService) Policy() StockPolicy {
	return s.policy
}

func validatePlaceOrder(in PlaceOrderInput) error {
	var v validator
	v.required("customerName", in.CustomerName)
	v.required("phone", in.Phone)
	v.required("address", in.Address)
	if len(in.Products) == 0 {
		v.add("products", "must contain at least one item")
	}
	for i, item := range in.Products {
		if strings.TrimSpace(string(item.ProductID)) == "" {
			v.add(fmt.Sprintf("products[%d].productId", i), "is required")
		}
		switch {
		case item.Quantity <= 0:
			v.add(fmt.Sprintf("products[%d].quantity", i), "must be greater than zero")
		case item.Quantity > MaxLineQuantity:
			v.add(fmt.Sprintf("products[%d].quantity", i), fmt.Sprintf("must not exceed %d", MaxLineQuantity))
		}
	}
	validateMoney(&v, "totalAmount", in.TotalAmount)
	return v.err()
}

// PlaceOrder validates the request, takes the requested quantities out of
// stock and stores the order as pending.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerName: strings.TrimSpace(in.CustomerName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Items:        append([]domain.LineItem(nil), in.Products...),
		TotalAmount:  roundMoney(in.TotalAmount),
		Status:       domain.OrderStatusPending,
	}

	var err error
	switch s.policy {
	case StockPolicySequential:
		err = s.placeSequential(ctx, order)
	default:
		err = s.placeAtomic(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	invalidateProductCache(ctx, s.cache, s.log)
	if errPub := s.publisher.PublishOrderCreated(ctx, order); errPub != nil {
		s.log.WarnContext(ctx, "failed to publish order event", "order_id", order.ID, "error", errPub)
	}
	s.log.InfoContext(ctx, "order placed", "order_id", order.ID, "items", len(order.Items), "policy", string(s.policy))
	return order, nil
}

type stockClaim struct {
	productID domain.ProductID
	quantity  int
}

func (s *OrderService) placeAtomic(ctx context.Context, order *domain.Order) error {
	// Sum quantities per product, keeping first-seen order.
	claims := make([]stockClaim, 0, len(order.Items))
	index := make(map[domain.ProductID]int, len(order.Items))
	for _, item := range order.Items {
		if i, ok := index[item.ProductID]; ok {
			if claims[i].quantity > math.MaxInt-item.Quantity {
				return &ValidationError{Fields: map[string]string{"products": "total quantity for " + string(item.ProductID) + " is too large"}}
			}
			claims[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(claims)
		claims = append(claims, stockClaim{productID: item.ProductID, quantity: item.Quantity})
	}

	for _, c := range claims {
		product, err := s.products.GetProduct(ctx, c.productID)
		if err != nil {
			return productLookupError(c.productID, err)
		}
		if product.Stock < c.quantity {
			return insufficientStockError(product, c.quantity)
		}
	}

	applied := make([]stockClaim, 0, len(claims))
	for _, c := range claims {
		if err := s.products.DecrementStock(ctx, c.productID, c.quantity); err != nil {
			s.restoreStock(ctx, applied)
			switch {
			case errors.Is(err, repository.ErrInsufficientStock):
				return fmt.Errorf("%w: product %s", repository.ErrInsufficientStock, c.productID)
			case errors.Is(err, repository.ErrProductNotFound):
				return fmt.Errorf("%w: %s", repository.ErrProductNotFound, c.productID)
			default:
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
		}
		applied = append(applied, c)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.restoreStock(ctx, applied)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *OrderService) placeSequential(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return productLookupError(item.ProductID, err)
		}
		if product.Stock < item.Quantity {
			return insufficientStockError(product, item.Quantity)
		}
		if err := s.products.SetStock(ctx, product.ID, product.Stock-item.Quantity); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// restoreStock gives back quantities already taken by a failed order.
func (s *OrderService) restoreStock(ctx context.Context, applied []stockClaim) {
	ctx = context.WithoutCancel(ctx)
	for _, c := range applied {
		if err := s.products.IncrementStock(ctx, c.productID, c.quantity); err != nil {
			s.log.ErrorContext(ctx, "failed to restore stock", "product_id", c.productID, "quantity", c.quantity, "error", err)
		}
	}
}

func productLookupError(id domain.ProductID, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return fmt.Errorf("%w: %s", repository.ErrProductNotFound, id)
	}
	return fmt.Errorf("failed to load product %s: %w", id, err)
}

func insufficientStockError(p *domain.Product, requested int) error {
	return fmt.Errorf("%w: product %s has %d, requested %d", repository.ErrInsufficientStock, p.ID, p.Stock, requested)
}

// ListOrders returns every order, newest first, with line items resolved
// against the current catalog.
func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.OrderView, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[domain.ProductID]bool)
	ids := make([]domain.ProductID, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.OrderView, 0, len(orders))
	for _, o := range orders {
		items := make([]domain.ResolvedLineItem, len(o.Items))
		for i, item := range o.Items {
			items[i] = domain.ResolvedLineItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Product:   products[item.ProductID],
			}
		}
		views = append(views, &domain.OrderView{
			ID:           o.ID,
			CustomerName: o.CustomerName,
			Phone:        o.Phone,
			Address:      o.Address,
			Items:        items,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
			UpdatedAt:    o.UpdatedAt,
		})
	}
	return views, nil
}

func (s *OrderService) UpdateOrder(ctx context.Context, id domain.OrderID, in OrderFields) (*domain.Order, error) {
	var v validator
	if in.CustomerName != nil {
		v.required("customerName", *in.CustomerName)
	}
	if in.Phone != nil {
		v.required("phone", *in.Phone)
	}
	if in.Address != nil {
		v.required("address", *in.Address)
	}
	if in.Status != nil {
		v.required("status", *in.Status)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	patch := domain.OrderPatch{
		CustomerName: in.CustomerName,
		Phone:        in.Phone,
		Address:      in.Address,
	}
	if in.Status != nil {
		status := domain.OrderStatus(strings.TrimSpace(*in.Status))
		patch.Status = &status
	}

	order, err := s.orders.UpdateOrder(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "order updated", "order_id", id, "status", string(order.Status))
	return order, nil
}
