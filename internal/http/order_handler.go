package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.OrderView, error)
	UpdateOrder(ctx context.Context, id domain.OrderID, in service.OrderFields) (*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	timeout time.Duration
	log     *slog.Logger
}

func NewOrderHandler(orders OrderService, timeout time.Duration, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
		log:     log,
	}
}

type OrderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequestDTO struct {
	CustomerName string          `json:"customerName"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Products     []OrderItemDTO  `json:"products"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

type UpdateOrderRequestDTO struct {
	CustomerName *string `json:"customerName"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	Status       *string `json:"status"`
}

// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := decodeJSONBody(w, r, placeOrderSchema, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	items := make([]domain.LineItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = domain.LineItem{ProductID: domain.ProductID(p.ProductID), Quantity: p.Quantity}
	}

	order, err := h.orders.PlaceOrder(ctx, service.PlaceOrderInput{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Products:     items,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// PUT /api/orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := domain.OrderID(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing order id", "")
		return
	}

	var req UpdateOrderRequestDTO
	if err := decodeJSONBody(w, r, updateOrderSchema, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	order, err := h.orders.UpdateOrder(ctx, id, service.OrderFields{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Status:       req.Status,
	})
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
