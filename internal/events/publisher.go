package events

import (
	"context"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

// OrderCreatedTopic is the topic order-created events are written to.
const OrderCreatedTopic = "order-created"

const EventTypeOrderCreated = "order.created"

// Publisher announces committed orders. Delivery is best effort.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	Close() error
}

// OrderCreated is the JSON payload of an order-created event.
type OrderCreated struct {
	OrderID     domain.OrderID     `json:"order_id"`
	Items       []domain.LineItem  `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewOrderCreated(order *domain.Order) OrderCreated {
	return OrderCreated{
		OrderID:     order.ID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

func (NopPublisher) Close() error { return nil }
