package domain

import "time"

// OrderID is the hex form of an order's document id.
type OrderID string

// OrderStatus is free-form: admins may set any value. Only pending is assigned by the system.
type OrderStatus string

const OrderStatusPending OrderStatus = "pending"

type LineItem struct {
	ProductID ProductID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type Order struct {
	ID           OrderID     `json:"id"`
	CustomerName string      `json:"customerName"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	Items        []LineItem  `json:"products"`
	TotalAmount  float64     `json:"totalAmount"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// OrderPatch carries the admin-editable fields of an order. Nil means unchanged.
type OrderPatch struct {
	CustomerName *string
	Phone        *string
	Address      *string
	Status       *OrderStatus
}

func (u OrderPatch) Apply(o *Order) {
	if u.CustomerName != nil {
		o.CustomerName = *u.CustomerName
	}
	if u.Phone != nil {
		o.Phone = *u.Phone
	}
	if u.Address != nil {
		o.Address = *u.Address
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
}

func (u OrderPatch) IsEmpty() bool {
	return u.CustomerName == nil && u.Phone == nil && u.Address == nil && u.Status == nil
}

// ResolvedLineItem is a line item with its product looked up. Product is nil
// when the product has since been deleted.
type ResolvedLineItem struct {
	ProductID ProductID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product"`
}

// OrderView is an order with its line items resolved against the catalog.
type OrderView struct {
	ID           OrderID            `json:"id"`
	CustomerName string             `json:"customerName"`
	Phone        string             `json:"phone"`
	Address      string             `json:"address"`
	Items        []ResolvedLineItem `json:"products"`
	TotalAmount  float64            `json:"totalAmount"`
	Status       OrderStatus        `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
