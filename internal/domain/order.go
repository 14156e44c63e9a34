package domain

import "time"

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "Created"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// transitions holds the allowed next statuses. Delivered and Cancelled are
// terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owner may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// Active means the order is still being worked on: Created or Processing.
func (s OrderStatus) Active() bool {
	return s == OrderStatusCreated || s == OrderStatusProcessing
}

type OrderItem struct {
	ID        string  `json:"id"`
	ProductID *string `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice int64   `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Total     int64   `json:"total"`
}

type Order struct {
	ID                string      `json:"id"`
	CustomerID        *string     `json:"customer_id"`
	Status            OrderStatus `json:"status"`
	ShippingAddressID *string     `json:"shipping_address_id,omitempty"`
	TransactionID     *string     `json:"transaction_id,omitempty"`
	Items             []OrderItem `json:"items"`
	Total             int64       `json:"total"`
	CreatedAt         time.Time   `json:"created_at"`
}
