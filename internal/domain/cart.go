package domain

import "time"

// CartItem is one (customer, product) line. Total is computed from the
// product's current price at read time, not stored.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID *string   `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

type Cart struct {
	Items []CartItem `json:"items"`
	Total int64      `json:"total"`
}
