package domain

// Product prices are integer cents.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Price             int64   `json:"price"`
	CategoryID        *string `json:"category_id"`
	Description       string  `json:"description"`
	AvailableQuantity int     `json:"available_quantity"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
