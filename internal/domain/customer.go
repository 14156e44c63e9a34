package domain

import "time"

// Customer doubles as the authenticated principal passed into every
// customer-scoped operation.
type Customer struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Admin     bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
