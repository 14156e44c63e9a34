package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Snkb-ch/store/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Place converts the customer's cart into an order. The cart read, order
// insert, item inserts and cart delete run in one transaction: a failure at
// any point leaves the cart intact and no order behind. The snapshot locks
// the rows it reads and the delete targets those rows by id, so a line added
// concurrently is neither ordered nor lost.
func (r *Repository) Place(ctx context.Context, customer domain.Customer) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, quantity
		FROM cart_items
		WHERE customer_id = $1
		ORDER BY created_at
		FOR UPDATE
	`, customer.ID)
	if err != nil {
		return nil, err
	}

	type cartLine struct {
		id        string
		productID sql.NullString
		quantity  int
	}
	var lines []cartLine
	var lineIDs []string
	for rows.Next() {
		var line cartLine
		if err := rows.Scan(&line.id, &line.productID, &line.quantity); err != nil {
			_ = rows.Close()
			return nil, err
		}
		lines = append(lines, line)
		lineIDs = append(lineIDs, line.id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	orderID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, orderID, customer.ID, domain.OrderStatusCreated, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)
		`, uuid.New().String(), orderID, line.productID, line.quantity)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = ANY($1)
	`, pq.Array(lineIDs))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, orderID)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var customerID, shippingAddressID, transactionID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, shipping_address_id, transaction_id, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &customerID, &order.Status, &shippingAddressID, &transactionID, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	order.CustomerID = nullable(customerID)
	order.ShippingAddressID = nullable(shippingAddressID)
	order.TransactionID = nullable(transactionID)

	// Item totals use the product's current price, not a price frozen at
	// checkout. Deliberate; see DESIGN.md.
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.product_id, COALESCE(p.name, ''), COALESCE(p.price, 0),
		       oi.quantity, COALESCE(p.price, 0) * oi.quantity
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		item := domain.OrderItem{}
		var productID sql.NullString
		if err := rows.Scan(&item.ID, &productID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Total); err != nil {
			return nil, err
		}
		item.ProductID = nullable(productID)
		order.Items = append(order.Items, item)
		order.Total += item.Total
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns all orders for administrators and only the requester's own
// orders otherwise.
func (r *Repository) List(ctx context.Context, requester domain.Customer) ([]domain.Order, error) {
	if requester.Admin {
		return r.collect(ctx, `
			SELECT id, customer_id, status, shipping_address_id, transaction_id, created_at
			FROM orders
			ORDER BY created_at DESC
		`)
	}
	return r.collect(ctx, `
		SELECT id, customer_id, status, shipping_address_id, transaction_id, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, requester.ID)
}

func (r *Repository) ListActive(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.collect(ctx, `
		SELECT id, customer_id, status, shipping_address_id, transaction_id, created_at
		FROM orders
		WHERE customer_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
	`, customerID, pq.Array([]string{
		string(domain.OrderStatusCreated),
		string(domain.OrderStatusProcessing),
	}))
}

// Cancel applies the owner-initiated cancellation transition under a row
// lock. No side effects on failure.
func (r *Repository) Cancel(ctx context.Context, orderID string, requester domain.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var customerID sql.NullString
	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id, status FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&customerID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	owner := customerID.Valid && customerID.String == requester.ID
	if !owner && !requester.Admin {
		return domain.ErrForbidden
	}

	if !status.Cancellable() {
		return domain.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2
	`, domain.OrderStatusCancelled, orderID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateStatus applies an administrator transition, validated against the
// status state machine.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if !current.CanTransitionTo(next) {
		return nil, domain.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2
	`, next, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, orderID)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order := domain.Order{Items: []domain.OrderItem{}}
		var customerID, shippingAddressID, transactionID sql.NullString
		if err := rows.Scan(&order.ID, &customerID, &order.Status, &shippingAddressID, &transactionID, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.CustomerID = nullable(customerID)
		order.ShippingAddressID = nullable(shippingAddressID)
		order.TransactionID = nullable(transactionID)
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, COALESCE(p.name, ''),
		       COALESCE(p.price, 0), oi.quantity, COALESCE(p.price, 0) * oi.quantity
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		item := domain.OrderItem{}
		var productID sql.NullString
		if err := itemRows.Scan(&orderID, &item.ID, &productID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Total); err != nil {
			return nil, err
		}
		item.ProductID = nullable(productID)
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
		order.Total += item.Total
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
