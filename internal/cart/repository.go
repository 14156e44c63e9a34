package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Snkb-ch/store/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const lineQuery = `
	SELECT ci.id, ci.product_id, COALESCE(p.name, ''), COALESCE(p.price, 0),
	       ci.quantity, COALESCE(p.price, 0) * ci.quantity, ci.created_at
	FROM cart_items ci
	LEFT JOIN products p ON p.id = ci.product_id
	WHERE ci.customer_id = $1 AND ci.product_id = $2
`

// Add creates the (customer, product) line or increments its quantity. The
// upsert is a single statement, so concurrent adds for the same line
// serialize on the row instead of losing updates.
func (r *Repository) Add(ctx context.Context, customerID, productID string, quantity int) (*domain.CartItem, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
	`, productID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, customer_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.New().String(), customerID, productID, quantity)
	if err != nil {
		return nil, err
	}

	return r.line(ctx, customerID, productID)
}

func (r *Repository) Remove(ctx context.Context, customerID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE customer_id = $1 AND product_id = $2
	`, customerID, productID)
	return err
}

// Increase adds 1 to the line's quantity. A missing line is a no-op and
// returns a nil item.
func (r *Repository) Increase(ctx context.Context, customerID, productID string) (*domain.CartItem, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = quantity + 1
		WHERE customer_id = $1 AND product_id = $2
		RETURNING id
	`, customerID, productID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return r.line(ctx, customerID, productID)
}

// Decrease subtracts 1, deleting the line when the quantity would hit zero.
// The row is locked for the read-modify-write so concurrent decrements
// cannot drop below one.
func (r *Repository) Decrease(ctx context.Context, customerID, productID string) (*domain.CartItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	var quantity int
	err = tx.QueryRowContext(ctx, `
		SELECT id, quantity FROM cart_items
		WHERE customer_id = $1 AND product_id = $2
		FOR UPDATE
	`, customerID, productID).Scan(&id, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	deleted := quantity <= 1
	if deleted {
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE cart_items SET quantity = quantity - 1 WHERE id = $1`, id)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if deleted {
		return nil, nil
	}
	return r.line(ctx, customerID, productID)
}

// SetQuantity sets an absolute quantity on an existing line; missing lines
// are a no-op. Callers validate quantity >= 1.
func (r *Repository) SetQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.CartItem, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE customer_id = $1 AND product_id = $2
		RETURNING id
	`, customerID, productID, quantity).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return r.line(ctx, customerID, productID)
}

func (r *Repository) Clear(ctx context.Context, customerID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE customer_id = $1
	`, customerID)
	return err
}

// List returns the customer's lines with totals computed from current
// product prices.
func (r *Repository) List(ctx context.Context, customerID string) (*domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, COALESCE(p.name, ''), COALESCE(p.price, 0),
		       ci.quantity, COALESCE(p.price, 0) * ci.quantity, ci.created_at
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.customer_id = $1
		ORDER BY ci.created_at
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cart := &domain.Cart{Items: []domain.CartItem{}}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, *item)
		cart.Total += item.Total
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *Repository) line(ctx context.Context, customerID, productID string) (*domain.CartItem, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, lineQuery, customerID, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	var productID sql.NullString

	err := row.Scan(&item.ID, &productID, &item.Name, &item.UnitPrice,
		&item.Quantity, &item.Total, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	if productID.Valid {
		item.ProductID = &productID.String
	}
	return item, nil
}
