package wishlist

import (
	"context"
	"database/sql"
	"errors"

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

func (r *Repository) List(ctx context.Context, customerID string) ([]domain.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, product_id
		FROM wishlist_items
		WHERE customer_id = $1
		ORDER BY id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.ProductID); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Add inserts the pairing. ErrDuplicate when the product is already listed,
// ErrNotFound when the product does not exist.
func (r *Repository) Add(ctx context.Context, customerID, productID string) (*domain.WishlistItem, error) {
	item := &domain.WishlistItem{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		ProductID:  productID,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (id, customer_id, product_id)
		VALUES ($1, $2, $3)
	`, item.ID, item.CustomerID, item.ProductID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, domain.ErrDuplicate
			case "foreign_key_violation":
				return nil, domain.ErrNotFound
			}
		}
		return nil, err
	}

	return item, nil
}

func (r *Repository) Remove(ctx context.Context, customerID, productID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM wishlist_items
		WHERE customer_id = $1 AND product_id = $2
	`, customerID, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
