package reviews

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

func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return r.list(ctx, `
		SELECT id, product_id, customer_id, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Review, error) {
	return r.list(ctx, `
		SELECT id, product_id, customer_id, rating, comment, created_at
		FROM reviews
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
}

func (r *Repository) Create(ctx context.Context, productID, customerID string, rating int, comment string) (*domain.Review, error) {
	review := &domain.Review{
		ID:         uuid.New().String(),
		ProductID:  productID,
		CustomerID: customerID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, review.ID, review.ProductID, review.CustomerID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return review, nil
}

// Update rewrites rating and comment, but only for the review's author.
// ErrForbidden is returned when the review exists under someone else.
func (r *Repository) Update(ctx context.Context, reviewID, customerID string, rating int, comment string) (*domain.Review, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $3, comment = $4
		WHERE id = $1 AND customer_id = $2
	`, reviewID, customerID, rating, comment)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, r.missingOrForbidden(ctx, reviewID)
	}

	return r.get(ctx, reviewID)
}

func (r *Repository) Delete(ctx context.Context, reviewID, customerID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM reviews WHERE id = $1 AND customer_id = $2
	`, reviewID, customerID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return r.missingOrForbidden(ctx, reviewID)
	}

	return nil
}

func (r *Repository) missingOrForbidden(ctx context.Context, reviewID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)
	`, reviewID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrForbidden
	}
	return domain.ErrNotFound
}

func (r *Repository) get(ctx context.Context, reviewID string) (*domain.Review, error) {
	review := &domain.Review{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, customer_id, rating, comment, created_at
		FROM reviews
		WHERE id = $1
	`, reviewID).Scan(&review.ID, &review.ProductID, &review.CustomerID, &review.Rating, &review.Comment, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.CustomerID, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}
