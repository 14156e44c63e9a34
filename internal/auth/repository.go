package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
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

func (r *Repository) CreateCustomer(ctx context.Context, username, email string, passwordHash []byte, admin bool) (*domain.Customer, error) {
	customer := &domain.Customer{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Admin:    admin,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, customer.ID, username, email, string(passwordHash), admin).Scan(&customer.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}

	return customer, nil
}

// CredentialsByEmail returns the customer and its password hash, or
// ErrNotFound for an unknown email.
func (r *Repository) CredentialsByEmail(ctx context.Context, email string) (*domain.Customer, string, error) {
	customer := &domain.Customer{}
	var hash string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, created_at
		FROM customers
		WHERE email = $1
	`, email).Scan(&customer.ID, &customer.Username, &customer.Email, &hash, &customer.Admin, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}

	return customer, hash, nil
}

func (r *Repository) CreateToken(ctx context.Context, customerID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (token, customer_id)
		VALUES ($1, $2)
	`, token, customerID)
	if err != nil {
		return "", err
	}

	return token, nil
}

// EnsureWorkerToken provisions the fulfillment service account: an admin
// customer upserted by email, with the supplied token bound to it. Repeated
// calls are idempotent, so the API can run it on every startup.
func (r *Repository) EnsureWorkerToken(ctx context.Context, token string) error {
	var customerID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, username, email, password_hash, is_admin)
		VALUES ($1, 'fulfillment', 'fulfillment@internal', '', TRUE)
		ON CONFLICT (email) DO UPDATE SET is_admin = TRUE
		RETURNING id
	`, uuid.New().String()).Scan(&customerID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tokens (token, customer_id)
		VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET customer_id = EXCLUDED.customer_id
	`, token, customerID)
	return err
}

func (r *Repository) CustomerByToken(ctx context.Context, token string) (*domain.Customer, error) {
	customer := &domain.Customer{}

	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.username, c.email, c.is_admin, c.created_at
		FROM tokens t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.token = $1
	`, token).Scan(&customer.ID, &customer.Username, &customer.Email, &customer.Admin, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return customer, nil
}
