package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *Repository) ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, category_id, description, available_quantity
		FROM products
		ORDER BY name
	`
	args := []any{}
	if categoryID != "" {
		query = `
			SELECT id, name, price, category_id, description, available_quantity
			FROM products
			WHERE category_id = $1
			ORDER BY name
		`
		args = append(args, categoryID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, category_id, description, available_quantity
		FROM products
		WHERE id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, category_id, description, available_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, product.Name, product.Price, product.CategoryID, product.Description, product.AvailableQuantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// OptionalString keeps an explicit JSON null apart from an absent field, so a
// patch can clear a nullable column.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

type ProductPatch struct {
	Name              *string        `json:"name"`
	Price             *int64         `json:"price"`
	CategoryID        OptionalString `json:"category_id"`
	Description       *string        `json:"description"`
	AvailableQuantity *int           `json:"available_quantity"`
}

func (r *Repository) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = COALESCE($2, name),
		    price = COALESCE($3, price),
		    category_id = CASE WHEN $4::bool THEN $5 ELSE category_id END,
		    description = COALESCE($6, description),
		    available_quantity = COALESCE($7, available_quantity)
		WHERE id = $1
	`, id, patch.Name, patch.Price, patch.CategoryID.Set, patch.CategoryID.Value, patch.Description, patch.AvailableQuantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetProduct(ctx, id)
}

// DeleteProduct removes the row; cart lines and order items referencing it
// keep their rows with product_id set to NULL.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
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

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{ID: uuid.New().String(), Name: name}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES ($1, $2)
	`, category.ID, category.Name)
	if err != nil {
		return nil, err
	}

	return category, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	product := &domain.Product{}
	var categoryID sql.NullString

	err := row.Scan(&product.ID, &product.Name, &product.Price, &categoryID, &product.Description, &product.AvailableQuantity)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		product.CategoryID = &categoryID.String
	}

	return product, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}
