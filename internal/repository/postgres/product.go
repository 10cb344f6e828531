package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/database"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

const productColumns = `id, name, slug, description, price::text, image_url, stock, category_id, supplier_id, is_active, rating::text`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	ctx, end := database.TraceQuery(ctx, "GetProductBySlug", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", slug)
	}
	if err != nil {
		return nil, translate(err, "get product by slug")
	}
	return p, nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProductByID", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", id)
	}
	if err != nil {
		return nil, translate(err, "get product by id")
	}
	return p, nil
}

// ListAvailable returns active products that are in stock.
func (r *ProductRepository) ListAvailable(ctx context.Context) (products []domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active AND stock > 0 ORDER BY name, id`

	ctx, end := database.TraceQuery(ctx, "ListAvailableProducts", query)
	defer func() { end(err) }()

	return r.list(ctx, "list available products", query)
}

// ListByCategories returns active in-stock products belonging to any of categoryIDs.
func (r *ProductRepository) ListByCategories(ctx context.Context, categoryIDs []string) (products []domain.Product, err error) {
	if len(categoryIDs) == 0 {
		return []domain.Product{}, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active AND stock > 0 AND category_id = ANY($1) ORDER BY name, id`

	ctx, end := database.TraceQuery(ctx, "ListProductsByCategories", query)
	defer func() { end(err) }()

	return r.list(ctx, "list products by categories", query, categoryIDs)
}

func (r *ProductRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, slug, description, price, image_url, stock, category_id, supplier_id, is_active, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Price.String(),
		p.ImageURL,
		p.Stock,
		p.CategoryID,
		p.SupplierID,
		p.IsActive,
		p.Rating.String(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return translate(err, "insert product")
	}
	return nil
}

// UpdateRating overwrites the cached rating of a product.
func (r *ProductRepository) UpdateRating(ctx context.Context, productID string, rating decimal.Decimal) (err error) {
	query := `UPDATE products SET rating = $1 WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "UpdateProductRating", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, rating.String(), productID)
	if err != nil {
		return translate(err, "update product rating")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}
	return nil
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p             domain.Product
		price, rating string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&price,
		&p.ImageURL,
		&p.Stock,
		&p.CategoryID,
		&p.SupplierID,
		&p.IsActive,
		&rating,
	); err != nil {
		return nil, err
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if p.Rating, err = decimal.NewFromString(rating); err != nil {
		return nil, fmt.Errorf("parse rating %q: %w", rating, err)
	}
	return &p, nil
}
