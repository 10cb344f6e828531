package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/database"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

const categoryColumns = `id, name, slug, parent_id, is_active`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (c *domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategoryByID", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, id)
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (c *domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategoryBySlug", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, slug)
}

func (r *CategoryRepository) getOne(ctx context.Context, query, key string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRow(ctx, query, key).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("category", key)
	}
	if err != nil {
		return nil, translate(err, "get category")
	}
	return &c, nil
}

func (r *CategoryRepository) ListChildren(ctx context.Context, parentID string) (categories []domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = $1 AND is_active ORDER BY name, id`

	ctx, end := database.TraceQuery(ctx, "ListChildCategories", query)
	defer func() { end(err) }()

	return r.list(ctx, "list child categories", query, parentID)
}

func (r *CategoryRepository) ListActive(ctx context.Context) (categories []domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active ORDER BY name, id`

	ctx, end := database.TraceQuery(ctx, "ListActiveCategories", query)
	defer func() { end(err) }()

	return r.list(ctx, "list active categories", query)
}

func (r *CategoryRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	query := `INSERT INTO categories (id, name, slug, parent_id, is_active) VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.Name, c.Slug, c.ParentID, c.IsActive)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return translate(err, "insert category")
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	query := `UPDATE categories SET name = $1, slug = $2, parent_id = $3 WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, c.Name, c.Slug, c.ParentID, c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return translate(err, "update category")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id string) (err error) {
	query := `UPDATE categories SET is_active = FALSE WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeactivateCategory", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return translate(err, "deactivate category")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}
