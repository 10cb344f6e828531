package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/database"
)

const reviewColumns = `id, user_id, product_id, rating_id, comment, comment_date, is_active`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts an active review.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, rv.ID, rv.UserID, rv.ProductID, rv.RatingID, rv.Comment, rv.CommentDate)
	if err != nil {
		return translate(err, "insert review")
	}
	rv.IsActive = true
	return nil
}

// ListActiveForProduct returns the active reviews of a product. The grade is
// null when the paired rating has been deactivated.
func (r *ReviewRepository) ListActiveForProduct(ctx context.Context, productID string) (views []domain.ReviewView, err error) {
	query := `
		SELECT rv.comment, rt.grade
		FROM reviews rv
		LEFT JOIN ratings rt ON rt.id = rv.rating_id AND rt.is_active
		WHERE rv.product_id = $1 AND rv.is_active
		ORDER BY rv.comment_date, rv.id`

	ctx, end := database.TraceQuery(ctx, "ListReviewViews", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, translate(err, "list review views")
	}
	defer rows.Close()

	views = []domain.ReviewView{}
	for rows.Next() {
		var v domain.ReviewView
		if err = rows.Scan(&v.Comment, &v.Grade); err != nil {
			return nil, fmt.Errorf("scan review view row: %w", err)
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review view rows: %w", err)
	}
	return views, nil
}

// ListActive returns every active review.
func (r *ReviewRepository) ListActive(ctx context.Context) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE is_active ORDER BY comment_date, id`

	ctx, end := database.TraceQuery(ctx, "ListActiveReviews", query)
	defer func() { end(err) }()

	return r.list(ctx, "list active reviews", query)
}

// ListForProduct returns all reviews of a product regardless of state.
func (r *ReviewRepository) ListForProduct(ctx context.Context, productID string) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY comment_date, id`

	ctx, end := database.TraceQuery(ctx, "ListProductReviews", query)
	defer func() { end(err) }()

	return r.list(ctx, "list product reviews", query, productID)
}

func (r *ReviewRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.UserID, &rv.ProductID, &rv.RatingID,
			&rv.Comment, &rv.CommentDate, &rv.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// DeactivateAllForProduct marks every review of a product inactive.
func (r *ReviewRepository) DeactivateAllForProduct(ctx context.Context, productID string) (n int, err error) {
	query := `UPDATE reviews SET is_active = FALSE WHERE product_id = $1 AND is_active`

	ctx, end := database.TraceQuery(ctx, "DeactivateProductReviews", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, productID)
	if err != nil {
		return 0, translate(err, "deactivate product reviews")
	}
	return int(ct.RowsAffected()), nil
}
