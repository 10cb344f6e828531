package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/database"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
type RatingRepository struct {
	db database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// SubmitGrade inserts an active rating. Grades outside 1..5 are rejected
// before reaching the database.
func (r *RatingRepository) SubmitGrade(ctx context.Context, userID, productID string, grade int) (id string, err error) {
	if err := domain.ValidateGrade(grade); err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}

	query := `INSERT INTO ratings (id, grade, user_id, product_id, is_active) VALUES ($1, $2, $3, $4, TRUE)`

	ctx, end := database.TraceQuery(ctx, "SubmitGrade", query)
	defer func() { end(err) }()

	id = uuid.NewString()
	if _, err = r.db.Exec(ctx, query, id, grade, userID, productID); err != nil {
		return "", translate(err, "insert rating")
	}
	return id, nil
}

// AverageGrade computes the mean of the active grades of a product.
func (r *RatingRepository) AverageGrade(ctx context.Context, productID string) (avg decimal.Decimal, ok bool, err error) {
	query := `SELECT COUNT(*), COALESCE(AVG(grade), 0)::text FROM ratings WHERE product_id = $1 AND is_active`

	ctx, end := database.TraceQuery(ctx, "AverageGrade", query)
	defer func() { end(err) }()

	var (
		count int
		mean  string
	)
	if err = r.db.QueryRow(ctx, query, productID).Scan(&count, &mean); err != nil {
		return decimal.Zero, false, translate(err, "average grade")
	}
	if count == 0 {
		return decimal.Zero, false, nil
	}

	avg, err = decimal.NewFromString(mean)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse average %q: %w", mean, err)
	}
	return avg, true, nil
}

// DeactivateByReview marks a rating inactive.
func (r *RatingRepository) DeactivateByReview(ctx context.Context, ratingID string) (err error) {
	query := `UPDATE ratings SET is_active = FALSE WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeactivateRating", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, ratingID); err != nil {
		return translate(err, "deactivate rating")
	}
	return nil
}
