package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
)

// ProductRepository defines product persistence.
type ProductRepository interface {
	// GetBySlug returns the product with the given slug or a not-found error.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// GetByID returns the product with the given id or a not-found error.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// ListAvailable returns active products with stock left.
	ListAvailable(ctx context.Context) ([]domain.Product, error)

	// ListByCategories returns active in-stock products in any of the given categories.
	ListByCategories(ctx context.Context, categoryIDs []string) ([]domain.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// UpdateRating overwrites the cached rating of a product.
	UpdateRating(ctx context.Context, productID string, rating decimal.Decimal) error
}

// CategoryRepository defines category persistence.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// ListChildren returns active direct subcategories of parentID.
	ListChildren(ctx context.Context, parentID string) ([]domain.Category, error)

	ListActive(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error

	// Deactivate soft-deletes a category.
	Deactivate(ctx context.Context, id string) error
}

// UserRepository defines account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RatingRepository defines rating persistence.
type RatingRepository interface {
	// SubmitGrade stores a new active rating and returns its id. Grades
	// outside 1..5 are rejected.
	SubmitGrade(ctx context.Context, userID, productID string, grade int) (string, error)

	// AverageGrade returns the mean grade over the active ratings of a
	// product. ok is false when the product has no active ratings.
	AverageGrade(ctx context.Context, productID string) (avg decimal.Decimal, ok bool, err error)

	// DeactivateByReview marks the rating paired with a review inactive. Repeating it
	// is a no-op.
	DeactivateByReview(ctx context.Context, ratingID string) error
}

// ReviewRepository defines review persistence.
type ReviewRepository interface {
	// Create stores a new active review.
	Create(ctx context.Context, review *domain.Review) error

	// ListActiveForProduct returns active reviews of a product joined with
	// their grade, ordered by comment date.
	ListActiveForProduct(ctx context.Context, productID string) ([]domain.ReviewView, error)

	// ListActive returns every active review.
	ListActive(ctx context.Context) ([]domain.Review, error)

	// ListForProduct returns all reviews of a product, active or not.
	ListForProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// DeactivateAllForProduct marks every review of a product inactive and
	// returns how many were active before the call.
	DeactivateAllForProduct(ctx context.Context, productID string) (int, error)
}

// Stores is the set of repositories bound to a single transaction.
type Stores struct {
	Products ProductRepository
	Ratings  RatingRepository
	Reviews  ReviewRepository
}

// UnitOfWork runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so either every write made through
// the Stores is visible or none is.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// IdempotencyRepository remembers responses by client supplied key.
type IdempotencyRepository interface {
	// Get returns the response stored under key or a not-found error.
	Get(ctx context.Context, key string) (*domain.StoredResponse, error)

	// Save stores resp under key unless the key is already taken. It reports
	// whether resp was stored.
	Save(ctx context.Context, key string, resp *domain.StoredResponse) (bool, error)
}
