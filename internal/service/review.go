package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

const notAuthorizedMessage = "you are not authorized to use this method"

// EventPublisher receives review events once the owning transaction has
// committed. Publishing is best-effort.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review, productSlug string, grade int) error
	PublishReviewsDeactivated(ctx context.Context, productID, productSlug string, count int) error
}

// AddReviewInput holds the parameters for submitting a review.
type AddReviewInput struct {
	ProductSlug string
	Grade       int
	Comment     string
}

// ReviewService orchestrates reviews, their ratings and the cached product
// rating. Every mutating operation runs in a single unit of work.
type ReviewService struct {
	uow      repository.UnitOfWork
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a new review service. events may be nil.
func NewReviewService(
	uow repository.UnitOfWork,
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	events EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		uow:      uow,
		products: products,
		reviews:  reviews,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// AddReview records a grade and a comment for a product and refreshes the
// product rating. The caller must hold the customer role.
func (s *ReviewService) AddReview(ctx context.Context, principal *domain.Principal, input AddReviewInput) (*domain.Review, error) {
	if !principal.CanReview() {
		return nil, apperrors.Forbidden(notAuthorizedMessage)
	}
	if err := domain.ValidateGrade(input.Grade); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	var review *domain.Review
	err := s.uow.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		product, err := st.Products.GetBySlug(ctx, input.ProductSlug)
		if err != nil {
			return err
		}

		ratingID, err := st.Ratings.SubmitGrade(ctx, principal.ID, product.ID, input.Grade)
		if err != nil {
			return fmt.Errorf("submit grade: %w", err)
		}

		review = &domain.Review{
			ID:          uuid.NewString(),
			UserID:      principal.ID,
			ProductID:   product.ID,
			RatingID:    ratingID,
			Comment:     input.Comment,
			CommentDate: s.now().UTC(),
		}
		if err := st.Reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}

		return refreshRating(ctx, st, product.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("user_id", review.UserID),
		slog.Int("grade", input.Grade),
	)

	if s.events != nil {
		if err := s.events.PublishReviewCreated(ctx, review, input.ProductSlug, input.Grade); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review created event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return review, nil
}

// DeleteReviewsForProduct deactivates every review of a product together
// with its rating and returns how many reviews were active before the call.
// The product rating is left as it was.
func (s *ReviewService) DeleteReviewsForProduct(ctx context.Context, principal *domain.Principal, productSlug string) (int, error) {
	var (
		product     *domain.Product
		deactivated int
	)
	err := s.uow.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		var err error
		product, err = st.Products.GetBySlug(ctx, productSlug)
		if err != nil {
			return err
		}
		if !principal.CanModerateReviews() {
			return apperrors.Forbidden(notAuthorizedMessage)
		}

		reviews, err := st.Reviews.ListForProduct(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("list product reviews: %w", err)
		}
		if len(reviews) == 0 {
			return apperrors.NotFoundMessage("no reviews found for this product")
		}

		for _, rv := range reviews {
			if err := st.Ratings.DeactivateByReview(ctx, rv.RatingID); err != nil {
				return fmt.Errorf("deactivate rating %s: %w", rv.RatingID, err)
			}
		}

		deactivated, err = st.Reviews.DeactivateAllForProduct(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("deactivate reviews: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "reviews deactivated",
		slog.String("product_id", product.ID),
		slog.Int("count", deactivated),
	)

	if s.events != nil && deactivated > 0 {
		if err := s.events.PublishReviewsDeactivated(ctx, product.ID, productSlug, deactivated); err != nil {
			s.logger.WarnContext(ctx, "failed to publish reviews deactivated event",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return deactivated, nil
}

// ListReviewsForProduct returns the active reviews of a product with their
// grades. An unknown product is an error; a product without reviews is not.
func (s *ReviewService) ListReviewsForProduct(ctx context.Context, productSlug string) ([]domain.ReviewView, error) {
	product, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, err
	}

	views, err := s.reviews.ListActiveForProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if views == nil {
		views = []domain.ReviewView{}
	}
	return views, nil
}

// ListActiveReviews returns every active review.
func (s *ReviewService) ListActiveReviews(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// RecomputeRating sets the product rating to the mean of its active grades,
// or to zero when none remain.
func (s *ReviewService) RecomputeRating(ctx context.Context, productID string) error {
	return s.uow.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		avg, ok, err := st.Ratings.AverageGrade(ctx, productID)
		if err != nil {
			return fmt.Errorf("average grade: %w", err)
		}
		if !ok {
			avg = decimal.Zero
		}
		if err := st.Products.UpdateRating(ctx, productID, avg); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		return nil
	})
}

// refreshRating writes the current mean grade back to the product. A product
// without active ratings keeps its stored value.
func refreshRating(ctx context.Context, st repository.Stores, productID string) error {
	avg, ok, err := st.Ratings.AverageGrade(ctx, productID)
	if err != nil {
		return fmt.Errorf("average grade: %w", err)
	}
	if !ok {
		return nil
	}
	if err := st.Products.UpdateRating(ctx, productID, avg); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}
