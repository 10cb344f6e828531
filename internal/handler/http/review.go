package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/service"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
	"github.com/utafrali/catalog-review/pkg/httputil"
	"github.com/utafrali/catalog-review/pkg/validator"
)

const notAuthorizedMessage = "you are not authorized to use this method"

// ReviewService is the review behavior the handlers depend on.
type ReviewService interface {
	AddReview(ctx context.Context, principal *domain.Principal, input service.AddReviewInput) (*domain.Review, error)
	DeleteReviewsForProduct(ctx context.Context, principal *domain.Principal, productSlug string) (int, error)
	ListReviewsForProduct(ctx context.Context, productSlug string) ([]domain.ReviewView, error)
	ListActiveReviews(ctx context.Context) ([]domain.Review, error)
}

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	Grade   int    `json:"grade" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=4000"`
}

// DeleteReviewsResponse reports how many reviews were deactivated.
type DeleteReviewsResponse struct {
	Deactivated int `json:"deactivated"`
}

// --- Handlers ---

// ListActiveReviews handles GET /reviews
func (h *ReviewHandler) ListActiveReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListActiveReviews(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, reviews)
}

// ListProductReviews handles GET /reviews/{product_slug}
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListReviewsForProduct(r.Context(), chi.URLParam(r, "product_slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, views)
}

// CreateReview handles POST /reviews/create?product_slug=
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if !principal.CanReview() {
		httputil.WriteError(w, r, apperrors.Forbidden(notAuthorizedMessage), h.logger)
		return
	}

	productSlug := r.URL.Query().Get("product_slug")
	if productSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product_slug query parameter is required"},
		})
		return
	}

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.AddReview(r.Context(), principal, service.AddReviewInput{
		ProductSlug: productSlug,
		Grade:       req.Grade,
		Comment:     req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// DeleteProductReviews handles DELETE /reviews/delete/{product_slug}
func (h *ReviewHandler) DeleteProductReviews(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	n, err := h.service.DeleteReviewsForProduct(r.Context(), principal, chi.URLParam(r, "product_slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, DeleteReviewsResponse{Deactivated: n})
}
