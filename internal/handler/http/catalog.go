package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/auth"
	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/service"
	"github.com/utafrali/catalog-review/pkg/httputil"
	"github.com/utafrali/catalog-review/pkg/middleware"
	"github.com/utafrali/catalog-review/pkg/validator"
)

// CatalogService is the category and product behavior the handlers depend on.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, principal *domain.Principal, input service.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, principal *domain.Principal, id string, input service.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, principal *domain.Principal, id string) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, principal *domain.Principal, input service.CreateProductInput) (*domain.Product, error)
	ProductsByCategory(ctx context.Context, categorySlug string) ([]domain.Product, error)
	ProductDetail(ctx context.Context, productSlug string) (*domain.Product, error)
}

// CatalogHandler handles HTTP requests for category and product endpoints.
type CatalogHandler struct {
	service CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CategoryRequest is the JSON body for creating or updating a category.
type CategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

// CreateProductRequest is the JSON body for creating a product.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=4000"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Stock       int             `json:"stock" validate:"min=0"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
}

// --- Category handlers ---

// ListCategories handles GET /category/all_categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// CreateCategory handles POST /category/create
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	c, err := h.service.CreateCategory(r.Context(), principalFrom(r), service.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /category/update_category?category_id=
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "category_id", r.URL.Query().Get("category_id"))
	if !ok {
		return
	}

	var req CategoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), principalFrom(r), id, service.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /category/delete?category_id=
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "category_id", r.URL.Query().Get("category_id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), principalFrom(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

// --- Product handlers ---

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// CreateProduct handles POST /products/create
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), principalFrom(r), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// ProductsByCategory handles GET /products/{category_slug}
func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ProductsByCategory(r.Context(), chi.URLParam(r, "category_slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// ProductDetail handles GET /products/detail/{product_slug}
func (h *CatalogHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ProductDetail(r.Context(), chi.URLParam(r, "product_slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

func principalFrom(r *http.Request) *domain.Principal {
	return auth.PrincipalFromClaims(middleware.ClaimsFromContext(r.Context()))
}
