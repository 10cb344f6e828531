package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
	"github.com/utafrali/catalog-review/pkg/slug"
)

// CategoryInput holds the parameters for creating or updating a category.
type CategoryInput struct {
	Name     string
	ParentID *string
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       int
	CategoryID  string
}

// CatalogService implements category and product operations.
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		logger:     logger,
	}
}

// --- Categories ---

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory creates an active category whose slug is derived from its name.
func (s *CatalogService) CreateCategory(ctx context.Context, principal *domain.Principal, input CategoryInput) (*domain.Category, error) {
	if !principal.CanManageCategories() {
		return nil, apperrors.Forbidden(notAuthorizedMessage)
	}
	name, categorySlug, err := nameAndSlug(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, "", input.ParentID); err != nil {
		return nil, err
	}

	c := &domain.Category{
		ID:       uuid.NewString(),
		Name:     name,
		Slug:     categorySlug,
		ParentID: input.ParentID,
		IsActive: true,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", c.ID),
		slog.String("slug", c.Slug),
	)
	return c, nil
}

// UpdateCategory renames a category, regenerating its slug, and moves it
// under ParentID.
func (s *CatalogService) UpdateCategory(ctx context.Context, principal *domain.Principal, id string, input CategoryInput) (*domain.Category, error) {
	if !principal.CanManageCategories() {
		return nil, apperrors.Forbidden(notAuthorizedMessage)
	}
	c, err := s.getCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name, categorySlug, err := nameAndSlug(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, id, input.ParentID); err != nil {
		return nil, err
	}

	c.Name = name
	c.Slug = categorySlug
	c.ParentID = input.ParentID
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory soft-deletes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, principal *domain.Principal, id string) error {
	if !principal.CanManageCategories() {
		return apperrors.Forbidden(notAuthorizedMessage)
	}
	if _, err := s.getCategory(ctx, id); err != nil {
		return err
	}
	if err := s.categories.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "category deactivated", slog.String("category_id", id))
	return nil
}

func (s *CatalogService) getCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFoundMessage("there is no category found")
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CatalogService) checkParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return apperrors.InvalidInput("category cannot be its own parent")
	}
	if _, err := s.categories.GetByID(ctx, *parentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput("parent category does not exist")
		}
		return fmt.Errorf("get parent category: %w", err)
	}
	return nil
}

// --- Products ---

// ListProducts returns every active product that is in stock.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, apperrors.NotFoundMessage("there are no products")
	}
	return products, nil
}

// CreateProduct creates an active product with a zero rating. Suppliers are
// recorded as the product's supplier.
func (s *CatalogService) CreateProduct(ctx context.Context, principal *domain.Principal, input CreateProductInput) (*domain.Product, error) {
	if !principal.CanManageProducts() {
		return nil, apperrors.Forbidden(notAuthorizedMessage)
	}
	name, productSlug, err := nameAndSlug(input.Name)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        productSlug,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		IsActive:    true,
		Rating:      decimal.Zero,
	}
	if principal.IsSupplier {
		id := principal.ID
		p.SupplierID = &id
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
	)
	return p, nil
}

// ProductsByCategory returns active in-stock products of a category and of
// its direct subcategories.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categorySlug string) ([]domain.Product, error) {
	category, err := s.categories.GetBySlug(ctx, categorySlug)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFoundMessage("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	children, err := s.categories.ListChildren(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}

	ids := make([]string, 0, len(children)+1)
	ids = append(ids, category.ID)
	for _, c := range children {
		ids = append(ids, c.ID)
	}

	products, err := s.products.ListByCategories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return products, nil
}

// ProductDetail returns an active product by slug.
func (s *CatalogService) ProductDetail(ctx context.Context, productSlug string) (*domain.Product, error) {
	p, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperrors.NotFound("product", productSlug)
	}
	return p, nil
}

func nameAndSlug(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "", apperrors.InvalidInput("name is required")
	}
	s := slug.Generate(name)
	if s == "" {
		return "", "", apperrors.InvalidInput("name must contain at least one letter or digit")
	}
	return name, s, nil
}
