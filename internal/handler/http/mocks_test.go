package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	"github.com/utafrali/catalog-review/internal/service"
	"github.com/utafrali/catalog-review/pkg/health"
	"github.com/utafrali/catalog-review/pkg/middleware"
)

// --- Mock Services ---

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) AddReview(ctx context.Context, p *domain.Principal, in service.AddReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewService) DeleteReviewsForProduct(ctx context.Context, p *domain.Principal, slug string) (int, error) {
	args := m.Called(ctx, p, slug)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewService) ListReviewsForProduct(ctx context.Context, slug string) ([]domain.ReviewView, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewView), args.Error(1)
}

func (m *mockReviewService) ListActiveReviews(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, p *domain.Principal, in service.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, p *domain.Principal, id string, in service.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, p, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, p *domain.Principal, id string) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *mockCatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, p *domain.Principal, in service.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalogService) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogService) ProductDetail(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockAccountService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *mockAccountService) CurrentUser(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Test Helpers ---

var testTokens = map[string]*middleware.Claims{
	"customer-token":  {UserID: "u1", Username: "cust", IsCustomer: true},
	"customer2-token": {UserID: "u2", Username: "cust2", IsCustomer: true},
	"admin-token":     {UserID: "a1", Username: "root", IsAdmin: true},
}

func testValidator(token string) (*middleware.Claims, error) {
	if c, ok := testTokens[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type testServer struct {
	handler  http.Handler
	reviews  *mockReviewService
	catalog  *mockCatalogService
	accounts *mockAccountService
}

func newTestServer(t *testing.T, idem repository.IdempotencyRepository) *testServer {
	t.Helper()
	ts := &testServer{
		reviews:  &mockReviewService{},
		catalog:  &mockCatalogService{},
		accounts: &mockAccountService{},
	}
	ts.handler = NewRouter(RouterDeps{
		Reviews:     ts.reviews,
		Catalog:     ts.catalog,
		Accounts:    ts.accounts,
		Tokens:      testValidator,
		Idempotency: idem,
		Health:      health.NewHandler(),
		ServiceName: "catalog-review",
		Logger:      slog.New(slog.DiscardHandler),
	})
	return ts
}

func (ts *testServer) do(method, target, token, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
