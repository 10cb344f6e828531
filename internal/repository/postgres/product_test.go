package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-review/internal/domain"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

var productCols = []string{
	"id", "name", "slug", "description", "price", "image_url", "stock",
	"category_id", "supplier_id", "is_active", "rating",
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:          "prod-001",
		Name:        "Blue Widget",
		Slug:        "blue-widget",
		Description: "A very blue widget",
		Price:       decimal.RequireFromString("19.99"),
		ImageURL:    "https://img.example.com/blue.png",
		Stock:       4,
		CategoryID:  "cat-001",
		IsActive:    true,
		Rating:      decimal.Zero,
	}
}

func TestProductRepository_GetBySlug_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	rows := pgxmock.NewRows(productCols).AddRow(
		"prod-001", "Blue Widget", "blue-widget", "A very blue widget", "19.99",
		"https://img.example.com/blue.png", 4, "cat-001", (*string)(nil), true, "4.50",
	)
	mock.ExpectQuery("SELECT .+ FROM products WHERE slug").
		WithArgs("blue-widget").
		WillReturnRows(rows)

	p, err := repo.GetBySlug(context.Background(), "blue-widget")
	require.NoError(t, err)
	assert.Equal(t, "prod-001", p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, p.Rating.Equal(decimal.RequireFromString("4.5")))
	assert.Nil(t, p.SupplierID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetBySlug_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE slug").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductRepository_GetByID_ConnectionError(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("prod-001").
		WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

	_, err := repo.GetByID(context.Background(), "prod-001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestProductRepository_ListAvailable_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE is_active AND stock > 0").
		WillReturnRows(pgxmock.NewRows(productCols))

	products, err := repo.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListByCategories(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	rows := pgxmock.NewRows(productCols).
		AddRow("p1", "Anvil", "anvil", "", "10.00", "", 1, "cat-1", (*string)(nil), true, "0").
		AddRow("p2", "Bolt", "bolt", "", "0.50", "", 7, "cat-2", strPtr("sup-1"), true, "3.00")
	mock.ExpectQuery("SELECT .+ FROM products WHERE is_active AND stock > 0 AND category_id = ANY").
		WithArgs([]string{"cat-1", "cat-2"}).
		WillReturnRows(rows)

	products, err := repo.ListByCategories(context.Background(), []string{"cat-1", "cat-2"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "anvil", products[0].Slug)
	require.NotNil(t, products[1].SupplierID)
	assert.Equal(t, "sup-1", *products[1].SupplierID)
}

func TestProductRepository_ListByCategories_NoIDsSkipsQuery(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	products, err := repo.ListByCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, "19.99", p.ImageURL, p.Stock,
			p.CategoryID, p.SupplierID, true, "0").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_DuplicateSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), sampleProduct())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestProductRepository_Create_UnknownCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), sampleProduct())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIntegrity))
}

func TestProductRepository_UpdateRating(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET rating").
		WithArgs("4.5", "prod-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateRating(context.Background(), "prod-001", decimal.RequireFromString("4.5"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateRating_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET rating").
		WithArgs("3", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateRating(context.Background(), "ghost", decimal.NewFromInt(3))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
