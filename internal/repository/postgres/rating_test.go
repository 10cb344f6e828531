package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

func TestRatingRepository_SubmitGrade(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	mock.ExpectExec("INSERT INTO ratings").
		WithArgs(pgxmock.AnyArg(), 4, "user-1", "prod-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := repo.SubmitGrade(context.Background(), "user-1", "prod-1", 4)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_SubmitGrade_OutOfRange(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	for _, grade := range []int{0, 6, -1} {
		_, err := repo.SubmitGrade(context.Background(), "user-1", "prod-1", grade)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "grade %d", grade)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_SubmitGrade_UnknownProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	mock.ExpectExec("INSERT INTO ratings").
		WithArgs(pgxmock.AnyArg(), 5, "user-1", "prod-1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.SubmitGrade(context.Background(), "user-1", "prod-1", 5)
	assert.True(t, errors.Is(err, apperrors.ErrIntegrity))
}

func TestRatingRepository_AverageGrade(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg"}).AddRow(2, "4.5000000000000000"))

	avg, ok, err := repo.AverageGrade(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, avg.Equal(decimal.RequireFromString("4.5")))
}

func TestRatingRepository_AverageGrade_NoActiveRatings(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg"}).AddRow(0, "0"))

	avg, ok, err := repo.AverageGrade(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, avg.IsZero())
}

func TestRatingRepository_DeactivateByReview(t *testing.T) {
	mock := newMock(t)
	repo := NewRatingRepository(mock)

	mock.ExpectExec("UPDATE ratings SET is_active = FALSE").
		WithArgs("rt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.DeactivateByReview(context.Background(), "rt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
