package postgres

import (
	"context"

	"github.com/utafrali/catalog-review/internal/repository"
	"github.com/utafrali/catalog-review/pkg/database"
)

// UnitOfWork implements repository.UnitOfWork on a PostgreSQL transaction.
type UnitOfWork struct {
	db database.TxStarter
}

// NewUnitOfWork creates a unit of work that opens transactions on db.
func NewUnitOfWork(db database.TxStarter) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Run executes fn with repositories bound to a fresh transaction. It commits
// only if fn succeeds.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return translate(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := repository.Stores{
		Products: NewProductRepository(tx),
		Ratings:  NewRatingRepository(tx),
		Reviews:  NewReviewRepository(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(err, "commit transaction")
	}
	return nil
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// Compile-time interface checks.
var (
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.CategoryRepository = (*CategoryRepository)(nil)
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.RatingRepository   = (*RatingRepository)(nil)
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
)

