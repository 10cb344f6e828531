package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/database"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

const userColumns = `id, first_name, last_name, username, email, password_hash, is_active, is_admin, is_supplier, is_customer`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Username and email are unique.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.IsActive, u.IsAdmin, u.IsSupplier, u.IsCustomer,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "username or email", u.Username)
		}
		return translate(err, "insert user")
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserByUsername", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserByID", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query, key string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, key).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.IsSupplier, &u.IsCustomer,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", key)
	}
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}
