package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

const loginFailedMessage = "could not validate user"

// TokenIssuer signs access tokens for a principal.
type TokenIssuer interface {
	GenerateAccessToken(p domain.Principal) (string, error)
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// AccountService implements registration, login and identity lookups.
type AccountService struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     *slog.Logger
}

// NewAccountService creates a new account service. A zero bcryptCost uses
// bcrypt.DefaultCost.
func NewAccountService(users repository.UserRepository, tokens TokenIssuer, bcryptCost int, logger *slog.Logger) *AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an active customer account.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		IsActive:     true,
		IsCustomer:   true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return u, nil
}

// Login checks credentials and returns a signed access token. Unknown users,
// wrong passwords and inactive accounts all fail the same way.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", apperrors.Unauthorized(loginFailedMessage)
	}
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.Unauthorized(loginFailedMessage)
	}
	if !u.IsActive {
		return "", apperrors.Unauthorized(loginFailedMessage)
	}

	token, err := s.tokens.GenerateAccessToken(u.Principal())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// CurrentUser returns the account behind principal.
func (s *AccountService) CurrentUser(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("not authenticated")
	}
	u, err := s.users.GetByID(ctx, principal.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized(loginFailedMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
