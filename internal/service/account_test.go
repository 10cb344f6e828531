package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/catalog-review/internal/domain"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubIssuer struct {
	issued []domain.Principal
}

func (s *stubIssuer) GenerateAccessToken(p domain.Principal) (string, error) {
	s.issued = append(s.issued, p)
	return "token-for-" + p.ID, nil
}

func newAccountFixture() (*AccountService, *mockUserRepository, *stubIssuer) {
	users := &mockUserRepository{}
	issuer := &stubIssuer{}
	return NewAccountService(users, issuer, bcrypt.MinCost, discardLogger), users, issuer
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_CreatesCustomer(t *testing.T) {
	svc, users, _ := newAccountFixture()
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: " Ada@Example.com ", Password: "s3cret",
	})
	require.NoError(t, err)

	assert.True(t, u.IsActive)
	assert.True(t, u.IsCustomer)
	assert.False(t, u.IsAdmin)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
}

func TestRegister_Duplicate(t *testing.T) {
	svc, users, _ := newAccountFixture()
	users.On("Create", mock.Anything, mock.Anything).Return(apperrors.AlreadyExists("user", "username or email", "ada"))

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ada", Password: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestRegister_MissingPassword(t *testing.T) {
	svc, users, _ := newAccountFixture()

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ada"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_IssuesTokenWithRoles(t *testing.T) {
	svc, users, issuer := newAccountFixture()
	users.On("GetByUsername", mock.Anything, "ada").Return(&domain.User{
		ID: "u1", Username: "ada", PasswordHash: hashed(t, "pw"), IsActive: true, IsAdmin: true,
	}, nil)

	token, err := svc.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	assert.Equal(t, "token-for-u1", token)
	require.Len(t, issuer.issued, 1)
	assert.True(t, issuer.issued[0].IsAdmin)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name string
		user *domain.User
		err  error
		pw   string
	}{
		{name: "unknown user", err: apperrors.NotFound("user", "ada"), pw: "pw"},
		{name: "wrong password", user: &domain.User{ID: "u1", PasswordHash: hashed(t, "pw"), IsActive: true}, pw: "nope"},
		{name: "inactive", user: &domain.User{ID: "u1", PasswordHash: hashed(t, "pw"), IsActive: false}, pw: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, issuer := newAccountFixture()
			if tt.user != nil {
				users.On("GetByUsername", mock.Anything, "ada").Return(tt.user, nil)
			} else {
				users.On("GetByUsername", mock.Anything, "ada").Return(nil, tt.err)
			}

			_, err := svc.Login(context.Background(), "ada", tt.pw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
			assert.Empty(t, issuer.issued)
		})
	}
}

func TestCurrentUser(t *testing.T) {
	svc, users, _ := newAccountFixture()
	users.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", Username: "ada"}, nil)

	u, err := svc.CurrentUser(context.Background(), customerU1)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = svc.CurrentUser(context.Background(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}
