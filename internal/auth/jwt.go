package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/pkg/middleware"
)

const issuer = "catalog-review"

// Claims represents the JWT claims for an access token. The subject is the
// user id; the role flags are copied from the user at login.
type Claims struct {
	UserID     string `json:"id"`
	Username   string `json:"username"`
	IsAdmin    bool   `json:"is_admin"`
	IsSupplier bool   `json:"is_supplier"`
	IsCustomer bool   `json:"is_customer"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 access tokens.
type JWTManager struct {
	secret       []byte
	accessExpiry time.Duration
	now          func() time.Time
}

// NewJWTManager creates a new JWT manager with the given secret and expiry.
func NewJWTManager(secret string, accessExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
		now:          time.Now,
	}
}

// GenerateAccessToken creates a signed access token for p.
func (m *JWTManager) GenerateAccessToken(p domain.Principal) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		UserID:     p.ID,
		Username:   p.Username,
		IsAdmin:    p.IsAdmin,
		IsSupplier: p.IsSupplier,
		IsCustomer: p.IsCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}
	if claims.Subject == "" || claims.Username == "" {
		return nil, fmt.Errorf("access token missing identity")
	}
	return claims, nil
}

// Validator adapts the manager to the middleware token hook.
func (m *JWTManager) Validator() middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		c, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:     c.Subject,
			Username:   c.Username,
			IsAdmin:    c.IsAdmin,
			IsSupplier: c.IsSupplier,
			IsCustomer: c.IsCustomer,
		}, nil
	}
}

// PrincipalFromClaims converts request claims into a domain principal.
// It returns nil for anonymous requests.
func PrincipalFromClaims(c *middleware.Claims) *domain.Principal {
	if c == nil {
		return nil
	}
	return &domain.Principal{
		ID:         c.UserID,
		Username:   c.Username,
		IsAdmin:    c.IsAdmin,
		IsSupplier: c.IsSupplier,
		IsCustomer: c.IsCustomer,
	}
}
