// Package auth implements the admin login flow: a bcrypt credential check
// against the users table followed by issuance of a bearer token that
// stands in for the original session-cookie contract (see §1's
// out-of-scope collaborators — only the "authenticated user id" contract
// the core needs is specified).
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"newsletter/internal/core/apperror"
	appctx "newsletter/internal/core/context"
	"newsletter/internal/domain/user"
)

// Config holds JWT signing configuration.
type Config struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultConfig returns a production-safe default TTL.
func DefaultConfig(secret string) Config {
	return Config{
		Secret:         secret,
		Issuer:         "newsletter",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims is the JWT payload issued on successful login.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"username"`
}

// Service authenticates credentials and issues/validates bearer tokens.
type Service struct {
	config Config
	users  user.Repository
}

// NewService constructs a Service.
func NewService(config Config, users user.Repository) *Service {
	return &Service{config: config, users: users}
}

// ErrInvalidCredentials is returned when the username/password pair does
// not match a stored user. Mirrors the original AuthError::InvalidCredentials,
// spec.md's AuthFailure kind.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Login validates (username, password) against the bcrypt hash stored on
// the matching user row and, on success, issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return s.issueToken(u)
}

func (s *Service) issueToken(u user.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   u.ID.String(),
		Username: u.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken parses and verifies a bearer token, returning the operator
// identity it was issued to. Satisfies middleware.JWTValidator.
func (s *Service) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return &appctx.UserContext{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// HashPassword bcrypt-hashes a plaintext password for seeding users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
