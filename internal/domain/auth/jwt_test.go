package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter/internal/core/apperror"
	"newsletter/internal/core/id"
	"newsletter/internal/domain/user"
)

type fakeUserRepo struct {
	byUsername map[string]user.User
}

func (r fakeUserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return user.User{}, apperror.NewNotFound("user", username)
	}
	return u, nil
}

func TestLogin_SuccessIssuesValidatableToken(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)

	users := fakeUserRepo{byUsername: map[string]user.User{
		"alice": {ID: id.New(), Username: "alice", PasswordHash: hash},
	}}
	service := NewService(DefaultConfig("test-secret"), users)

	token, expiresAt, err := service.Login(context.Background(), "alice", "correct-horse-battery-staple")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	userCtx, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userCtx.Username)
}

func TestLogin_UnknownUsernameIsInvalidCredentials(t *testing.T) {
	service := NewService(DefaultConfig("test-secret"), fakeUserRepo{byUsername: map[string]user.User{}})

	_, _, err := service.Login(context.Background(), "ghost", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPasswordIsInvalidCredentials(t *testing.T) {
	hash, err := HashPassword("the-right-password")
	require.NoError(t, err)
	users := fakeUserRepo{byUsername: map[string]user.User{
		"alice": {ID: id.New(), Username: "alice", PasswordHash: hash},
	}}
	service := NewService(DefaultConfig("test-secret"), users)

	_, _, err = service.Login(context.Background(), "alice", "the-wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	users := fakeUserRepo{byUsername: map[string]user.User{"alice": {ID: id.New(), Username: "alice", PasswordHash: hash}}}

	issuer := NewService(DefaultConfig("secret-a"), users)
	validator := NewService(DefaultConfig("secret-b"), users)

	token, _, err := issuer.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	require.Error(t, err)
}
