// Package user models the authenticated author/admin identity. Users are
// created by seeding and are read-only to the core pipeline.
package user

import (
	"context"

	"newsletter/internal/core/id"
)

// User is an authenticated operator who can submit publish requests.
type User struct {
	ID           id.ID
	Username     string
	PasswordHash string
}

// Repository reads users by username for the login flow.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (User, error)
}
