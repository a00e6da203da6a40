// Package main seeds an admin user and, when SEED_DEMO_DATA=true, a
// handful of confirmed demo subscribers, for exercising the publish flow
// against a fresh database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"newsletter/internal/core/id"
	"newsletter/internal/domain/auth"
	"newsletter/internal/infrastructure/storage/postgres"
	"newsletter/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoSubscribers(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo subscribers", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx, `SELECT user_id FROM users WHERE username = $1`, username).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "username", username, "user_id", existingID.String())
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx,
		`INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3)`,
		userID, username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "username", username, "user_id", userID.String())
	return nil
}

func seedDemoSubscribers(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	subscribers := []struct{ email, name string }{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
		{"carol@example.com", "Carol"},
	}

	for _, s := range subscribers {
		subID := id.New()
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO subscriptions (id, email, name, status, token)
			VALUES ($1, $2, $3, 'confirmed', $4)
			ON CONFLICT (email) DO NOTHING
		`, subID, s.email, s.name, subID.String())
		if err != nil {
			log.Warnw("failed to seed subscriber", "email", s.email, "error", err)
		}
	}

	log.Info("demo subscribers seeded")
	return nil
}
