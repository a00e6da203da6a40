package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"newsletter/internal/core/apperror"
	"newsletter/internal/domain/user"
)

// UserRepo implements user.Repository against the users table.
type UserRepo struct {
	txManager *TxManager
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(txManager *TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	sql, args, err := builder().
		Select("user_id", "username", "password_hash").
		From("users").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return user.User{}, apperror.NewInternal(fmt.Errorf("build user lookup: %w", err))
	}

	row := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)

	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, apperror.NewNotFound("user", username)
		}
		return user.User{}, apperror.NewDatabase(fmt.Errorf("get user by username: %w", err))
	}
	return u, nil
}
