package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/Masterminds/squirrel"

	"newsletter/internal/core/apperror"
	"newsletter/internal/core/id"
	"newsletter/internal/domain/subscription"
)

// SubscriptionRepo implements subscription.Repository against the
// subscriptions table.
type SubscriptionRepo struct {
	txManager *TxManager
}

// NewSubscriptionRepo constructs a SubscriptionRepo.
func NewSubscriptionRepo(txManager *TxManager) *SubscriptionRepo {
	return &SubscriptionRepo{txManager: txManager}
}

var _ subscription.Repository = (*SubscriptionRepo)(nil)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SubscriptionRepo) Create(ctx context.Context, email, name string) (subscription.Subscription, error) {
	token, err := newConfirmationToken()
	if err != nil {
		return subscription.Subscription{}, apperror.NewInternal(fmt.Errorf("generate confirmation token: %w", err))
	}

	sub := subscription.Subscription{
		ID:     id.New(),
		Email:  email,
		Name:   name,
		Status: subscription.StatusPendingConfirmation,
		Token:  token,
	}

	sql, args, err := builder().
		Insert("subscriptions").
		Columns("id", "email", "name", "subscribed_at", "status", "token").
		Values(sub.ID, sub.Email, sub.Name, squirrel.Expr("now()"), sub.Status, sub.Token).
		Suffix("RETURNING subscribed_at").
		ToSql()
	if err != nil {
		return subscription.Subscription{}, apperror.NewInternal(fmt.Errorf("build insert subscription: %w", err))
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&sub.SubscribedAt); err != nil {
		return subscription.Subscription{}, apperror.NewDatabase(fmt.Errorf("insert subscription: %w", err))
	}

	return sub, nil
}

func (r *SubscriptionRepo) ConfirmByToken(ctx context.Context, token string) error {
	sql, args, err := builder().
		Update("subscriptions").
		Set("status", subscription.StatusConfirmed).
		Where(squirrel.Eq{"token": token, "status": subscription.StatusPendingConfirmation}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build confirm update: %w", err))
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("confirm subscription: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("subscription", token)
	}
	return nil
}

func newConfirmationToken() (string, error) {
	buf := make([]byte, 25)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
