// Package subscription models newsletter subscribers and their
// confirmation status. The core publish pipeline only ever reads
// confirmed subscribers; the subscribe/confirm flow itself is a thin CRUD
// surface kept here because the resulting `confirmed` status is
// load-bearing for every delivery invariant downstream.
package subscription

import (
	"context"
	"time"

	"newsletter/internal/core/id"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
)

// Subscription is one subscriber record.
type Subscription struct {
	ID           id.ID
	Email        string
	Name         string
	SubscribedAt time.Time
	Status       Status
	Token        string
}

// Repository persists subscriptions and confirms them. It has no read of
// confirmed subscribers: the publish transaction selects them directly in
// newsletter.IssueRepository.EnqueueForConfirmedSubscribers.
type Repository interface {
	// Create inserts a new pending_confirmation subscription and returns
	// its confirmation token.
	Create(ctx context.Context, email, name string) (Subscription, error)

	// ConfirmByToken transitions the subscription matching token to
	// confirmed. Returns apperror NotFound if no matching pending row
	// exists.
	ConfirmByToken(ctx context.Context, token string) error
}
