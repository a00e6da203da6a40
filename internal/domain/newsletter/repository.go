package newsletter

import (
	"context"

	"newsletter/internal/core/id"
)

// IssueRepository persists newsletter issues and enqueues their delivery
// tasks. Both operations must run inside the same transaction as the
// idempotency completion update (invariant 2 of the data model): issue
// insert happens-before task enqueue happens-before idempotency commit.
type IssueRepository interface {
	// Insert writes a fresh issue row.
	Insert(ctx context.Context, issue Issue) error

	// EnqueueForConfirmedSubscribers bulk-inserts one DeliveryTask per
	// confirmed subscriber, each starting at NRetries=0, RetryAfter=nil.
	EnqueueForConfirmedSubscribers(ctx context.Context, issueID id.ID) error
}

// DeliveryQueueRepository is the delivery worker's (component E) view of
// issue_delivery_queue, plus the issue lookup it needs to build an email.
type DeliveryQueueRepository interface {
	// Dequeue locks and returns the next runnable task, ordered with no
	// guarantee across subscribers, using SELECT ... FOR UPDATE SKIP
	// LOCKED so concurrent workers never contend on the same row. Returns
	// (nil, nil) when the queue has no runnable task.
	Dequeue(ctx context.Context) (*DeliveryTask, error)

	// GetIssue re-fetches the issue body a task refers to.
	GetIssue(ctx context.Context, issueID id.ID) (Issue, error)

	// Delete removes a task after successful delivery or after its retry
	// cap is exceeded.
	Delete(ctx context.Context, issueID id.ID, subscriberEmail string) error

	// Reschedule increments NRetries and sets RetryAfter using the
	// quadratic backoff formula, applied to the task's pre-increment
	// NRetries value.
	Reschedule(ctx context.Context, issueID id.ID, subscriberEmail string, currentNRetries int) error
}
