// Package worker implements the long-running loops of components E and F:
// the delivery worker and the idempotency garbage collector.
package worker

import (
	"context"
	"errors"
	"time"

	"newsletter/internal/core/tx"
	domainemail "newsletter/internal/domain/email"
	"newsletter/internal/domain/newsletter"
	"newsletter/pkg/logger"
)

// errSkipped is a sentinel that aborts the current dequeue transaction
// without treating the iteration as a database error: the task's row
// lock is released by the rollback and the row is left untouched, to be
// retried on the worker's next pass.
var errSkipped = errors.New("delivery task skipped")

// defaultMaxNRetries is used when the configured retry cap is zero
// (unset), mirroring gc.go's defaultExpiryHours fallback.
const defaultMaxNRetries = 3

// outcome tags one loop iteration's result, driving the worker's sleep
// policy exactly as the state machine in component E specifies.
type outcome int

const (
	outcomeEmptyQueue outcome = iota
	outcomeCompleted
	outcomeRetryScheduled
	outcomeSkipped
	outcomeDBError
)

// DeliveryWorker runs component E's dequeue/send/delete-or-reschedule loop.
type DeliveryWorker struct {
	txManager  tx.Manager
	queue      newsletter.DeliveryQueueRepository
	gateway    domainemail.Gateway
	maxRetries int
}

// NewDeliveryWorker constructs a DeliveryWorker. maxRetries defaults to 3
// when zero.
func NewDeliveryWorker(txManager tx.Manager, queue newsletter.DeliveryQueueRepository, gateway domainemail.Gateway, maxRetries int) *DeliveryWorker {
	if maxRetries <= 0 {
		maxRetries = defaultMaxNRetries
	}
	return &DeliveryWorker{txManager: txManager, queue: queue, gateway: gateway, maxRetries: maxRetries}
}

// Run loops until ctx is cancelled, executing one task per iteration and
// sleeping according to the outcome: 300ms after a completed or
// rescheduled task, 10s when the queue is empty, 1s after a database
// error, and immediately after a skipped (unparseable-email) task.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := w.tryExecuteTask(ctx)

		var sleep time.Duration
		switch result {
		case outcomeCompleted, outcomeRetryScheduled:
			sleep = 300 * time.Millisecond
		case outcomeEmptyQueue:
			sleep = 10 * time.Second
		case outcomeDBError:
			sleep = time.Second
		case outcomeSkipped:
			sleep = 0
		}

		if sleep > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}
	}
}

func (w *DeliveryWorker) tryExecuteTask(ctx context.Context) outcome {
	var result outcome

	err := w.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		if task == nil {
			result = outcomeEmptyQueue
			return nil
		}

		if task.NRetries > w.maxRetries {
			if err := w.queue.Delete(ctx, task.IssueID, task.SubscriberEmail); err != nil {
				return err
			}
			logger.Error(ctx, "delivery task abandoned after exceeding retry cap",
				"issue_id", task.IssueID.String(),
				"subscriber_email", task.SubscriberEmail,
			)
			result = outcomeCompleted
			return nil
		}

		if !isValidEmail(task.SubscriberEmail) {
			// Specified behavior (see open question in design notes): leave
			// the row untouched, neither deleting it nor committing the
			// transaction, so it is retried every pass. Preserved as-is.
			logger.Error(ctx, "stored subscriber email failed validation, skipping",
				"issue_id", task.IssueID.String(),
				"subscriber_email", task.SubscriberEmail,
			)
			result = outcomeSkipped
			return errSkipped
		}

		issue, err := w.queue.GetIssue(ctx, task.IssueID)
		if err != nil {
			return err
		}

		sendErr := w.gateway.Send(ctx, domainemail.Message{
			To:       task.SubscriberEmail,
			Subject:  issue.Title,
			HTMLBody: issue.HTMLContent,
			TextBody: issue.TextContent,
		})

		if sendErr == nil {
			if err := w.queue.Delete(ctx, task.IssueID, task.SubscriberEmail); err != nil {
				return err
			}
			result = outcomeCompleted
			return nil
		}

		logger.Error(ctx, "email delivery failed, scheduling retry",
			"issue_id", task.IssueID.String(),
			"subscriber_email", task.SubscriberEmail,
			"n_retries", task.NRetries,
			"cause", sendErr,
		)
		if err := w.queue.Reschedule(ctx, task.IssueID, task.SubscriberEmail, task.NRetries); err != nil {
			return err
		}
		result = outcomeRetryScheduled
		return nil
	})

	if err != nil {
		if errors.Is(err, errSkipped) {
			return outcomeSkipped
		}
		logger.Error(ctx, "delivery worker iteration failed", "cause", err)
		return outcomeDBError
	}

	return result
}

// isValidEmail is a minimal RFC-5322-adjacent sanity check: the stored
// subscriber address has already passed validation once at subscribe
// time, so this only guards against data corruption, not user input.
func isValidEmail(s string) bool {
	at := -1
	for i, r := range s {
		if r == '@' {
			at = i
			break
		}
	}
	return at > 0 && at < len(s)-1
}
