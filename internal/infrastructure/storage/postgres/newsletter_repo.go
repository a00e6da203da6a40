package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"newsletter/internal/core/apperror"
	"newsletter/internal/core/id"
	"newsletter/internal/domain/newsletter"
)

// IssueRepo implements newsletter.IssueRepository.
type IssueRepo struct {
	txManager *TxManager
}

// NewIssueRepo constructs an IssueRepo.
func NewIssueRepo(txManager *TxManager) *IssueRepo {
	return &IssueRepo{txManager: txManager}
}

var _ newsletter.IssueRepository = (*IssueRepo)(nil)

func (r *IssueRepo) Insert(ctx context.Context, issue newsletter.Issue) error {
	sql, args, err := builder().
		Insert("newsletter_issues").
		Columns("newsletter_issue_id", "title", "text_content", "html_content", "published_at").
		Values(issue.ID, issue.Title, issue.TextContent, issue.HTMLContent, squirrel.Expr("now()")).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build issue insert: %w", err))
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert newsletter issue: %w", err))
	}
	return nil
}

func (r *IssueRepo) EnqueueForConfirmedSubscribers(ctx context.Context, issueID id.ID) error {
	const sql = `
		INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email, n_retries, retry_after)
		SELECT $1, email, 0, NULL
		FROM subscriptions
		WHERE status = 'confirmed'`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, issueID); err != nil {
		return apperror.NewDatabase(fmt.Errorf("enqueue delivery tasks: %w", err))
	}
	return nil
}

// DeliveryQueueRepo implements newsletter.DeliveryQueueRepository, the
// delivery worker's (component E) store access.
type DeliveryQueueRepo struct {
	txManager *TxManager
}

// NewDeliveryQueueRepo constructs a DeliveryQueueRepo.
func NewDeliveryQueueRepo(txManager *TxManager) *DeliveryQueueRepo {
	return &DeliveryQueueRepo{txManager: txManager}
}

var _ newsletter.DeliveryQueueRepository = (*DeliveryQueueRepo)(nil)

func (r *DeliveryQueueRepo) Dequeue(ctx context.Context) (*newsletter.DeliveryTask, error) {
	const sql = `
		SELECT newsletter_issue_id, subscriber_email, n_retries
		FROM issue_delivery_queue
		WHERE retry_after IS NULL OR now() > retry_after
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	row := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql)

	var task newsletter.DeliveryTask
	if err := row.Scan(&task.IssueID, &task.SubscriberEmail, &task.NRetries); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.NewDatabase(fmt.Errorf("dequeue delivery task: %w", err))
	}
	return &task, nil
}

func (r *DeliveryQueueRepo) GetIssue(ctx context.Context, issueID id.ID) (newsletter.Issue, error) {
	sql, args, err := builder().
		Select("newsletter_issue_id", "title", "text_content", "html_content", "published_at").
		From("newsletter_issues").
		Where(squirrel.Eq{"newsletter_issue_id": issueID}).
		ToSql()
	if err != nil {
		return newsletter.Issue{}, apperror.NewInternal(fmt.Errorf("build issue lookup: %w", err))
	}

	var issue newsletter.Issue
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &issue, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return newsletter.Issue{}, apperror.NewNotFound("newsletter_issue", issueID.String())
		}
		return newsletter.Issue{}, apperror.NewDatabase(fmt.Errorf("get newsletter issue: %w", err))
	}
	return issue, nil
}

func (r *DeliveryQueueRepo) Delete(ctx context.Context, issueID id.ID, subscriberEmail string) error {
	sql, args, err := builder().
		Delete("issue_delivery_queue").
		Where(squirrel.Eq{"newsletter_issue_id": issueID, "subscriber_email": subscriberEmail}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build delivery task delete: %w", err))
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("delete delivery task: %w", err))
	}
	return nil
}

// Reschedule applies the quadratic backoff: retry_after = now() +
// interval '1 second' * (currentNRetries)^2, using the pre-increment
// retry count, per the spec's (intentionally) zero-delay first retry.
func (r *DeliveryQueueRepo) Reschedule(ctx context.Context, issueID id.ID, subscriberEmail string, currentNRetries int) error {
	const sql = `
		UPDATE issue_delivery_queue
		SET n_retries = n_retries + 1,
		    retry_after = now() + (interval '1 second' * ($1::int * $1::int))
		WHERE newsletter_issue_id = $2 AND subscriber_email = $3`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, currentNRetries, issueID, subscriberEmail); err != nil {
		return apperror.NewDatabase(fmt.Errorf("reschedule delivery task: %w", err))
	}
	return nil
}
