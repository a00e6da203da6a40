package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter/internal/core/id"
	domainemail "newsletter/internal/domain/email"
	"newsletter/internal/domain/newsletter"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeQueue struct {
	task    *newsletter.DeliveryTask
	issue   newsletter.Issue
	issueErr error
	dequeueErr error

	deleted       bool
	rescheduled   bool
	rescheduledAt int
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*newsletter.DeliveryTask, error) {
	if q.dequeueErr != nil {
		return nil, q.dequeueErr
	}
	return q.task, nil
}

func (q *fakeQueue) GetIssue(ctx context.Context, issueID id.ID) (newsletter.Issue, error) {
	return q.issue, q.issueErr
}

func (q *fakeQueue) Delete(ctx context.Context, issueID id.ID, subscriberEmail string) error {
	q.deleted = true
	return nil
}

func (q *fakeQueue) Reschedule(ctx context.Context, issueID id.ID, subscriberEmail string, currentNRetries int) error {
	q.rescheduled = true
	q.rescheduledAt = currentNRetries
	return nil
}

type fakeGateway struct {
	err   error
	sends int
}

func (g *fakeGateway) Send(ctx context.Context, msg domainemail.Message) error {
	g.sends++
	return g.err
}

func TestTryExecuteTask_EmptyQueueReportsEmptyQueueOutcome(t *testing.T) {
	w := NewDeliveryWorker(fakeTxManager{}, &fakeQueue{task: nil}, &fakeGateway{}, 0)
	assert.Equal(t, outcomeEmptyQueue, w.tryExecuteTask(context.Background()))
}

func TestTryExecuteTask_SuccessfulSendDeletesTask(t *testing.T) {
	queue := &fakeQueue{
		task:  &newsletter.DeliveryTask{IssueID: id.New(), SubscriberEmail: "a@example.com", NRetries: 0},
		issue: newsletter.Issue{Title: "Hello"},
	}
	w := NewDeliveryWorker(fakeTxManager{}, queue, &fakeGateway{}, 0)

	assert.Equal(t, outcomeCompleted, w.tryExecuteTask(context.Background()))
	assert.True(t, queue.deleted)
	assert.False(t, queue.rescheduled)
}

func TestTryExecuteTask_FailedSendReschedulesWithPreIncrementRetries(t *testing.T) {
	queue := &fakeQueue{
		task:  &newsletter.DeliveryTask{IssueID: id.New(), SubscriberEmail: "a@example.com", NRetries: 1},
		issue: newsletter.Issue{Title: "Hello"},
	}
	gatewayErr := &domainemail.RetryableError{Cause: errors.New("timeout")}
	w := NewDeliveryWorker(fakeTxManager{}, queue, &fakeGateway{err: gatewayErr}, 0)

	assert.Equal(t, outcomeRetryScheduled, w.tryExecuteTask(context.Background()))
	assert.True(t, queue.rescheduled)
	assert.Equal(t, 1, queue.rescheduledAt)
	assert.False(t, queue.deleted)
}

func TestTryExecuteTask_RetryCapExceededDeletesWithoutSending(t *testing.T) {
	queue := &fakeQueue{
		task: &newsletter.DeliveryTask{IssueID: id.New(), SubscriberEmail: "a@example.com", NRetries: defaultMaxNRetries + 1},
	}
	gateway := &fakeGateway{}
	w := NewDeliveryWorker(fakeTxManager{}, queue, gateway, 0)

	assert.Equal(t, outcomeCompleted, w.tryExecuteTask(context.Background()))
	assert.True(t, queue.deleted)
	assert.Zero(t, gateway.sends, "an abandoned task must not be sent")
}

func TestTryExecuteTask_UsesConfiguredRetryCap(t *testing.T) {
	queue := &fakeQueue{
		task: &newsletter.DeliveryTask{IssueID: id.New(), SubscriberEmail: "a@example.com", NRetries: 2},
	}
	gateway := &fakeGateway{}
	w := NewDeliveryWorker(fakeTxManager{}, queue, gateway, 1)

	assert.Equal(t, outcomeCompleted, w.tryExecuteTask(context.Background()))
	assert.True(t, queue.deleted, "a task above a configured cap of 1 retry must be abandoned")
}

func TestTryExecuteTask_UnparseableEmailIsSkippedWithoutCommit(t *testing.T) {
	queue := &fakeQueue{
		task: &newsletter.DeliveryTask{IssueID: id.New(), SubscriberEmail: "not-an-email", NRetries: 0},
	}
	w := NewDeliveryWorker(fakeTxManager{}, queue, &fakeGateway{}, 0)

	assert.Equal(t, outcomeSkipped, w.tryExecuteTask(context.Background()))
	assert.False(t, queue.deleted, "a skipped task must not be deleted")
	assert.False(t, queue.rescheduled, "a skipped task must not be rescheduled")
}

func TestTryExecuteTask_DequeueErrorIsTreatedAsDBError(t *testing.T) {
	queue := &fakeQueue{dequeueErr: errors.New("connection reset")}
	w := NewDeliveryWorker(fakeTxManager{}, queue, &fakeGateway{}, 0)

	assert.Equal(t, outcomeDBError, w.tryExecuteTask(context.Background()))
}

func TestRun_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewDeliveryWorker(fakeTxManager{}, &fakeQueue{task: nil}, &fakeGateway{}, 0)
	err := w.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
