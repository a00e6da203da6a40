package newsletter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter/internal/core/id"
	"newsletter/internal/domain/idempotency"
)

// fakeTxManager runs fn directly against ctx with no real transaction
// semantics; the tests below exercise the publish algorithm's locking via
// fakeIdempotencyStore instead.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeIdempotencyStore reproduces the insert-then-lock protocol in memory:
// the first TryBegin for a key returns Begin, every later caller blocks
// until SaveResponse completes the record, then replays its response.
type fakeIdempotencyStore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	begun map[string]bool
	done  map[string]idempotency.Response
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	s := &fakeIdempotencyStore{begun: map[string]bool{}, done: map[string]idempotency.Response{}}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func rowKey(userID string, key idempotency.Key) string {
	return userID + "|" + key.String()
}

func (s *fakeIdempotencyStore) TryBegin(ctx context.Context, userID string, key idempotency.Key) (idempotency.Outcome, idempotency.Response, error) {
	k := rowKey(userID, key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.begun[k] {
		s.begun[k] = true
		return idempotency.Begin, idempotency.Response{}, nil
	}
	for {
		if resp, ok := s.done[k]; ok {
			return idempotency.Replay, resp, nil
		}
		s.cond.Wait()
	}
}

func (s *fakeIdempotencyStore) SaveResponse(ctx context.Context, userID string, key idempotency.Key, response idempotency.Response) error {
	k := rowKey(userID, key)
	s.mu.Lock()
	s.done[k] = response
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// fakeIssueRepo records every issue insert and enqueue call so tests can
// assert how many times the publish algorithm actually ran the expensive
// path versus replaying.
type fakeIssueRepo struct {
	mu       sync.Mutex
	inserted []Issue
	enqueued []id.ID
}

func (r *fakeIssueRepo) Insert(ctx context.Context, issue Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, issue)
	return nil
}

func (r *fakeIssueRepo) EnqueueForConfirmedSubscribers(ctx context.Context, issueID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, issueID)
	return nil
}

func (r *fakeIssueRepo) insertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

func TestPublish_FreshKeyInsertsAndEnqueues(t *testing.T) {
	issueRepo := &fakeIssueRepo{}
	service := NewPublishService(fakeTxManager{}, newFakeIdempotencyStore(), issueRepo)

	resp, err := service.Publish(context.Background(), "user-1", PublishForm{
		Title:          "Weekly update",
		TextContent:    "text",
		HTMLContent:    "<p>html</p>",
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, int16(303), resp.StatusCode)
	assert.Equal(t, redirectLocation, resp.Location)
	assert.Equal(t, 1, issueRepo.insertCount())
	require.Len(t, issueRepo.enqueued, 1)
}

func TestPublish_ReplaySkipsReEnqueue(t *testing.T) {
	issueRepo := &fakeIssueRepo{}
	service := NewPublishService(fakeTxManager{}, newFakeIdempotencyStore(), issueRepo)
	form := PublishForm{
		Title:          "Weekly update",
		TextContent:    "text",
		HTMLContent:    "<p>html</p>",
		IdempotencyKey: "key-1",
	}

	first, err := service.Publish(context.Background(), "user-1", form)
	require.NoError(t, err)

	second, err := service.Publish(context.Background(), "user-1", form)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, issueRepo.insertCount(), "replayed submission must not insert a second issue")
}

func TestPublish_RejectsInvalidIdempotencyKey(t *testing.T) {
	service := NewPublishService(fakeTxManager{}, newFakeIdempotencyStore(), &fakeIssueRepo{})

	_, err := service.Publish(context.Background(), "user-1", PublishForm{
		Title:          "Weekly update",
		TextContent:    "text",
		HTMLContent:    "<p>html</p>",
		IdempotencyKey: "",
	})

	require.Error(t, err)
}

// TestPublish_ConcurrentSubmissionsAreHandledGracefully mirrors the
// original's concurrent-form-submission property: many callers racing on
// the same (userID, key) must only enqueue one issue's worth of delivery
// tasks, with every caller observing the same redirect response.
func TestPublish_ConcurrentSubmissionsAreHandledGracefully(t *testing.T) {
	issueRepo := &fakeIssueRepo{}
	service := NewPublishService(fakeTxManager{}, newFakeIdempotencyStore(), issueRepo)

	const callers = 20
	var wg sync.WaitGroup
	responses := make([]PublishResponse, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = service.Publish(context.Background(), "user-1", PublishForm{
				Title:          "Weekly update",
				TextContent:    "text",
				HTMLContent:    "<p>html</p>",
				IdempotencyKey: "shared-key",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "caller %d", i)
	}
	for i, resp := range responses {
		assert.Equalf(t, responses[0], resp, "caller %d got a different response", i)
	}
	assert.Equal(t, 1, issueRepo.insertCount(), "exactly one issue should be inserted across all racing submissions")
}
