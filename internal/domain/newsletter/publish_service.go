package newsletter

import (
	"context"

	"newsletter/internal/core/apperror"
	"newsletter/internal/core/id"
	"newsletter/internal/core/tx"
	"newsletter/internal/domain/idempotency"
	"newsletter/pkg/logger"
)

// PublishForm is the author-submitted payload for one publish attempt.
type PublishForm struct {
	Title          string
	TextContent    string
	HTMLContent    string
	IdempotencyKey string
}

// PublishResponse is the HTTP-shaped outcome the handler hands back to the
// caller: a redirect to the admin newsletters page, either freshly built or
// replayed verbatim from a prior completed submission.
type PublishResponse struct {
	StatusCode int16
	Location   string
	FlashMsg   string
}

// PublishService implements component D: the transaction that dedups a
// submission, records the issue, and enqueues one delivery task per
// confirmed subscriber.
type PublishService struct {
	txManager  tx.Manager
	idempStore idempotency.Store
	issueRepo  IssueRepository
}

// NewPublishService constructs a PublishService.
func NewPublishService(txManager tx.Manager, idempStore idempotency.Store, issueRepo IssueRepository) *PublishService {
	return &PublishService{txManager: txManager, idempStore: idempStore, issueRepo: issueRepo}
}

const redirectLocation = "/admin/newsletters"

// Publish runs the publish-or-replay algorithm described in component D.
// The whole operation — TryBegin, issue insert, task enqueue, SaveResponse
// — executes inside a single transaction bound to ctx by txManager, which
// is what makes the idempotency record's "completed" state imply every
// task row is already queued.
func (s *PublishService) Publish(ctx context.Context, userID string, form PublishForm) (PublishResponse, error) {
	key, err := idempotency.ParseKey(form.IdempotencyKey)
	if err != nil {
		return PublishResponse{}, err
	}

	var result PublishResponse
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		outcome, saved, err := s.idempStore.TryBegin(ctx, userID, key)
		if err != nil {
			return err
		}

		if outcome == idempotency.Replay {
			result = PublishResponse{
				StatusCode: saved.StatusCode,
				Location:   headerValue(saved.Headers, "Location"),
				FlashMsg:   "published",
			}
			return nil
		}

		issueID := id.New()
		if err := s.issueRepo.Insert(ctx, Issue{
			ID:          issueID,
			Title:       form.Title,
			TextContent: form.TextContent,
			HTMLContent: form.HTMLContent,
		}); err != nil {
			return err
		}

		if err := s.issueRepo.EnqueueForConfirmedSubscribers(ctx, issueID); err != nil {
			return err
		}

		resp := idempotency.Response{
			StatusCode: 303,
			Headers: []idempotency.HeaderPair{
				{Name: "Location", Value: []byte(redirectLocation)},
			},
		}
		if err := s.idempStore.SaveResponse(ctx, userID, key, resp); err != nil {
			return apperror.NewInternal(err)
		}

		result = PublishResponse{
			StatusCode: resp.StatusCode,
			Location:   redirectLocation,
			FlashMsg:   "published",
		}
		logger.Info(ctx, "newsletter issue published", "issue_id", issueID.String())
		return nil
	})
	if err != nil {
		return PublishResponse{}, err
	}

	return result, nil
}

func headerValue(headers []idempotency.HeaderPair, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return string(h.Value)
		}
	}
	return ""
}
