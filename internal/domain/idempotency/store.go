package idempotency

import "context"

// HeaderPair is a single stored response header, matching the
// `header_pair := (name text, value bytea)` composite column type.
type HeaderPair struct {
	Name  string
	Value []byte
}

// Response is the cached HTTP response attached to a completed idempotency
// record: a status code, a header list, and a raw body.
type Response struct {
	StatusCode int16
	Headers    []HeaderPair
	Body       []byte
}

// Outcome tags what TryBegin found: either the caller now owns the
// in-flight record and must eventually call SaveResponse, or a previous
// submission already completed and its response should be replayed as-is.
type Outcome int

const (
	// Begin means the caller inserted a fresh in-flight record for
	// (userID, key) and owns the transaction bound to ctx until it calls
	// SaveResponse (or lets the caller's transaction roll back on error).
	Begin Outcome = iota
	// Replay means a previous submission under the same key already
	// completed (or just did, after this call blocked on its row lock);
	// Response holds the response to hand back verbatim.
	Replay
)

// Store is the idempotency substrate's contract. Every method is expected
// to be called from within a transaction-scoped context (see
// internal/core/tx), so that the insert-then-update protocol they implement
// runs atomically with the rest of the publish operation.
type Store interface {
	// TryBegin attempts to claim (userID, key) for a fresh submission.
	//
	// It inserts the row with ON CONFLICT DO NOTHING. If the insert took
	// effect, it returns (Begin, zero Response, nil): the caller owns the
	// record and must complete it with SaveResponse before the surrounding
	// transaction commits.
	//
	// If the insert no-opped, another submission under the same key is
	// either in flight or already completed. TryBegin reads that row's
	// response columns with a locking read: if they are already populated
	// it returns (Replay, response, nil) immediately; if they are still
	// null the read blocks on the competing writer's row lock until that
	// writer commits or rolls back, then proceeds as a completed read (or
	// as a fresh Begin, if the competing writer rolled back and the row
	// no longer exists).
	TryBegin(ctx context.Context, userID string, key Key) (Outcome, Response, error)

	// SaveResponse fills in the response columns of an in-flight record
	// obtained via a preceding Begin outcome, within the same transaction
	// scoped to ctx. The caller's transaction commits when ctx's
	// tx.Manager.RunInTransaction closure returns nil, finalizing the
	// record as completed.
	SaveResponse(ctx context.Context, userID string, key Key, response Response) error
}
