package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"newsletter/internal/core/apperror"
	"newsletter/internal/core/tx"
	"newsletter/internal/domain/idempotency"
)

// bodyCompressionThreshold mirrors the teacher's audit-log compression
// cutoff: bodies at or above this size are zstd-compressed before being
// persisted, with a one-byte prefix flag distinguishing the encoding on
// read. Most publish responses are small redirects with no body and never
// cross it.
const bodyCompressionThreshold = 10 * 1024

const (
	bodyEncodingRaw  byte = 0
	bodyEncodingZstd byte = 1
)

// IdempotencyStore implements idempotency.Store against the idempotency
// table described in the schema, using the insert-then-lock protocol: a
// primary-key conflict on INSERT detects duplicates, and a FOR UPDATE read
// of the losing row blocks on the winner's pending completion UPDATE.
type IdempotencyStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewIdempotencyStore constructs an IdempotencyStore.
func NewIdempotencyStore(txManager *TxManager) (*IdempotencyStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &IdempotencyStore{txManager: txManager, encoder: encoder, decoder: decoder}, nil
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

func (s *IdempotencyStore) TryBegin(ctx context.Context, userID string, key idempotency.Key) (idempotency.Outcome, idempotency.Response, error) {
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx,
		`INSERT INTO idempotency (user_id, idempotency_key, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		userID, key.String(),
	)
	if err != nil {
		return 0, idempotency.Response{}, apperror.NewDatabase(fmt.Errorf("insert idempotency row: %w", err))
	}
	if tag.RowsAffected() == 1 {
		return idempotency.Begin, idempotency.Response{}, nil
	}

	// Someone else already has this (userID, key). FOR UPDATE blocks here
	// until the holder of the row's write lock commits or rolls back its
	// pending completion UPDATE.
	row := q.QueryRow(ctx,
		`SELECT response_status_code, response_headers, response_body
		 FROM idempotency
		 WHERE user_id = $1 AND idempotency_key = $2
		 FOR UPDATE`,
		userID, key.String(),
	)

	var (
		statusCode *int16
		headers    []headerPairRow
		body       []byte
	)
	if err := row.Scan(&statusCode, &headers, &body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The competing writer rolled back and its row vanished
			// before we could read it; retry as a fresh claim.
			return s.TryBegin(ctx, userID, key)
		}
		return 0, idempotency.Response{}, apperror.NewDatabase(fmt.Errorf("read idempotency row: %w", err))
	}
	if statusCode == nil {
		// Should be unreachable: FOR UPDATE only returns once the
		// holder's transaction has released the lock, at which point the
		// completion UPDATE (or the row's deletion) has already happened.
		return 0, idempotency.Response{}, apperror.NewInternal(
			errors.New("idempotency row unlocked with no saved response"),
		)
	}

	decodedBody, err := s.decodeBody(body)
	if err != nil {
		return 0, idempotency.Response{}, apperror.NewInternal(fmt.Errorf("decode stored response body: %w", err))
	}

	resp := idempotency.Response{
		StatusCode: *statusCode,
		Body:       decodedBody,
		Headers:    make([]idempotency.HeaderPair, len(headers)),
	}
	for i, h := range headers {
		resp.Headers[i] = idempotency.HeaderPair{Name: h.Name, Value: h.Value}
	}
	return idempotency.Replay, resp, nil
}

// encodeBody prefixes the stored body with a one-byte encoding flag,
// compressing it with zstd once it crosses bodyCompressionThreshold.
func (s *IdempotencyStore) encodeBody(body []byte) []byte {
	if len(body) < bodyCompressionThreshold {
		return append([]byte{bodyEncodingRaw}, body...)
	}
	compressed := s.encoder.EncodeAll(body, nil)
	return append([]byte{bodyEncodingZstd}, compressed...)
}

func (s *IdempotencyStore) decodeBody(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, nil
	}
	flag, payload := stored[0], stored[1:]
	switch flag {
	case bodyEncodingRaw:
		return payload, nil
	case bodyEncodingZstd:
		return s.decoder.DecodeAll(payload, nil)
	default:
		return nil, fmt.Errorf("unknown body encoding flag %d", flag)
	}
}

func (s *IdempotencyStore) SaveResponse(ctx context.Context, userID string, key idempotency.Key, response idempotency.Response) error {
	q := s.txManager.GetQuerier(ctx)

	headers := make([]headerPairRow, len(response.Headers))
	for i, h := range response.Headers {
		headers[i] = headerPairRow{Name: h.Name, Value: h.Value}
	}

	tag, err := q.Exec(ctx,
		`UPDATE idempotency
		 SET response_status_code = $1, response_headers = $2, response_body = $3
		 WHERE user_id = $4 AND idempotency_key = $5`,
		response.StatusCode, headers, s.encodeBody(response.Body), userID, key.String(),
	)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("save idempotency response: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewInternal(
			fmt.Errorf("save response: no in-flight idempotency row for user %s key %s", userID, key.String()),
		)
	}
	return nil
}

// DeleteExpired removes idempotency rows older than expiryHours, for
// component F's garbage collector. Returns the count removed.
func (s *IdempotencyStore) DeleteExpired(ctx context.Context, expiryHours int) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		fmt.Sprintf(`DELETE FROM idempotency WHERE created_at < now() - interval '%d hours'`, expiryHours),
	)
	if err != nil {
		return 0, apperror.NewDatabase(fmt.Errorf("delete expired idempotency rows: %w", err))
	}
	return tag.RowsAffected(), nil
}

// headerPairRow mirrors the `header_pair` composite type registered on the
// idempotency table's response_headers column.
type headerPairRow struct {
	Name  string
	Value []byte
}

// compile-time check that tx.Manager stays satisfied by TxManager, which
// backs the Querier used throughout this file.
var _ tx.Manager = (*TxManager)(nil)
