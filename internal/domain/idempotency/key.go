// Package idempotency implements the dedup substrate that lets an author
// retry a publish submission without double-enqueuing delivery tasks.
package idempotency

import (
	"fmt"

	"newsletter/internal/core/apperror"
)

const maxKeyLength = 50

// Key is a validated idempotency key. It can only be constructed through
// ParseKey, so a Key value in hand is guaranteed non-empty and under the
// length limit — callers never re-check it.
type Key struct {
	value string
}

// ParseKey validates a raw idempotency key string.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return Key{}, apperror.NewValidation("idempotency key must not be empty")
	}
	if len(raw) >= maxKeyLength {
		return Key{}, apperror.NewValidation(
			fmt.Sprintf("idempotency key must be shorter than %d characters", maxKeyLength),
		)
	}
	return Key{value: raw}, nil
}

// String returns the underlying key value.
func (k Key) String() string {
	return k.value
}
