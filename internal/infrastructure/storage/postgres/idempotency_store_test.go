package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdempotencyStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	store, err := NewIdempotencyStore(nil)
	require.NoError(t, err)
	return store
}

func TestEncodeDecodeBody_RoundTripsSmallBody(t *testing.T) {
	store := newTestIdempotencyStore(t)
	body := []byte("redirect")

	encoded := store.encodeBody(body)
	assert.Equal(t, bodyEncodingRaw, encoded[0], "bodies under the threshold are stored raw")

	decoded, err := store.decodeBody(encoded)
	require.NoError(t, err)
	assert.Equal(t, body, decoded)
}

func TestEncodeDecodeBody_CompressesLargeBody(t *testing.T) {
	store := newTestIdempotencyStore(t)
	body := []byte(strings.Repeat("a", bodyCompressionThreshold+1))

	encoded := store.encodeBody(body)
	assert.Equal(t, bodyEncodingZstd, encoded[0])
	assert.Less(t, len(encoded), len(body), "a highly repetitive body must compress smaller than its input")

	decoded, err := store.decodeBody(encoded)
	require.NoError(t, err)
	assert.Equal(t, body, decoded)
}

func TestDecodeBody_EmptyStoredValueIsNilWithNoError(t *testing.T) {
	store := newTestIdempotencyStore(t)

	decoded, err := store.decodeBody(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeBody_RejectsUnknownEncodingFlag(t *testing.T) {
	store := newTestIdempotencyStore(t)

	_, err := store.decodeBody([]byte{0xFF, 1, 2, 3})
	require.Error(t, err)
}
