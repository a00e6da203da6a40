package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdempotencyGC struct {
	calledWithHours []int
	deleted         int64
	err             error
}

func (g *fakeIdempotencyGC) DeleteExpired(ctx context.Context, expiryHours int) (int64, error) {
	g.calledWithHours = append(g.calledWithHours, expiryHours)
	return g.deleted, g.err
}

func TestNewGCWorker_DefaultsExpiryHours(t *testing.T) {
	gc := &fakeIdempotencyGC{deleted: 3}
	w := NewGCWorker(fakeTxManager{}, gc, 0)

	require.NoError(t, w.runCycle(context.Background()))
	require.Len(t, gc.calledWithHours, 1)
	assert.Equal(t, defaultExpiryHours, gc.calledWithHours[0])
}

func TestNewGCWorker_UsesConfiguredExpiryHours(t *testing.T) {
	gc := &fakeIdempotencyGC{}
	w := NewGCWorker(fakeTxManager{}, gc, 12)

	require.NoError(t, w.runCycle(context.Background()))
	assert.Equal(t, 12, gc.calledWithHours[0])
}

func TestRunCycle_WrapsStoreError(t *testing.T) {
	gc := &fakeIdempotencyGC{err: errors.New("connection reset")}
	w := NewGCWorker(fakeTxManager{}, gc, 48)

	err := w.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete expired idempotency rows")
}
