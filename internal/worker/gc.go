package worker

import (
	"context"
	"fmt"
	"time"

	"newsletter/internal/core/tx"
	"newsletter/pkg/logger"
)

const defaultExpiryHours = 48
const gcInterval = 24 * time.Hour

// GCWorker implements component F: it periodically deletes idempotency
// records older than its configured expiry window.
type GCWorker struct {
	txManager    tx.Manager
	idempotency  IdempotencyGC
	expiryHours  int
}

// IdempotencyGC is the store operation the GC worker drives. Implemented
// by internal/infrastructure/storage/postgres.IdempotencyStore.
type IdempotencyGC interface {
	DeleteExpired(ctx context.Context, expiryHours int) (int64, error)
}

// NewGCWorker constructs a GCWorker. expiryHours defaults to 48 when zero.
func NewGCWorker(txManager tx.Manager, idempotency IdempotencyGC, expiryHours int) *GCWorker {
	if expiryHours <= 0 {
		expiryHours = defaultExpiryHours
	}
	return &GCWorker{txManager: txManager, idempotency: idempotency, expiryHours: expiryHours}
}

// Run loops until ctx is cancelled, running one GC cycle every 24h. A
// failed cycle is logged and retried on the next tick rather than
// crashing the worker.
func (w *GCWorker) Run(ctx context.Context) error {
	for {
		if err := w.runCycle(ctx); err != nil {
			logger.Error(ctx, "idempotency gc cycle failed", "cause", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(gcInterval):
		}
	}
}

func (w *GCWorker) runCycle(ctx context.Context) error {
	var deleted int64
	err := w.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := w.idempotency.DeleteExpired(ctx, w.expiryHours)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expired idempotency rows: %w", err)
	}

	logger.Info(ctx, "idempotency gc cycle completed", "rows_deleted", deleted)
	return nil
}
