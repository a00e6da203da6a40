package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"newsletter/internal/config"
	domainemail "newsletter/internal/domain/email"
	"newsletter/internal/infrastructure/storage/postgres"
	"newsletter/internal/worker"
	"newsletter/pkg/logger"
)

// registerHTTPServer is component D's fx.Lifecycle hook: it binds the
// listener during OnStart and serves in a background goroutine, shutting
// down gracefully on OnStop.
func registerHTTPServer(lifecycle fx.Lifecycle, router *gin.Engine, settings config.Settings, log *logger.Logger, shutdowner fx.Shutdowner) {
	address := fmt.Sprintf("%s:%d", settings.Application.Host, settings.Application.Port)
	server := &http.Server{Addr: address, Handler: router}
	var serveErrCh chan error

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			listener, err := net.Listen("tcp", address)
			if err != nil {
				return fmt.Errorf("app: bind http listener %s: %w", address, err)
			}

			serveErrCh = make(chan error, 1)
			go func() {
				err := server.Serve(listener)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("http server stopped unexpectedly", "cause", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
				serveErrCh <- err
			}()

			log.Infow("http server started", "address", address)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			if serveErrCh != nil {
				<-serveErrCh
			}
			return nil
		},
	})
}

// registerDeliveryWorker runs component E's at-least-once delivery loop as
// a peer background task. If the loop returns with anything other than
// context cancellation, it triggers the same fail-fast supervisor as the
// HTTP server: the whole process goes down together rather than limping
// with one dead component. Per-iteration database errors do not end the
// loop; it sleeps and tries again.
func registerDeliveryWorker(lifecycle fx.Lifecycle, txManager *postgres.TxManager, queue *postgres.DeliveryQueueRepo, gateway domainemail.Gateway, settings config.Settings, log *logger.Logger, shutdowner fx.Shutdowner) {
	w := worker.NewDeliveryWorker(txManager, queue, gateway, settings.Idempotency.DeliveryRetries)
	ctx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Errorw("delivery worker exited unexpectedly", "cause", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Infow("delivery worker started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

// registerGCWorker runs component F's idempotency garbage collector on
// its own peer loop, same fail-fast contract as the other two.
func registerGCWorker(lifecycle fx.Lifecycle, txManager *postgres.TxManager, idempStore *postgres.IdempotencyStore, settings config.Settings, log *logger.Logger, shutdowner fx.Shutdowner) {
	w := worker.NewGCWorker(txManager, idempStore, settings.Idempotency.ExpiryHours)
	ctx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Errorw("gc worker exited unexpectedly", "cause", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Infow("gc worker started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
