// Package app wires every component behind go.uber.org/fx: configuration,
// the Postgres pool and repositories, the HTTP router, and the delivery
// and garbage-collection worker loops, each running as a peer fx.Lifecycle
// hook behind a fail-fast supervisor.
package app

import (
	"strings"

	"go.uber.org/fx"

	"newsletter/internal/config"
)

// New builds the fx.App for the given environment ("local" or
// "production"), ready to Run().
func New(environment string, opts ...fx.Option) *fx.App {
	normalized := strings.TrimSpace(strings.ToLower(environment))
	if normalized == "" {
		normalized = "local"
	}

	base := []fx.Option{
		fx.Supply(config.Options{ConfigDir: "configs", Environment: normalized}),
		CoreModule(),
		fx.Invoke(registerHTTPServer),
		fx.Invoke(registerDeliveryWorker),
		fx.Invoke(registerGCWorker),
	}
	base = append(base, opts...)
	return fx.New(base...)
}

// CoreModule provides every shared dependency: config, logger, pool,
// transaction manager, repositories, services and the router.
func CoreModule() fx.Option {
	return fx.Module("core",
		fx.Provide(
			provideConfigProvider,
			provideSettings,
			provideLogger,
			providePool,
			provideTxManager,
			provideIdempotencyStore,
			provideIssueRepo,
			provideDeliveryQueueRepo,
			provideSubscriptionRepo,
			provideUserRepo,
			provideAuthService,
			provideEmailGateway,
			providePublishService,
			provideRouter,
		),
	)
}
