package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"newsletter/internal/config"
	"newsletter/internal/domain/auth"
	domainemail "newsletter/internal/domain/email"
	"newsletter/internal/domain/newsletter"
	"newsletter/internal/infrastructure/email"
	v1 "newsletter/internal/infrastructure/http/v1"
	"newsletter/internal/infrastructure/storage/postgres"
	"newsletter/pkg/logger"
)

func provideConfigProvider(opts config.Options) (config.ConfigProvider, error) {
	provider, err := config.Init(opts)
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}
	return provider, nil
}

func provideSettings(provider config.ConfigProvider) config.Settings {
	return config.Load(provider)
}

func provideLogger(settings config.Settings) (*logger.Logger, error) {
	return logger.New(logger.Config{Level: "info"})
}

func providePool(settings config.Settings) (*postgres.Pool, error) {
	dsn := settings.Database.ConnString()
	return postgres.NewPool(context.Background(), postgres.DefaultPoolConfig(dsn))
}

func provideTxManager(pool *postgres.Pool) *postgres.TxManager {
	return postgres.NewTxManager(pool)
}

func provideIdempotencyStore(txManager *postgres.TxManager) (*postgres.IdempotencyStore, error) {
	return postgres.NewIdempotencyStore(txManager)
}

func provideIssueRepo(txManager *postgres.TxManager) *postgres.IssueRepo {
	return postgres.NewIssueRepo(txManager)
}

func provideDeliveryQueueRepo(txManager *postgres.TxManager) *postgres.DeliveryQueueRepo {
	return postgres.NewDeliveryQueueRepo(txManager)
}

func provideSubscriptionRepo(txManager *postgres.TxManager) *postgres.SubscriptionRepo {
	return postgres.NewSubscriptionRepo(txManager)
}

func provideUserRepo(txManager *postgres.TxManager) *postgres.UserRepo {
	return postgres.NewUserRepo(txManager)
}

func provideAuthService(settings config.Settings, users *postgres.UserRepo) *auth.Service {
	return auth.NewService(auth.DefaultConfig(settings.Application.HMACSecret), users)
}

func provideEmailGateway(settings config.Settings) domainemail.Gateway {
	return email.NewClient(email.Config{
		BaseURL:            settings.EmailClient.BaseURL,
		SenderEmail:        settings.EmailClient.SenderEmail,
		AuthorizationToken: settings.EmailClient.AuthorizationToken,
		Timeout:            settings.EmailClient.Timeout(),
	})
}

func providePublishService(txManager *postgres.TxManager, idempStore *postgres.IdempotencyStore, issues *postgres.IssueRepo) *newsletter.PublishService {
	return newsletter.NewPublishService(txManager, idempStore, issues)
}

func provideRouter(pool *postgres.Pool, log *logger.Logger, authService *auth.Service, publish *newsletter.PublishService, subs *postgres.SubscriptionRepo) *gin.Engine {
	return v1.NewRouter(v1.Config{
		Pool:             pool,
		Logger:           log,
		JWTValidator:     authService,
		AuthService:      authService,
		PublishService:   publish,
		SubscriptionRepo: subs,
	})
}
