// Package v1 wires the HTTP surface for version 1 of the API.
package v1

import (
	"github.com/gin-gonic/gin"

	"newsletter/internal/domain/auth"
	"newsletter/internal/domain/newsletter"
	"newsletter/internal/domain/subscription"
	"newsletter/internal/infrastructure/http/v1/handlers"
	"newsletter/internal/infrastructure/http/v1/middleware"
	"newsletter/internal/infrastructure/storage/postgres"
	"newsletter/pkg/logger"
)

// Config holds everything the router needs to wire its routes.
type Config struct {
	Pool             *postgres.Pool
	Logger           *logger.Logger
	JWTValidator     middleware.JWTValidator
	AuthService      *auth.Service
	PublishService   *newsletter.PublishService
	SubscriptionRepo subscription.Repository
}

// NewRouter builds the gin.Engine for the publish/delivery admin surface
// plus the subscribe/confirm flow.
func NewRouter(cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	health := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)
	router.GET("/health/info", health.Info)

	subs := handlers.NewSubscriptionHandler(cfg.SubscriptionRepo)
	router.POST("/subscriptions", subs.Subscribe)
	router.GET("/subscriptions/confirm", subs.Confirm)

	api := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.Auth(cfg.JWTValidator))
	{
		newsletterHandler := handlers.NewNewsletterHandler(cfg.PublishService)
		admin.GET("/dashboard", newsletterHandler.Dashboard)
		admin.GET("/newsletters", newsletterHandler.NewIssueForm)
		admin.POST("/newsletters", newsletterHandler.PublishIssue)
	}

	return router
}
