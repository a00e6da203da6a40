// Package config loads application settings from layered YAML files
// overlaid with environment variables.
package config

import (
	"fmt"
	"time"
)

// Options configures the config loader.
type Options struct {
	// ConfigDir is the directory holding base.yaml and the environment
	// overlay files (local.yaml, production.yaml).
	ConfigDir string

	// Environment selects which overlay file merges on top of base.yaml:
	// "local" or "production".
	Environment string
}

// ConfigProvider is the interface consumers depend on for reading
// configuration. Implementations must be safe for concurrent use.
type ConfigProvider interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration

	// WatchChanges starts watching base.yaml for changes; the environment
	// overlay file is not watched. Non-blocking: spawns a background
	// goroutine.
	WatchChanges()

	// OnChange registers a callback that fires after a successful reload.
	OnChange(fn func())

	// StopWatching marks the provider as stopped. It does not stop the
	// underlying file watcher started by WatchChanges.
	StopWatching()
}

// ApplicationSettings binds spec.md's `application` config section.
type ApplicationSettings struct {
	Host       string
	Port       int
	BaseURL    string
	HMACSecret string
}

// DatabaseSettings binds spec.md's `database` config section.
type DatabaseSettings struct {
	Username    string
	Password    string
	Host        string
	Port        int
	DatabaseName string
	RequireSSL  bool
}

// ConnString builds a libpq-style DSN for the pgx pool.
func (d DatabaseSettings) ConnString() string {
	sslmode := "prefer"
	if d.RequireSSL {
		sslmode = "require"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DatabaseName, sslmode,
	)
}

// EmailClientSettings binds spec.md's `email_client` config section.
type EmailClientSettings struct {
	BaseURL             string
	SenderEmail         string
	AuthorizationToken  string
	TimeoutMilliseconds int
}

func (e EmailClientSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutMilliseconds) * time.Millisecond
}

// IdempotencySettings covers the two operational knobs the original source
// hooks as worker parameters rather than config: how long a completed
// idempotency row survives before the GC worker reclaims it, and the retry
// cap the delivery worker enforces before abandoning a task.
type IdempotencySettings struct {
	ExpiryHours     int
	DeliveryRetries int
}

// Settings is the fully resolved configuration tree, read once at startup
// from a ConfigProvider.
type Settings struct {
	Application ApplicationSettings
	Database    DatabaseSettings
	EmailClient EmailClientSettings
	Idempotency IdempotencySettings
}

// Load reads every recognized key off the provider into a Settings value.
func Load(p ConfigProvider) Settings {
	return Settings{
		Application: ApplicationSettings{
			Host:       p.GetString("application.host"),
			Port:       p.GetInt("application.port"),
			BaseURL:    p.GetString("application.base_url"),
			HMACSecret: p.GetString("application.hmac_secret"),
		},
		Database: DatabaseSettings{
			Username:     p.GetString("database.username"),
			Password:     p.GetString("database.password"),
			Host:         p.GetString("database.host"),
			Port:         p.GetInt("database.port"),
			DatabaseName: p.GetString("database.database_name"),
			RequireSSL:   p.GetBool("database.require_ssl"),
		},
		EmailClient: EmailClientSettings{
			BaseURL:             p.GetString("email_client.base_url"),
			SenderEmail:         p.GetString("email_client.sender_email"),
			AuthorizationToken:  p.GetString("email_client.authorization_token"),
			TimeoutMilliseconds: p.GetInt("email_client.timeout_milliseconds"),
		},
		Idempotency: IdempotencySettings{
			ExpiryHours:     orDefault(p.GetInt("idempotency.expiry_hours"), 48),
			DeliveryRetries: orDefault(p.GetInt("idempotency.delivery_retries"), 3),
		},
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
