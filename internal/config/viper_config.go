package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var _ ConfigProvider = (*viperConfig)(nil)

type viperConfig struct {
	v         *viper.Viper
	callbacks []func()
	mu        sync.RWMutex
	done      chan struct{}
}

// Init loads configs/base.yaml, overlays configs/{local,production}.yaml on
// top of it, then lets environment variables prefixed APP_ (with __ as the
// nested-key separator, e.g. APP_DATABASE__PASSWORD) override anything
// either file set.
func Init(opts Options) (ConfigProvider, error) {
	v := viper.New()
	v.SetConfigName("base")
	v.SetConfigType("yaml")
	v.AddConfigPath(opts.ConfigDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read base config: %w", err)
	}

	if opts.Environment != "" {
		overlay := viper.New()
		overlay.SetConfigName(opts.Environment)
		overlay.SetConfigType("yaml")
		overlay.AddConfigPath(opts.ConfigDir)
		if err := overlay.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s overlay: %w", opts.Environment, err)
		}
		if err := v.MergeConfigMap(overlay.AllSettings()); err != nil {
			return nil, fmt.Errorf("config: merge %s overlay: %w", opts.Environment, err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	return &viperConfig{v: v, done: make(chan struct{})}, nil
}

func (c *viperConfig) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(key)
}

func (c *viperConfig) GetDuration(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetDuration(key)
}

func (c *viperConfig) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *viperConfig) WatchChanges() {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.mu.Lock()
		cbs := make([]func(), len(c.callbacks))
		copy(cbs, c.callbacks)
		c.mu.Unlock()

		for _, fn := range cbs {
			fn()
		}
	})
	c.v.WatchConfig()
}

func (c *viperConfig) StopWatching() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
