// Package config loads the loader configuration from YAML and keeps the log
// level live across file edits.
package config

import (
	"fmt"
	"strings"

	"cryptoloader/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the file on change and re-applies the settings that are safe
// to flip at runtime. Everything else needs a restart.
func Watch(path string, onChange func(*Config)) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Warnf("config watch disabled: %v", err)
		return
	}
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			logger.Warnf("config reload rejected: %v", err)
			return
		}
		logger.Infof("config reloaded from %s", path)
		onChange(cfg)
	})
	v.WatchConfig()
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8090"
	}
	if c.Collector.Concurrency <= 0 {
		c.Collector.Concurrency = 4
	}
	if c.Collector.MaxPages <= 0 {
		c.Collector.MaxPages = 50
	}
	if c.Collector.MaxRetries <= 0 {
		c.Collector.MaxRetries = 3
	}
	if c.Collector.RequestTimeoutSeconds <= 0 {
		c.Collector.RequestTimeoutSeconds = 120
	}
}

func validate(c *Config) error {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.App.LogLevel)
	}
	if c.Exchanges.Birdeye.Enabled && c.Exchanges.Birdeye.APIKey == "" {
		return fmt.Errorf("exchanges.birdeye.api_key is required when birdeye is enabled")
	}
	return nil
}
