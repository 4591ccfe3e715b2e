package config

import "time"

type Config struct {
	App       AppConfig       `toml:"app"`
	Collector CollectorConfig `toml:"collector"`
	Exchanges ExchangesConfig `toml:"exchanges"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

type CollectorConfig struct {
	Concurrency           int `toml:"concurrency"`
	MaxPages              int `toml:"max_pages"`
	MaxRetries            int `toml:"max_retries"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

func (c CollectorConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

type ExchangesConfig struct {
	OKX         ExchangeConfig `toml:"okx"`
	Hyperliquid ExchangeConfig `toml:"hyperliquid"`
	OxFun       ExchangeConfig `toml:"oxfun"`
	Binance     ExchangeConfig `toml:"binance"`
	Birdeye     ExchangeConfig `toml:"birdeye"`
}

type ExchangeConfig struct {
	Enabled           bool   `toml:"enabled"`
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	PageLimit         int    `toml:"page_limit"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RateRequests      int    `toml:"rate_requests"`
	RateWindowSeconds int    `toml:"rate_window_seconds"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (e ExchangeConfig) RateWindow() time.Duration {
	return time.Duration(e.RateWindowSeconds) * time.Second
}
