// Package app wires configuration, gateway clients, collectors and the HTTP
// surface into a runnable service.
package app

import (
	"context"
	"fmt"
	"sort"

	"cryptoloader/internal/config"
	"cryptoloader/internal/logger"
	"cryptoloader/internal/market"
	loaderhttp "cryptoloader/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *config.Config
	cfgPath string
	units   map[market.Exchange]exchangeUnit
	httpSrv *loaderhttp.Server
}

// New builds the application from config without starting anything.
func New(cfg *config.Config, cfgPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	clients := buildClients(cfg)
	if len(clients) == 0 {
		return nil, fmt.Errorf("no exchanges enabled in config")
	}
	a := &App{
		cfg:     cfg,
		cfgPath: cfgPath,
		units:   buildUnits(cfg, clients),
	}
	srv, err := loaderhttp.NewServer(cfg.App.HTTPAddr, a)
	if err != nil {
		return nil, err
	}
	a.httpSrv = srv
	return a, nil
}

// Run serves the HTTP API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.Infof("serving %d exchanges on %s", len(a.units), a.httpSrv.Addr())

	if a.cfgPath != "" {
		config.Watch(a.cfgPath, func(next *config.Config) {
			logger.SetLevel(next.App.LogLevel)
		})
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Exchanges lists the enabled exchanges in stable order.
func (a *App) Exchanges() []market.Exchange {
	out := make([]market.Exchange, 0, len(a.units))
	for exch := range a.units {
		out = append(out, exch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *App) Tickers(ctx context.Context, exchange market.Exchange) ([]market.Market, error) {
	unit, ok := a.units[exchange]
	if !ok {
		return nil, &market.ConfigError{Field: "exchange", Reason: "not enabled: " + string(exchange)}
	}
	return unit.catalog.Tickers(ctx)
}

func (a *App) Collect(ctx context.Context, exchange market.Exchange, req market.FetchRequest) (market.Table, map[string]error) {
	unit, ok := a.units[exchange]
	if !ok {
		err := &market.ConfigError{Field: "exchange", Reason: "not enabled: " + string(exchange)}
		errs := make(map[string]error, len(req.Symbols))
		for _, s := range req.Symbols {
			errs[s] = err
		}
		return nil, errs
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Collector.RequestTimeout())
	defer cancel()
	return unit.collector.Collect(ctx, req)
}
