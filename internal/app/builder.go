package app

import (
	"cryptoloader/internal/collector"
	"cryptoloader/internal/config"
	"cryptoloader/internal/fetch"
	"cryptoloader/internal/gateway"
	"cryptoloader/internal/gateway/binance"
	"cryptoloader/internal/gateway/birdeye"
	"cryptoloader/internal/gateway/hyperliquid"
	"cryptoloader/internal/gateway/okx"
	"cryptoloader/internal/gateway/oxfun"
	"cryptoloader/internal/market"
)

// buildClients instantiates one gateway client per enabled exchange.
func buildClients(cfg *config.Config) map[market.Exchange]gateway.Client {
	clients := map[market.Exchange]gateway.Client{}
	ex := cfg.Exchanges

	if ex.OKX.Enabled {
		clients[market.ExchangeOKX] = okx.New(okx.Config{
			BaseURL:     ex.OKX.BaseURL,
			HTTPTimeout: ex.OKX.Timeout(),
			PageLimit:   ex.OKX.PageLimit,
			RateMax:     ex.OKX.RateRequests,
			RateWindow:  ex.OKX.RateWindow(),
		})
	}
	if ex.Hyperliquid.Enabled {
		clients[market.ExchangeHyperliquid] = hyperliquid.New(hyperliquid.Config{
			BaseURL:     ex.Hyperliquid.BaseURL,
			HTTPTimeout: ex.Hyperliquid.Timeout(),
			PageLimit:   ex.Hyperliquid.PageLimit,
			RateMax:     ex.Hyperliquid.RateRequests,
			RateWindow:  ex.Hyperliquid.RateWindow(),
		})
	}
	if ex.OxFun.Enabled {
		clients[market.ExchangeOxFun] = oxfun.New(oxfun.Config{
			BaseURL:     ex.OxFun.BaseURL,
			HTTPTimeout: ex.OxFun.Timeout(),
			PageLimit:   ex.OxFun.PageLimit,
			RateMax:     ex.OxFun.RateRequests,
			RateWindow:  ex.OxFun.RateWindow(),
		})
	}
	if ex.Binance.Enabled {
		clients[market.ExchangeBinance] = binance.New(binance.Config{
			BaseURL:     ex.Binance.BaseURL,
			HTTPTimeout: ex.Binance.Timeout(),
			PageLimit:   ex.Binance.PageLimit,
			RateMax:     ex.Binance.RateRequests,
			RateWindow:  ex.Binance.RateWindow(),
		})
	}
	if ex.Birdeye.Enabled {
		clients[market.ExchangeBirdeye] = birdeye.New(birdeye.Config{
			BaseURL:     ex.Birdeye.BaseURL,
			APIKey:      ex.Birdeye.APIKey,
			HTTPTimeout: ex.Birdeye.Timeout(),
			RateMax:     ex.Birdeye.RateRequests,
			RateWindow:  ex.Birdeye.RateWindow(),
		})
	}
	return clients
}

type exchangeUnit struct {
	client    gateway.Client
	catalog   *collector.Catalog
	collector *collector.Collector
}

func buildUnits(cfg *config.Config, clients map[market.Exchange]gateway.Client) map[market.Exchange]exchangeUnit {
	units := make(map[market.Exchange]exchangeUnit, len(clients))
	for exch, client := range clients {
		fetcher := fetch.New(client, fetch.Options{
			MaxPages:   cfg.Collector.MaxPages,
			MaxRetries: cfg.Collector.MaxRetries,
		})
		units[exch] = exchangeUnit{
			client:    client,
			catalog:   collector.NewCatalog(client),
			collector: collector.New(exch, fetcher, cfg.Collector.Concurrency),
		}
	}
	return units
}
