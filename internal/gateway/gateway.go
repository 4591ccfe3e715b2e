// Package gateway defines the capability contract every venue adapter
// implements. Each adapter hides its venue's base URL, symbol naming,
// interval codes, page size and cursor direction behind the same two
// operations.
package gateway

import (
	"context"
	"time"

	"cryptoloader/internal/market"
)

// PageRequest asks for one page of raw candles inside [Start, End).
// A zero End means "now". Adapters that page backwards (okx `after`,
// ox.fun shifting windows) translate internally; the records returned are
// always oldest-first and strictly inside the window.
type PageRequest struct {
	MarketCode string
	Interval   market.Interval
	Start      time.Time
	End        time.Time
	Limit      int // 0 = venue default page size
}

// RawCandle is one venue-native candle record, untouched. The normalizer's
// per-exchange field map gives it meaning.
type RawCandle struct {
	Exchange market.Exchange
	Data     []byte
}

// Client is one venue's public market-data surface.
//
// ListMarkets fails with *market.NetworkError or *market.APIError.
// FetchCandles additionally fails with *market.RateLimitError when the venue
// throttles. Implementations share their rate-limit window across concurrent
// callers and are otherwise stateless, so one client may back many fetches.
type Client interface {
	Exchange() market.Exchange
	ListMarkets(ctx context.Context) ([]market.Market, error)
	FetchCandles(ctx context.Context, req PageRequest) ([]RawCandle, error)
}
