// Package hyperliquid adapts the Hyperliquid info API. Everything is a POST
// to /info with a typed payload; candleSnapshot returns up to 5000 candles
// for an explicit [startTime, endTime] window.
package hyperliquid

import (
	"context"
	"sort"
	"strings"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/gateway/httpx"
	"cryptoloader/internal/market"
	"cryptoloader/internal/pkg/ratelimit"

	"github.com/tidwall/gjson"
)

const maxSnapshotCandles = 5000

var intervalCodes = map[market.Interval]string{
	market.Interval1m:  "1m",
	market.Interval5m:  "5m",
	market.Interval15m: "15m",
	market.Interval1H:  "1h",
	market.Interval4H:  "4h",
	market.Interval1D:  "1d",
}

type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	PageLimit   int
	RateMax     int
	RateWindow  time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.BaseURL = strings.TrimSpace(out.BaseURL)
	if out.BaseURL == "" {
		out.BaseURL = "https://api.hyperliquid.xyz"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > maxSnapshotCandles {
		out.PageLimit = maxSnapshotCandles
	}
	if out.RateMax <= 0 {
		out.RateMax = 60
	}
	if out.RateWindow <= 0 {
		out.RateWindow = time.Minute
	}
	return out
}

type Client struct {
	cfg  Config
	http *httpx.Client
}

func New(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{
		cfg: final,
		http: httpx.New(httpx.Config{
			Exchange: market.ExchangeHyperliquid,
			BaseURL:  final.BaseURL,
			Timeout:  final.HTTPTimeout,
			Limiter:  ratelimit.New(final.RateMax, final.RateWindow),
		}),
	}
}

func (c *Client) Exchange() market.Exchange { return market.ExchangeHyperliquid }

// ListMarkets returns the perpetual universe. Coins are single-asset codes
// ("BTC"); the quote is always the USDC-margined USD side.
func (c *Client) ListMarkets(ctx context.Context) ([]market.Market, error) {
	body, err := c.http.PostJSON(ctx, "/info", map[string]any{"type": "meta"})
	if err != nil {
		return nil, err
	}
	universe := gjson.GetBytes(body, "universe")
	if !universe.Exists() || !universe.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeHyperliquid, Field: "universe", Reason: "missing universe array"}
	}
	items := universe.Array()
	out := make([]market.Market, 0, len(items))
	for _, item := range items {
		name := item.Get("name").String()
		if name == "" || item.Get("isDelisted").Bool() {
			continue
		}
		out = append(out, market.Market{
			MarketCode: name,
			Exchange:   market.ExchangeHyperliquid,
			Base:       name,
			Quote:      "USD",
			Contract:   market.ContractLinearPerpetual,
		})
	}
	return out, nil
}

func (c *Client) FetchCandles(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	code, ok := intervalCodes[req.Interval]
	if !ok {
		return nil, &market.ConfigError{Field: "interval", Reason: "hyperliquid does not support " + req.Interval.String()}
	}
	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	limit := c.cfg.PageLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	// The snapshot covers a window, not a row count: clamp the window so one
	// call never asks for more than the venue serves.
	start := end.Add(-time.Duration(limit) * req.Interval.Duration())
	if !req.Start.IsZero() && req.Start.After(start) {
		start = req.Start
	}

	payload := map[string]any{
		"type": "candleSnapshot",
		"req": map[string]any{
			"coin":      req.MarketCode,
			"interval":  code,
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	}
	body, err := c.http.PostJSON(ctx, "/info", payload)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeHyperliquid, Field: "candleSnapshot", Reason: "expected a candle array"}
	}

	type row struct {
		ts  int64
		raw string
	}
	items := parsed.Array()
	rows := make([]row, 0, len(items))
	for _, item := range items {
		ts := item.Get("t").Int()
		if ts <= 0 {
			return nil, &market.SchemaError{Exchange: market.ExchangeHyperliquid, Field: "t", Reason: "bad candle timestamp"}
		}
		openTime := time.UnixMilli(ts)
		if openTime.Before(start) || !openTime.Before(end) {
			continue
		}
		rows = append(rows, row{ts: ts, raw: item.Raw})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ts < rows[j].ts })

	out := make([]gateway.RawCandle, 0, len(rows))
	for _, r := range rows {
		out = append(out, gateway.RawCandle{Exchange: market.ExchangeHyperliquid, Data: []byte(r.raw)})
	}
	return out, nil
}
