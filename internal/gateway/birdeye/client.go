// Package birdeye adapts the Birdeye Solana market-data API. Unlike the
// centralized venues it keys markets by token address and timestamps candles
// in epoch seconds.
package birdeye

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/gateway/httpx"
	"cryptoloader/internal/market"
	"cryptoloader/internal/pkg/ratelimit"

	"github.com/tidwall/gjson"
)

var resolutionCodes = map[market.Interval]string{
	market.Interval1m:  "1m",
	market.Interval5m:  "5m",
	market.Interval15m: "15m",
	market.Interval1H:  "1H",
	market.Interval4H:  "4H",
	market.Interval1D:  "1D",
}

type Config struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
	MarketLimit int
	RateMax     int
	RateWindow  time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.BaseURL = strings.TrimSpace(out.BaseURL)
	if out.BaseURL == "" {
		out.BaseURL = "https://public-api.birdeye.so"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.MarketLimit <= 0 {
		out.MarketLimit = 100
	}
	if out.RateMax <= 0 {
		out.RateMax = 2
	}
	if out.RateWindow <= 0 {
		out.RateWindow = time.Second
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
			Exchange: market.ExchangeBirdeye,
			BaseURL:  final.BaseURL,
			Timeout:  final.HTTPTimeout,
			Limiter:  ratelimit.New(final.RateMax, final.RateWindow),
			Headers: map[string]string{
				"X-API-KEY": final.APIKey,
				"accept":    "application/json",
			},
		}),
	}
}

func (c *Client) Exchange() market.Exchange { return market.ExchangeBirdeye }

// ListMarkets returns the top markets by capitalization. MarketCode is the
// token address, which is what every other Birdeye endpoint keys on.
func (c *Client) ListMarkets(ctx context.Context) ([]market.Market, error) {
	q := url.Values{}
	q.Set("sort_by", "market_cap")
	q.Set("sort_type", "desc")
	q.Set("limit", strconv.Itoa(c.cfg.MarketLimit))

	body, err := c.http.GetJSON(ctx, "/public/markets", q)
	if err != nil {
		return nil, err
	}
	rows := gjson.GetBytes(body, "data.markets")
	if !rows.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeBirdeye, Field: "data.markets", Reason: "missing market list"}
	}

	var out []market.Market
	for _, row := range rows.Array() {
		address := row.Get("address").String()
		if address == "" {
			continue
		}
		out = append(out, market.Market{
			MarketCode: address,
			Exchange:   market.ExchangeBirdeye,
			Base:       strings.ToUpper(row.Get("symbol").String()),
			Quote:      "USD",
			Contract:   market.ContractUnknown,
		})
	}
	return out, nil
}

func (c *Client) FetchCandles(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	resolution, ok := resolutionCodes[req.Interval]
	if !ok {
		return nil, &market.ConfigError{Field: "interval", Reason: "birdeye does not support " + req.Interval.String()}
	}
	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 1000
	}
	// history_price_v2 takes a closed time window; derive one page's worth
	// from the cursor since candles sit on a regular grid.
	start := end.Add(-time.Duration(limit) * req.Interval.Duration())
	if !req.Start.IsZero() && req.Start.After(start) {
		start = req.Start
	}

	q := url.Values{}
	q.Set("address", strings.TrimSpace(req.MarketCode))
	q.Set("type", resolution)
	q.Set("time_from", strconv.FormatInt(start.Unix(), 10))
	q.Set("time_to", strconv.FormatInt(end.Unix()-1, 10))

	body, err := c.http.GetJSON(ctx, "/public/history_price_v2", q)
	if err != nil {
		return nil, err
	}
	if res := gjson.GetBytes(body, "success"); res.Exists() && !res.Bool() {
		return nil, &market.APIError{
			Exchange: market.ExchangeBirdeye,
			Endpoint: "/public/history_price_v2",
			Status:   200,
			Message:  gjson.GetBytes(body, "message").String(),
		}
	}
	rows := gjson.GetBytes(body, "data.items")
	if !rows.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeBirdeye, Field: "data.items", Reason: "missing candle list"}
	}

	items := rows.Array()
	out := make([]gateway.RawCandle, 0, len(items))
	for _, row := range items {
		ts := row.Get("time").Int()
		if ts <= 0 {
			continue
		}
		openTime := time.Unix(ts, 0)
		if openTime.Before(start) || !openTime.Before(end) {
			continue
		}
		out = append(out, gateway.RawCandle{Exchange: market.ExchangeBirdeye, Data: []byte(row.Raw)})
	}
	return out, nil
}
