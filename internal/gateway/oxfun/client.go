// Package oxfun adapts the ox.fun v3 public API. Candles are served per
// [startTime, endTime] window (max 500 rows); older history comes from
// shifting the window backwards. The upstream behavior of this venue is the
// least documented of the set, so its contract is pinned by recorded-fixture
// tests rather than assumptions.
package oxfun

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/gateway/httpx"
	"cryptoloader/internal/market"
	"cryptoloader/internal/pkg/ratelimit"

	"github.com/tidwall/gjson"
)

const maxPageLimit = 500

// Timeframes are second-denominated strings.
var timeframeCodes = map[market.Interval]string{
	market.Interval1m:  "60s",
	market.Interval5m:  "300s",
	market.Interval15m: "900s",
	market.Interval1H:  "3600s",
	market.Interval4H:  "14400s",
	market.Interval1D:  "86400s",
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
		out.BaseURL = "https://api.ox.fun"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > maxPageLimit {
		out.PageLimit = maxPageLimit
	}
	if out.RateMax <= 0 {
		out.RateMax = 100
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
			Exchange: market.ExchangeOxFun,
			BaseURL:  final.BaseURL,
			Timeout:  final.HTTPTimeout,
			Limiter:  ratelimit.New(final.RateMax, final.RateWindow),
		}),
	}
}

func (c *Client) Exchange() market.Exchange { return market.ExchangeOxFun }

func (c *Client) ListMarkets(ctx context.Context) ([]market.Market, error) {
	body, err := c.http.GetJSON(ctx, "/v3/markets", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.envelope(body, "/v3/markets")
	if err != nil {
		return nil, err
	}
	out := make([]market.Market, 0, len(data))
	for _, item := range data {
		code := item.Get("marketCode").String()
		if code == "" {
			continue
		}
		contract := market.ContractSpot
		if strings.Contains(code, "-SWAP-LIN") || strings.EqualFold(item.Get("type").String(), "FUTURE") {
			contract = market.ContractLinearPerpetual
		}
		out = append(out, market.Market{
			MarketCode: code,
			Exchange:   market.ExchangeOxFun,
			Base:       item.Get("base").String(),
			Quote:      item.Get("counter").String(),
			Contract:   contract,
		})
	}
	return out, nil
}

func (c *Client) FetchCandles(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	timeframe, ok := timeframeCodes[req.Interval]
	if !ok {
		return nil, &market.ConfigError{Field: "interval", Reason: "ox.fun does not support " + req.Interval.String()}
	}
	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	limit := c.cfg.PageLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	start := end.Add(-time.Duration(limit) * req.Interval.Duration())
	if !req.Start.IsZero() && req.Start.After(start) {
		start = req.Start
	}

	q := url.Values{}
	q.Set("marketCode", req.MarketCode)
	q.Set("timeframe", timeframe)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))

	body, err := c.http.GetJSON(ctx, "/v3/candles", q)
	if err != nil {
		return nil, err
	}
	data, err := c.envelope(body, "/v3/candles")
	if err != nil {
		return nil, err
	}

	type row struct {
		ts  int64
		raw string
	}
	rows := make([]row, 0, len(data))
	for _, item := range data {
		ts := item.Get("openedAt").Int()
		if ts <= 0 {
			return nil, &market.SchemaError{Exchange: market.ExchangeOxFun, Field: "openedAt", Reason: "bad candle timestamp"}
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
		out = append(out, gateway.RawCandle{Exchange: market.ExchangeOxFun, Data: []byte(r.raw)})
	}
	return out, nil
}

// envelope unwraps the {success, code?, message?, data} shell.
func (c *Client) envelope(body []byte, endpoint string) ([]gjson.Result, error) {
	parsed := gjson.ParseBytes(body)
	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		return nil, &market.APIError{
			Exchange: market.ExchangeOxFun,
			Endpoint: endpoint,
			Status:   200,
			Code:     parsed.Get("code").String(),
			Message:  firstNonEmpty(parsed.Get("message").String(), parsed.Get("msg").String()),
		}
	}
	data := parsed.Get("data")
	if !data.Exists() || !data.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeOxFun, Field: "data", Reason: "missing data array"}
	}
	return data.Array(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "request rejected"
}
