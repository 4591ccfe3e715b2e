// Package okx adapts the OKX v5 public market-data API. History pages
// backwards through the `after` cursor (records strictly earlier than the
// given millisecond timestamp, newest first, 100 per page).
package okx

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
	"cryptoloader/internal/pkg/symbol"

	"github.com/tidwall/gjson"
)

const (
	maxPageLimit = 100
	codeOK       = "0"
	// Venue-specific throttle code; arrives with HTTP 200.
	codeTooManyRequests = "50011"
)

var barCodes = map[market.Interval]string{
	market.Interval1m:  "1m",
	market.Interval5m:  "5m",
	market.Interval15m: "15m",
	market.Interval1H:  "1H",
	market.Interval4H:  "4H",
	market.Interval1D:  "1D",
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
		out.BaseURL = "https://www.okx.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > maxPageLimit {
		out.PageLimit = maxPageLimit
	}
	if out.RateMax <= 0 {
		out.RateMax = 20
	}
	if out.RateWindow <= 0 {
		out.RateWindow = 2 * time.Second
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
			Exchange: market.ExchangeOKX,
			BaseURL:  final.BaseURL,
			Timeout:  final.HTTPTimeout,
			Limiter:  ratelimit.New(final.RateMax, final.RateWindow),
		}),
	}
}

func (c *Client) Exchange() market.Exchange { return market.ExchangeOKX }

func (c *Client) ListMarkets(ctx context.Context) ([]market.Market, error) {
	q := url.Values{}
	q.Set("instType", "SPOT")
	body, err := c.http.GetJSON(ctx, "/api/v5/market/tickers", q)
	if err != nil {
		return nil, err
	}
	data, err := c.envelope(body, "/api/v5/market/tickers")
	if err != nil {
		return nil, err
	}
	out := make([]market.Market, 0, len(data))
	for _, item := range data {
		instID := item.Get("instId").String()
		if instID == "" {
			continue
		}
		pair := symbol.Parse(instID)
		out = append(out, market.Market{
			MarketCode: instID,
			Exchange:   market.ExchangeOKX,
			Base:       pair.Base,
			Quote:      pair.Quote,
			Contract:   market.ContractSpot,
		})
	}
	return out, nil
}

func (c *Client) FetchCandles(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	bar, ok := barCodes[req.Interval]
	if !ok {
		return nil, &market.ConfigError{Field: "interval", Reason: "okx does not support " + req.Interval.String()}
	}
	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	limit := c.cfg.PageLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	q := url.Values{}
	q.Set("instId", req.MarketCode)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("after", strconv.FormatInt(end.UnixMilli(), 10))

	body, err := c.http.GetJSON(ctx, "/api/v5/market/history-candles", q)
	if err != nil {
		return nil, err
	}
	rows, err := c.envelope(body, "/api/v5/market/history-candles")
	if err != nil {
		return nil, err
	}

	// Rows arrive newest-first; keep the window and flip to oldest-first.
	out := make([]gateway.RawCandle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		ts := rows[i].Get("0").Int()
		if ts <= 0 {
			return nil, &market.SchemaError{Exchange: market.ExchangeOKX, Field: "openTime", Reason: "bad row timestamp"}
		}
		openTime := time.UnixMilli(ts)
		if !req.Start.IsZero() && openTime.Before(req.Start) {
			continue
		}
		if !openTime.Before(end) {
			continue
		}
		out = append(out, gateway.RawCandle{Exchange: market.ExchangeOKX, Data: []byte(rows[i].Raw)})
	}
	return out, nil
}

// envelope unwraps the {code,msg,data} shell every v5 endpoint uses.
func (c *Client) envelope(body []byte, endpoint string) ([]gjson.Result, error) {
	parsed := gjson.ParseBytes(body)
	code := parsed.Get("code").String()
	if code == codeTooManyRequests {
		return nil, &market.RateLimitError{Exchange: market.ExchangeOKX}
	}
	if code != codeOK {
		return nil, &market.APIError{
			Exchange: market.ExchangeOKX,
			Endpoint: endpoint,
			Status:   200,
			Code:     code,
			Message:  parsed.Get("msg").String(),
		}
	}
	data := parsed.Get("data")
	if !data.Exists() || !data.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeOKX, Field: "data", Reason: "missing data array"}
	}
	return data.Array(), nil
}
