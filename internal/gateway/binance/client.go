// Package binance adapts Binance USD-M futures. Instrument metadata comes
// through the go-binance SDK; klines are fetched over plain REST so the raw
// rows stay available to the unified normalizer.
package binance

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/gateway/httpx"
	"cryptoloader/internal/market"
	"cryptoloader/internal/pkg/ratelimit"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/tidwall/gjson"
)

const (
	maxPageLimit = 1500
	// SDK error code for "too many requests".
	codeTooManyRequests = -1003
)

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
		out.BaseURL = "https://fapi.binance.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > maxPageLimit {
		out.PageLimit = 1000
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
	cfg     Config
	sdk     *futures.Client
	http    *httpx.Client
	limiter *ratelimit.Limiter
}

func New(cfg Config) *Client {
	final := cfg.withDefaults()
	sdk := futures.NewClient("", "")
	sdk.BaseURL = final.BaseURL
	sdk.HTTPClient.Timeout = final.HTTPTimeout
	limiter := ratelimit.New(final.RateMax, final.RateWindow)
	return &Client{
		cfg:     final,
		sdk:     sdk,
		limiter: limiter,
		http: httpx.New(httpx.Config{
			Exchange: market.ExchangeBinance,
			BaseURL:  final.BaseURL,
			Timeout:  final.HTTPTimeout,
			Limiter:  limiter,
		}),
	}
}

func (c *Client) Exchange() market.Exchange { return market.ExchangeBinance }

// ListMarkets returns the USDT-margined perpetuals that are currently
// trading.
func (c *Client) ListMarkets(ctx context.Context) ([]market.Market, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	info, err := c.sdk.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, c.mapSDKError("/fapi/v1/exchangeInfo", err)
	}
	out := make([]market.Market, 0, len(info.Symbols))
	for _, sym := range info.Symbols {
		if sym.ContractType != "PERPETUAL" || sym.QuoteAsset != "USDT" {
			continue
		}
		if sym.Status != "TRADING" {
			continue
		}
		out = append(out, market.Market{
			MarketCode: sym.Symbol,
			Exchange:   market.ExchangeBinance,
			Base:       sym.BaseAsset,
			Quote:      sym.QuoteAsset,
			Contract:   market.ContractLinearPerpetual,
		})
	}
	return out, nil
}

func (c *Client) FetchCandles(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	code, ok := intervalCodes[req.Interval]
	if !ok {
		return nil, &market.ConfigError{Field: "interval", Reason: "binance does not support " + req.Interval.String()}
	}
	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	limit := c.cfg.PageLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	// klines paginate forward from startTime; anchor the window to abut the
	// cursor so older pages come back on subsequent calls.
	start := end.Add(-time.Duration(limit) * req.Interval.Duration())
	if !req.Start.IsZero() && req.Start.After(start) {
		start = req.Start
	}

	q := url.Values{}
	q.Set("symbol", strings.ToUpper(strings.TrimSpace(req.MarketCode)))
	q.Set("interval", code)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli()-1, 10))

	body, err := c.http.GetJSON(ctx, "/fapi/v1/klines", q)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, &market.SchemaError{Exchange: market.ExchangeBinance, Field: "klines", Reason: "expected a kline array"}
	}

	rows := parsed.Array()
	out := make([]gateway.RawCandle, 0, len(rows))
	for _, row := range rows {
		ts := row.Get("0").Int()
		if ts <= 0 {
			return nil, &market.SchemaError{Exchange: market.ExchangeBinance, Field: "openTime", Reason: "bad kline timestamp"}
		}
		openTime := time.UnixMilli(ts)
		if openTime.Before(start) || !openTime.Before(end) {
			continue
		}
		out = append(out, gateway.RawCandle{Exchange: market.ExchangeBinance, Data: []byte(row.Raw)})
	}
	return out, nil
}

func (c *Client) mapSDKError(endpoint string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == codeTooManyRequests {
			return &market.RateLimitError{Exchange: market.ExchangeBinance}
		}
		return &market.APIError{
			Exchange: market.ExchangeBinance,
			Endpoint: endpoint,
			Status:   400,
			Code:     strconv.FormatInt(apiErr.Code, 10),
			Message:  apiErr.Message,
		}
	}
	return &market.NetworkError{Exchange: market.ExchangeBinance, Endpoint: endpoint, Err: err}
}
