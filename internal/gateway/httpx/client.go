// Package httpx is the shared HTTP plumbing for venue adapters: rate-limit
// gating, JSON requests, and mapping of failure modes onto the market error
// taxonomy.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptoloader/internal/market"
	"cryptoloader/internal/pkg/ratelimit"

	"github.com/tidwall/gjson"
)

const maxErrorBody = 512

type Config struct {
	Exchange market.Exchange
	BaseURL  string
	Timeout  time.Duration
	Limiter  *ratelimit.Limiter
	Headers  map[string]string
}

type Client struct {
	exchange market.Exchange
	base     string
	hc       *http.Client
	limiter  *ratelimit.Limiter
	headers  map[string]string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		exchange: cfg.Exchange,
		base:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		hc:       &http.Client{Timeout: timeout},
		limiter:  cfg.Limiter,
		headers:  cfg.Headers,
	}
}

// GetJSON issues a rate-limited GET and returns the raw response body.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

// PostJSON issues a rate-limited POST with a JSON body and returns the raw
// response body. Hyperliquid serves all market data this way.
func (c *Client) PostJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &market.NetworkError{Exchange: c.exchange, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &market.NetworkError{Exchange: c.exchange, Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &market.RateLimitError{
			Exchange:   c.exchange,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= 300 {
		return nil, &market.APIError{
			Exchange: c.exchange,
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Code:     errorCode(body),
			Message:  truncate(body),
		}
	}
	return body, nil
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func errorCode(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, key := range []string{"code", "error_code", "errorCode"} {
		if res := gjson.GetBytes(body, key); res.Exists() {
			return res.String()
		}
	}
	return ""
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return fmt.Sprintf("%s... (%d bytes)", s[:maxErrorBody], len(s))
	}
	return s
}
