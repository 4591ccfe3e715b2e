package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/market"

	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(Config{BaseURL: srv.URL, RateMax: 1000, RateWindow: time.Second}), srv
}

func TestListMarkets(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/tickers", r.URL.Path)
		assert.Equal(t, "SPOT", r.URL.Query().Get("instType"))
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT","last":"62000.5"},
			{"instId":"ETH-USDT","last":"3400.1"},
			{"instId":""}
		]}`))
	}))
	defer srv.Close()

	markets, err := client.ListMarkets(context.Background())
	assert.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, market.Market{
		MarketCode: "BTC-USDT",
		Exchange:   market.ExchangeOKX,
		Base:       "BTC",
		Quote:      "USDT",
		Contract:   market.ContractSpot,
	}, markets[0])
}

func TestFetchCandlesWindowsAndReverses(t *testing.T) {
	end := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	start := end.Add(-2 * time.Hour)

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/history-candles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTC-USDT", q.Get("instId"))
		assert.Equal(t, "1H", q.Get("bar"))
		assert.Equal(t, "1709262000000", q.Get("after"))
		// newest first, as the venue serves them
		w.Write([]byte(`{"code":"0","msg":"","data":[
			["1709258400000","100","110","90","105","10"],
			["1709254800000","95","102","94","100","8"],
			["1709251200000","90","96","88","95","7"]
		]}`))
	}))
	defer srv.Close()

	raws, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "BTC-USDT",
		Interval:   market.Interval1H,
		Start:      start,
		End:        end,
	})
	assert.NoError(t, err)
	// the candle before start drops, the rest come back oldest first
	assert.Len(t, raws, 2)
	assert.Contains(t, string(raws[0].Data), "1709254800000")
	assert.Contains(t, string(raws[1].Data), "1709258400000")
}

func TestFetchCandlesVenueThrottleCode(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50011","msg":"Too Many Requests","data":[]}`))
	}))
	defer srv.Close()

	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "BTC-USDT",
		Interval:   market.Interval1H,
		End:        time.Now(),
	})
	var rle *market.RateLimitError
	assert.ErrorAs(t, err, &rle)
}

func TestFetchCandlesEnvelopeError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "NOPE-USDT",
		Interval:   market.Interval1H,
		End:        time.Now(),
	})
	var apiErr *market.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "51001", apiErr.Code)
	assert.False(t, apiErr.Transient())
}

func TestFetchCandlesHTTPRateLimit(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "BTC-USDT",
		Interval:   market.Interval1H,
		End:        time.Now(),
	})
	var rle *market.RateLimitError
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, 3*time.Second, rle.RetryAfter)
}

func TestFetchCandlesRejectsUnsupportedInterval(t *testing.T) {
	client := New(Config{})
	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "BTC-USDT",
		Interval:   market.Interval("2h"),
	})
	var cfgErr *market.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
