package birdeye

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

const solAddress = "So11111111111111111111111111111111111111112"

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", RateMax: 1000, RateWindow: time.Second}), srv
}

func TestListMarketsSendsAPIKey(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/markets", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "market_cap", r.URL.Query().Get("sort_by"))
		w.Write([]byte(`{"success":true,"data":{"markets":[
			{"address":"` + solAddress + `","symbol":"sol","liquidity":1000000},
			{"address":"","symbol":"ghost"}
		]}}`))
	}))
	defer srv.Close()

	markets, err := client.ListMarkets(context.Background())
	assert.NoError(t, err)
	assert.Len(t, markets, 1)
	assert.Equal(t, solAddress, markets[0].MarketCode)
	assert.Equal(t, "SOL", markets[0].Base)
	assert.Equal(t, "USD", markets[0].Quote)
}

func TestFetchCandlesUsesEpochSeconds(t *testing.T) {
	end := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/history_price_v2", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, solAddress, q.Get("address"))
		assert.Equal(t, "1H", q.Get("type"))
		// epoch seconds, not milliseconds
		assert.Equal(t, "1709261999", q.Get("time_to"))

		w.Write([]byte(`{"success":true,"data":{"items":[
			{"open":151.2,"high":152.0,"low":150.9,"close":151.8,"volume":70000.1,"time":1709254800},
			{"open":151.8,"high":153.1,"low":151.5,"close":152.8,"volume":88000.5,"time":1709258400}
		]}}`))
	}))
	defer srv.Close()

	raws, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: solAddress,
		Interval:   market.Interval1H,
		End:        end,
		Limit:      10,
	})
	assert.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Contains(t, string(raws[0].Data), `"time":1709254800`)
}

func TestFetchCandlesVenueRejection(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"address not found"}`))
	}))
	defer srv.Close()

	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "bogus",
		Interval:   market.Interval1H,
		End:        time.Now(),
	})
	var apiErr *market.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "address not found", apiErr.Message)
}
