package hyperliquid

import (
	"context"
	"encoding/json"
	"io"
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

func TestListMarketsSkipsDelisted(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "meta", payload["type"])
		w.Write([]byte(`{"universe":[
			{"name":"BTC","szDecimals":5},
			{"name":"OLDCOIN","szDecimals":2,"isDelisted":true},
			{"name":"ETH","szDecimals":4}
		]}`))
	}))
	defer srv.Close()

	markets, err := client.ListMarkets(context.Background())
	assert.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, "BTC", markets[0].MarketCode)
	assert.Equal(t, "USD", markets[0].Quote)
	assert.Equal(t, market.ContractLinearPerpetual, markets[0].Contract)
}

func TestFetchCandlesClampsWindow(t *testing.T) {
	end := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Type string `json:"type"`
			Req  struct {
				Coin      string `json:"coin"`
				Interval  string `json:"interval"`
				StartTime int64  `json:"startTime"`
				EndTime   int64  `json:"endTime"`
			} `json:"req"`
		}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "candleSnapshot", payload.Type)
		assert.Equal(t, "BTC", payload.Req.Coin)
		assert.Equal(t, "1h", payload.Req.Interval)
		assert.Equal(t, end.UnixMilli(), payload.Req.EndTime)
		// window never exceeds limit * interval
		assert.GreaterOrEqual(t, payload.Req.StartTime, end.Add(-10*time.Hour).UnixMilli())

		w.Write([]byte(`[
			{"t":1709258400000,"T":1709261999999,"s":"BTC","i":"1h","o":"62100","h":"62400","l":"61900","c":"62300","v":"1200.5","n":900},
			{"t":1709254800000,"T":1709258399999,"s":"BTC","i":"1h","o":"61800","h":"62200","l":"61700","c":"62100","v":"980.1","n":700}
		]`))
	}))
	defer srv.Close()

	raws, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "BTC",
		Interval:   market.Interval1H,
		End:        end,
		Limit:      10,
	})
	assert.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Contains(t, string(raws[0].Data), `"t":1709254800000`)
	assert.Contains(t, string(raws[1].Data), `"t":1709258400000`)
}

func TestFetchCandlesRejectsNonArray(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"unknown coin"}`))
	}))
	defer srv.Close()

	_, err := client.FetchCandles(context.Background(), gateway.PageRequest{
		MarketCode: "NOPE",
		Interval:   market.Interval1H,
		End:        time.Now(),
	})
	var schemaErr *market.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
