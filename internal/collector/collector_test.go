package collector

import (
	"context"
	"testing"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/market"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type stubFetcher struct {
	candles map[string][]market.Candle
	errs    map[string]error
	delay   time.Duration
}

func (s *stubFetcher) Fetch(ctx context.Context, marketCode string, _ market.Interval, _, _ time.Time, _ int) ([]market.Candle, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if err, ok := s.errs[marketCode]; ok {
		return nil, err
	}
	return s.candles[marketCode], nil
}

func mkCandle(symbol string, ts time.Time) market.Candle {
	one := decimal.NewFromInt(1)
	return market.Candle{
		Symbol: symbol, Exchange: market.ExchangeOKX, Interval: market.Interval1H,
		OpenTime: ts, Open: one, High: one, Low: one, Close: one, Volume: 1,
	}
}

func TestCollectPartialFailure(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{
		candles: map[string][]market.Candle{
			"BTC-USDT": {mkCandle("BTC-USDT", base)},
			"ETH-USDT": {mkCandle("ETH-USDT", base)},
		},
		errs: map[string]error{
			"NOPE-USDT": &market.FetchError{Symbol: "NOPE-USDT", Err: &market.APIError{Status: 404}},
		},
	}
	c := New(market.ExchangeOKX, fetcher, 2)

	table, errs := c.Collect(context.Background(), market.FetchRequest{
		Symbols:  []string{"BTC-USDT", "NOPE-USDT", "ETH-USDT"},
		Interval: market.Interval1H,
	})

	assert.Len(t, table, 2)
	assert.Len(t, errs, 1)
	var fetchErr *market.FetchError
	assert.ErrorAs(t, errs["NOPE-USDT"], &fetchErr)
	// sorted by symbol
	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, table.Symbols())
}

func TestCollectMapsDeadlineToTimeout(t *testing.T) {
	fetcher := &stubFetcher{delay: 50 * time.Millisecond}
	c := New(market.ExchangeOKX, fetcher, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	table, errs := c.Collect(ctx, market.FetchRequest{Symbols: []string{"BTC-USDT"}, Interval: market.Interval1H})
	assert.Empty(t, table)
	var toErr *market.TimeoutError
	assert.ErrorAs(t, errs["BTC-USDT"], &toErr)
	assert.Equal(t, "BTC-USDT", toErr.Symbol)
}

type stubClient struct {
	markets []market.Market
	err     error
}

func (s *stubClient) Exchange() market.Exchange { return market.ExchangeOKX }

func (s *stubClient) ListMarkets(context.Context) ([]market.Market, error) {
	return s.markets, s.err
}

func (s *stubClient) FetchCandles(context.Context, gateway.PageRequest) ([]gateway.RawCandle, error) {
	return nil, nil
}

func TestCatalogDedupesByMarketCode(t *testing.T) {
	client := &stubClient{markets: []market.Market{
		{MarketCode: "BTC-USDT", Base: "BTC", Quote: "USDT"},
		{MarketCode: "BTC-USDT", Base: "BTC", Quote: "USDT"},
		{MarketCode: "ETH-USDT", Base: "ETH", Quote: "USDT"},
	}}
	cat := NewCatalog(client)

	markets, err := cat.Tickers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, markets, 2)
	for _, m := range markets {
		assert.Equal(t, market.ExchangeOKX, m.Exchange)
	}
}

func TestCatalogPropagatesErrors(t *testing.T) {
	client := &stubClient{err: &market.NetworkError{Exchange: market.ExchangeOKX, Endpoint: "/tickers"}}
	cat := NewCatalog(client)

	_, err := cat.Tickers(context.Background())
	var netErr *market.NetworkError
	assert.ErrorAs(t, err, &netErr)
}
