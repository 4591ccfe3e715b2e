package collector

import (
	"context"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/market"
)

// Catalog exposes the tradable instruments of one exchange.
type Catalog struct {
	client gateway.Client
}

func NewCatalog(client gateway.Client) *Catalog {
	return &Catalog{client: client}
}

// Tickers lists the exchange's markets, deduplicated by market code. Order
// is whatever the venue returned.
func (c *Catalog) Tickers(ctx context.Context) ([]market.Market, error) {
	markets, err := c.client.ListMarkets(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(markets))
	out := make([]market.Market, 0, len(markets))
	for _, m := range markets {
		if _, ok := seen[m.MarketCode]; ok {
			continue
		}
		seen[m.MarketCode] = struct{}{}
		m.Exchange = c.client.Exchange()
		out = append(out, m)
	}
	return out, nil
}
