package market

import "strings"

// Exchange identifies a supported venue.
type Exchange string

const (
	ExchangeOKX         Exchange = "okx"
	ExchangeHyperliquid Exchange = "hyperliquid"
	ExchangeOxFun       Exchange = "oxfun"
	ExchangeBinance     Exchange = "binance"
	ExchangeBirdeye     Exchange = "birdeye"
)

// Exchanges lists all supported venues in a stable order.
func Exchanges() []Exchange {
	return []Exchange{
		ExchangeOKX,
		ExchangeHyperliquid,
		ExchangeOxFun,
		ExchangeBinance,
		ExchangeBirdeye,
	}
}

// ParseExchange resolves a venue tag. Unknown tags fail with *ConfigError.
func ParseExchange(s string) (Exchange, error) {
	tag := Exchange(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range Exchanges() {
		if tag == e {
			return e, nil
		}
	}
	return "", &ConfigError{Field: "exchange", Reason: "unknown exchange " + strings.TrimSpace(s)}
}

func (e Exchange) String() string { return string(e) }

// ContractType classifies an instrument.
type ContractType string

const (
	ContractSpot            ContractType = "spot"
	ContractLinearPerpetual ContractType = "linear-perpetual"
	ContractUnknown         ContractType = "unknown"
)

// Market is one tradable instrument on one venue. Immutable once fetched;
// refreshed only by listing tickers again.
type Market struct {
	MarketCode string       `json:"marketCode"`
	Exchange   Exchange     `json:"exchange"`
	Base       string       `json:"baseAsset"`
	Quote      string       `json:"quoteAsset"`
	Contract   ContractType `json:"contractType"`
}
