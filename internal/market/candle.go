package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one normalized OHLCV observation. Prices keep the venue's native
// precision, volume is in base-asset units.
type Candle struct {
	Symbol   string          `json:"symbol"`
	Exchange Exchange        `json:"exchange"`
	Interval Interval        `json:"interval"`
	OpenTime time.Time       `json:"openTime"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   float64         `json:"volume"`
}

// OrderedOHLC reports whether low <= open,close <= high.
func (c Candle) OrderedOHLC() bool {
	if c.Low.GreaterThan(c.High) {
		return false
	}
	if c.Open.LessThan(c.Low) || c.Open.GreaterThan(c.High) {
		return false
	}
	if c.Close.LessThan(c.Low) || c.Close.GreaterThan(c.High) {
		return false
	}
	return true
}
