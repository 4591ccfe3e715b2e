// Package normalize maps venue-native candle records onto the unified schema.
// Field meaning lives in per-exchange mapping tables, so a venue changing its
// response shape surfaces as *market.SchemaError instead of silently wrong
// values downstream.
package normalize

import (
	"strconv"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/market"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type timeUnit int

const (
	unitMillis timeUnit = iota
	unitSeconds
)

// fieldMap holds gjson paths into one raw record. Array-shaped records (okx,
// binance) use positional paths.
type fieldMap struct {
	openTime string
	open     string
	high     string
	low      string
	close_   string
	volume   string
	unit     timeUnit
}

var mappings = map[market.Exchange]fieldMap{
	// ["ts","o","h","l","c","vol","volCcy","volCcyQuote","confirm"]
	market.ExchangeOKX: {openTime: "0", open: "1", high: "2", low: "3", close_: "4", volume: "5", unit: unitMillis},
	// [openTime, "o", "h", "l", "c", "v", closeTime, ...]
	market.ExchangeBinance: {openTime: "0", open: "1", high: "2", low: "3", close_: "4", volume: "5", unit: unitMillis},
	// {"t": openMs, "T": closeMs, "s": coin, "i": interval, "o","h","l","c","v", "n": trades}
	market.ExchangeHyperliquid: {openTime: "t", open: "o", high: "h", low: "l", close_: "c", volume: "v", unit: unitMillis},
	// {"open","high","low","close","volume","currencyVolume","openedAt","timeframe"}
	market.ExchangeOxFun: {openTime: "openedAt", open: "open", high: "high", low: "low", close_: "close", volume: "volume", unit: unitMillis},
	// {"open","high","low","close","volume","time": epoch seconds, ...}
	market.ExchangeBirdeye: {openTime: "time", open: "open", high: "high", low: "low", close_: "close", volume: "volume", unit: unitSeconds},
}

// Normalize converts one raw record into a Candle. Pure: no venue calls, no
// shared state. Missing fields, failed numeric coercion and OHLC-ordering
// violations all reject the record with *market.SchemaError.
func Normalize(raw gateway.RawCandle, symbol string, interval market.Interval) (market.Candle, error) {
	fm, ok := mappings[raw.Exchange]
	if !ok {
		return market.Candle{}, &market.SchemaError{Exchange: raw.Exchange, Field: "exchange", Reason: "no field mapping registered"}
	}
	record := gjson.ParseBytes(raw.Data)

	openTime, err := extractTime(raw.Exchange, record, fm.openTime, fm.unit)
	if err != nil {
		return market.Candle{}, err
	}
	open, err := extractDecimal(raw.Exchange, record, fm.open, "open")
	if err != nil {
		return market.Candle{}, err
	}
	high, err := extractDecimal(raw.Exchange, record, fm.high, "high")
	if err != nil {
		return market.Candle{}, err
	}
	low, err := extractDecimal(raw.Exchange, record, fm.low, "low")
	if err != nil {
		return market.Candle{}, err
	}
	close_, err := extractDecimal(raw.Exchange, record, fm.close_, "close")
	if err != nil {
		return market.Candle{}, err
	}
	volume, err := extractFloat(raw.Exchange, record, fm.volume, "volume")
	if err != nil {
		return market.Candle{}, err
	}

	c := market.Candle{
		Symbol:   symbol,
		Exchange: raw.Exchange,
		Interval: interval,
		OpenTime: openTime,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close_,
		Volume:   volume,
	}
	if !c.OrderedOHLC() {
		return market.Candle{}, &market.SchemaError{
			Exchange: raw.Exchange,
			Field:    "ohlc",
			Reason:   "price ordering violated (low <= open,close <= high)",
		}
	}
	return c, nil
}

func extractDecimal(exch market.Exchange, record gjson.Result, path, field string) (decimal.Decimal, error) {
	res := record.Get(path)
	if !res.Exists() || res.String() == "" {
		return decimal.Decimal{}, &market.SchemaError{Exchange: exch, Field: field, Reason: "missing field " + path}
	}
	d, err := decimal.NewFromString(res.String())
	if err != nil {
		return decimal.Decimal{}, &market.SchemaError{Exchange: exch, Field: field, Reason: "not numeric: " + res.String()}
	}
	return d, nil
}

func extractFloat(exch market.Exchange, record gjson.Result, path, field string) (float64, error) {
	res := record.Get(path)
	if !res.Exists() || res.String() == "" {
		return 0, &market.SchemaError{Exchange: exch, Field: field, Reason: "missing field " + path}
	}
	f, err := strconv.ParseFloat(res.String(), 64)
	if err != nil {
		return 0, &market.SchemaError{Exchange: exch, Field: field, Reason: "not numeric: " + res.String()}
	}
	return f, nil
}

func extractTime(exch market.Exchange, record gjson.Result, path string, unit timeUnit) (time.Time, error) {
	res := record.Get(path)
	if !res.Exists() || res.String() == "" {
		return time.Time{}, &market.SchemaError{Exchange: exch, Field: "openTime", Reason: "missing field " + path}
	}
	epoch, err := strconv.ParseInt(res.String(), 10, 64)
	if err != nil || epoch <= 0 {
		return time.Time{}, &market.SchemaError{Exchange: exch, Field: "openTime", Reason: "bad timestamp: " + res.String()}
	}
	if unit == unitSeconds {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.UnixMilli(epoch).UTC(), nil
}
