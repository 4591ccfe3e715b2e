package market

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"
)

// Table is the unified OHLCV result set, keyed conceptually by
// (symbol, exchange, interval, openTime). Produced fresh per request.
type Table []Candle

// Sort orders rows by (symbol, openTime). Fetch already guarantees ascending
// time per symbol; this fixes the cross-symbol order after a fan-out.
func (t Table) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].Symbol != t[j].Symbol {
			return t[i].Symbol < t[j].Symbol
		}
		return t[i].OpenTime.Before(t[j].OpenTime)
	})
}

// Symbols returns the distinct symbols present, in row order.
func (t Table) Symbols() []string {
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, c := range t {
		if _, ok := seen[c.Symbol]; ok {
			continue
		}
		seen[c.Symbol] = struct{}{}
		out = append(out, c.Symbol)
	}
	return out
}

var csvHeader = []string{"symbol", "exchange", "interval", "openTime", "open", "high", "low", "close", "volume"}

// WriteCSV writes the table with the unified column contract. openTime is
// RFC3339 UTC.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range t {
		row := []string{
			c.Symbol,
			c.Exchange.String(),
			c.Interval.String(),
			c.OpenTime.UTC().Format(time.RFC3339),
			c.Open.String(),
			c.High.String(),
			c.Low.String(),
			c.Close.String(),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
