package symbol

import "strings"

// Symbol is a base/quote pair independent of any venue's naming convention.
type Symbol struct {
	Base  string
	Quote string
}

// Internal renders the canonical "BASE/QUOTE" form.
func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

var quoteCurrencies = []string{"USDT", "USDC", "USD", "BTC", "ETH"}

// Parse accepts "BTC/USDT", "BTC-USDT", "BTC-USDT-SWAP" and concatenated
// venue codes like "BTCUSDT". Returns the zero Symbol when the quote cannot
// be determined.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{Base: strings.TrimSpace(parts[0]), Quote: strings.TrimSpace(parts[1])}
	}

	if parts := strings.Split(s, "-"); len(parts) >= 2 {
		return Symbol{Base: strings.TrimSpace(parts[0]), Quote: strings.TrimSpace(parts[1])}
	}

	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}

	return Symbol{}
}

// Normalize returns the canonical form, or "" for unparseable input.
func Normalize(s string) string {
	return Parse(s).Internal()
}

// NormalizeList dedupes and canonicalizes, keeping unparseable entries
// uppercased rather than dropping them (single-asset venues like hyperliquid
// use bare coin names).
func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			norm = strings.ToUpper(strings.TrimSpace(s))
			if norm == "" {
				continue
			}
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
