package market

import (
	"strings"
	"time"
)

// Interval is the normalized candle aggregation period. Venue adapters map
// these to their native codes (okx "1H", binance "1h", ox.fun "3600s", ...).
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1H  Interval = "1H"
	Interval4H  Interval = "4H"
	Interval1D  Interval = "1D"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval1H:  time.Hour,
	Interval4H:  4 * time.Hour,
	Interval1D:  24 * time.Hour,
}

// ParseInterval normalizes an interval string. Minutes are lowercase, hours
// and days uppercase, but "1h"/"4h"/"1d" are accepted as aliases. Unrecognized
// inputs fail with *ConfigError.
func ParseInterval(s string) (Interval, error) {
	key := strings.TrimSpace(s)
	switch strings.ToLower(key) {
	case "1m":
		return Interval1m, nil
	case "5m":
		return Interval5m, nil
	case "15m":
		return Interval15m, nil
	case "1h":
		return Interval1H, nil
	case "4h":
		return Interval4H, nil
	case "1d":
		return Interval1D, nil
	}
	return "", &ConfigError{Field: "interval", Reason: "unsupported interval " + key}
}

// Duration returns the period length, or 0 for an unknown interval.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i Interval) String() string { return string(i) }

// SupportedIntervals returns the recognized interval strings in ascending
// period order.
func SupportedIntervals() []Interval {
	return []Interval{Interval1m, Interval5m, Interval15m, Interval1H, Interval4H, Interval1D}
}
