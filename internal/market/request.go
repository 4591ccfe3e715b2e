package market

import "time"

// FetchRequest is one logical collection request. Zero Start means "earliest
// the venue still serves", zero End means "now". Limit caps rows per symbol
// (0 = no cap).
type FetchRequest struct {
	Symbols  []string
	Interval Interval
	Start    time.Time
	End      time.Time
	Limit    int
}
