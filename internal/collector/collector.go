// Package collector fans candle retrieval out across the symbols of one
// exchange and assembles the results into a single table. Failures are
// per-symbol: one bad ticker never sinks the batch.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"cryptoloader/internal/logger"
	"cryptoloader/internal/market"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the full candle history for one market.
type Fetcher interface {
	Fetch(ctx context.Context, marketCode string, interval market.Interval, start, end time.Time, limit int) ([]market.Candle, error)
}

type Collector struct {
	exchange    market.Exchange
	fetcher     Fetcher
	concurrency int
}

func New(exchange market.Exchange, fetcher Fetcher, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Collector{exchange: exchange, fetcher: fetcher, concurrency: concurrency}
}

// Collect fetches candles for every requested symbol. It returns whatever
// succeeded plus a map of per-symbol failures; both can be non-empty at once.
// The table comes back sorted by (symbol, openTime).
func (c *Collector) Collect(ctx context.Context, req market.FetchRequest) (market.Table, map[string]error) {
	jobID := uuid.NewString()[:8]
	logger.Infof("[%s] %s: collecting %d symbols at %s", jobID, c.exchange, len(req.Symbols), req.Interval)

	var (
		mu    sync.Mutex
		table market.Table
		errs  = map[string]error{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, symbol := range req.Symbols {
		symbol := symbol
		g.Go(func() error {
			candles, err := c.fetcher.Fetch(gctx, symbol, req.Interval, req.Start, req.End, req.Limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = &market.TimeoutError{Symbol: symbol, Err: err}
				}
				logger.Warnf("[%s] %s %s: %v", jobID, c.exchange, symbol, err)
				errs[symbol] = err
				return nil
			}
			table = append(table, candles...)
			return nil
		})
	}
	g.Wait()

	table.Sort()
	logger.Infof("[%s] %s: %d candles, %d failed symbols", jobID, c.exchange, len(table), len(errs))
	return table, errs
}
