// Package fetch drives candle retrieval for a single market: backward
// pagination from the newest data toward the requested start, per-page retry
// with exponential backoff, and normalization into the unified schema.
package fetch

import (
	"context"
	"errors"
	"sort"
	"time"

	"cryptoloader/internal/gateway"
	"cryptoloader/internal/logger"
	"cryptoloader/internal/market"
	"cryptoloader/internal/normalize"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
)

type Options struct {
	// MaxPages bounds pagination so a venue returning overlapping pages can
	// never spin forever.
	MaxPages   int
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Clock clock.Clock
}

func (o Options) withDefaults() Options {
	out := o
	if out.MaxPages <= 0 {
		out.MaxPages = 50
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = 3
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = 500 * time.Millisecond
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = 30 * time.Second
	}
	if out.Clock == nil {
		out.Clock = clock.New()
	}
	return out
}

type Fetcher struct {
	client gateway.Client
	opts   Options
}

func New(client gateway.Client, opts Options) *Fetcher {
	return &Fetcher{client: client, opts: opts.withDefaults()}
}

// Fetch returns candles for one market with open times in [start, end),
// oldest first and strictly ascending. A zero start means "as far back as the
// venue has", a zero end means now. When limit is positive the newest `limit`
// candles inside the window are kept.
func (f *Fetcher) Fetch(ctx context.Context, marketCode string, interval market.Interval, start, end time.Time, limit int) ([]market.Candle, error) {
	if !start.IsZero() && !end.IsZero() {
		if start.Equal(end) {
			return nil, nil
		}
		if start.After(end) {
			return nil, &market.ConfigError{Field: "start", Reason: "start is after end"}
		}
	}

	exch := f.client.Exchange()
	curEnd := end
	if curEnd.IsZero() {
		curEnd = f.opts.Clock.Now()
	}

	var all []market.Candle
	for page := 0; page < f.opts.MaxPages; page++ {
		raws, err := f.fetchPage(ctx, gateway.PageRequest{
			MarketCode: marketCode,
			Interval:   interval,
			Start:      start,
			End:        curEnd,
			Limit:      limit,
		})
		if err != nil {
			return nil, &market.FetchError{Symbol: marketCode, Err: err}
		}
		if len(raws) == 0 {
			break
		}

		candles := make([]market.Candle, 0, len(raws))
		for _, raw := range raws {
			c, err := normalize.Normalize(raw, marketCode, interval)
			if err != nil {
				return nil, &market.FetchError{Symbol: marketCode, Err: err}
			}
			candles = append(candles, c)
		}
		all = append(candles, all...)

		oldest := candles[0].OpenTime
		if !oldest.Before(curEnd) {
			logger.Warnf("%s %s: page made no progress at %s, stopping", exch, marketCode, curEnd.UTC().Format(time.RFC3339))
			break
		}
		curEnd = oldest

		if !start.IsZero() && !curEnd.After(start) {
			break
		}
		if limit > 0 && len(all) >= limit {
			break
		}
	}

	all = dedupe(all)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	logger.Debugf("%s %s %s: fetched %d candles", exch, marketCode, interval, len(all))
	return all, nil
}

// fetchPage runs one page request with retries. Rate-limit responses honor
// the venue's Retry-After hint; other transient failures back off
// exponentially.
func (f *Fetcher) fetchPage(ctx context.Context, req gateway.PageRequest) ([]gateway.RawCandle, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.opts.InitialBackoff
	bo.MaxInterval = f.opts.MaxBackoff
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		raws, err := f.client.FetchCandles(ctx, req)
		if err == nil {
			return raws, nil
		}
		lastErr = err
		if !retryable(err) || attempt == f.opts.MaxRetries {
			break
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			delay = f.opts.MaxBackoff
		}
		var rle *market.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			delay = rle.RetryAfter
		}
		logger.Warnf("%s %s: attempt %d failed (%v), retrying in %s",
			f.client.Exchange(), req.MarketCode, attempt+1, err, delay)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	t := f.opts.Clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(err error) bool {
	var rle *market.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var ne *market.NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var ae *market.APIError
	if errors.As(err, &ae) {
		return ae.Transient()
	}
	return false
}

// dedupe sorts ascending by open time and drops duplicates from page
// boundaries, keeping the first record seen for a timestamp.
func dedupe(candles []market.Candle) []market.Candle {
	if len(candles) < 2 {
		return candles
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	out := candles[:1]
	for _, c := range candles[1:] {
		if c.OpenTime.Equal(out[len(out)-1].OpenTime) {
			continue
		}
		out = append(out, c)
	}
	return out
}
