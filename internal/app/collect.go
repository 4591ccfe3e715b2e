package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"cryptoloader/internal/logger"
	"cryptoloader/internal/market"

	"gopkg.in/yaml.v3"
)

// CollectJob is the one-shot job file: which exchange, which symbols, how far
// back. Start wins over Days when both are set.
type CollectJob struct {
	Exchange string   `yaml:"exchange"`
	Interval string   `yaml:"interval"`
	Symbols  []string `yaml:"symbols"`
	Start    string   `yaml:"start"`
	End      string   `yaml:"end"`
	Days     int      `yaml:"days"`
	Limit    int      `yaml:"limit"`
}

// RunCollect executes one job file and writes the result table as CSV to out.
// Per-symbol failures are logged and skipped; an empty result is an error.
func (a *App) RunCollect(ctx context.Context, jobPath, outPath string) error {
	raw, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("reading job file failed: %w", err)
	}
	var job CollectJob
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return fmt.Errorf("parsing job file failed: %w", err)
	}

	exch, err := market.ParseExchange(job.Exchange)
	if err != nil {
		return err
	}
	interval, err := market.ParseInterval(job.Interval)
	if err != nil {
		return err
	}
	if len(job.Symbols) == 0 {
		return &market.ConfigError{Field: "symbols", Reason: "job file lists no symbols"}
	}

	req := market.FetchRequest{Symbols: job.Symbols, Interval: interval, Limit: job.Limit}
	if req.Start, err = parseJobTime(job.Start, "start"); err != nil {
		return err
	}
	if req.End, err = parseJobTime(job.End, "end"); err != nil {
		return err
	}
	if req.Start.IsZero() && job.Days > 0 {
		req.Start = time.Now().AddDate(0, 0, -job.Days)
	}

	table, failures := a.Collect(ctx, exch, req)
	for symbol, ferr := range failures {
		logger.Warnf("%s %s: %v", exch, symbol, ferr)
	}
	if len(table) == 0 {
		return fmt.Errorf("no candles collected (%d symbols failed)", len(failures))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file failed: %w", err)
	}
	defer f.Close()
	if err := table.WriteCSV(f); err != nil {
		return fmt.Errorf("writing csv failed: %w", err)
	}
	logger.Infof("wrote %d candles for %d symbols to %s", len(table), len(table.Symbols()), outPath)
	return nil
}

func parseJobTime(v, field string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &market.ConfigError{Field: field, Reason: "expected RFC3339 or YYYY-MM-DD"}
}
