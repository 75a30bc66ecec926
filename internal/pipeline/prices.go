package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/reporting"
	"aave-reserves-lab/internal/runlog"
)

// PriceFetcher fetches hourly market prices for a time window.
type PriceFetcher interface {
	FetchHourlyPrices(ctx context.Context, timestampMin, timestampMax int64) ([]*domain.HourlyPrice, error)
}

// PriceRunnerOptions configures a PriceRunner.
type PriceRunnerOptions struct {
	Fetcher PriceFetcher

	// Assets restricts output to the named reserves. Empty keeps every
	// mapped market and drops only the unmapped ones.
	Assets []string

	OutputDir string
	Workers   int

	Metrics *observability.Metrics
	Logger  *runlog.Logger
}

// PriceRunner extracts the hourly USD price panel month by month.
type PriceRunner struct {
	opts   PriceRunnerOptions
	assets map[string]bool
}

// NewPriceRunner creates a runner.
func NewPriceRunner(opts PriceRunnerOptions) (*PriceRunner, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("price runner requires a fetcher")
	}

	assets := make(map[string]bool, len(opts.Assets))
	for _, a := range opts.Assets {
		assets[a] = true
	}

	return &PriceRunner{opts: opts, assets: assets}, nil
}

// PriceRunResult summarizes a price pipeline run.
type PriceRunResult struct {
	MonthsProcessed int
	RowsWritten     int
	Failures        []MonthError
}

// Run processes every month in [from, to] on a bounded worker pool.
func (r *PriceRunner) Run(ctx context.Context, from, to time.Time) (*PriceRunResult, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	months := MonthsBetween(from, to)
	if len(months) == 0 {
		return nil, fmt.Errorf("empty month range %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	r.logf("extracting prices for %d months (%s..%s)", len(months), months[0], months[len(months)-1])

	result := &PriceRunResult{MonthsProcessed: len(months)}

	var mu sync.Mutex
	failures := runMonths(ctx, months, r.opts.Workers, func(ctx context.Context, m Month) error {
		written, err := r.runMonth(ctx, m)
		if err != nil {
			r.countMonth("error")
			return err
		}
		mu.Lock()
		result.RowsWritten += written
		mu.Unlock()
		r.countMonth("ok")
		return nil
	})
	result.Failures = failures

	for _, f := range failures {
		r.logf("month %s failed: %v", f.Month, f.Err)
	}
	return result, nil
}

// runMonth fetches and writes one month of hourly prices.
func (r *PriceRunner) runMonth(ctx context.Context, m Month) (int, error) {
	started := time.Now()
	start, end := m.Bounds()

	prices, err := r.opts.Fetcher.FetchHourlyPrices(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch prices %s: %w", m, err)
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.PricesFetched.Add(float64(len(prices)))
	}

	prices = r.filterPrices(prices)

	name := fmt.Sprintf("hourly_prices_%s.csv", m)
	if err := os.WriteFile(filepath.Join(r.opts.OutputDir, name), []byte(reporting.RenderPricesCSV(prices)), 0644); err != nil {
		return 0, fmt.Errorf("write prices csv %s: %w", m, err)
	}

	r.observeStage("month", started)
	r.logf("month %s: wrote %d price rows", m, len(prices))
	return len(prices), nil
}

// filterPrices drops unmapped markets and, when an asset list is set,
// anything outside it.
func (r *PriceRunner) filterPrices(prices []*domain.HourlyPrice) []*domain.HourlyPrice {
	var kept []*domain.HourlyPrice
	for _, p := range prices {
		if p.Asset == "" {
			continue
		}
		if len(r.assets) > 0 && !r.assets[p.Asset] {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (r *PriceRunner) countMonth(outcome string) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *PriceRunner) observeStage(stage string, started time.Time) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}

func (r *PriceRunner) logf(format string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Printf(format, args...)
	}
}
