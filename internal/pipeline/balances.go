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
	"aave-reserves-lab/internal/matching"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/reporting"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
	"aave-reserves-lab/internal/subgraph"
)

// BalanceFetcher fetches raw balance and event history for a time window.
type BalanceFetcher interface {
	FetchBalances(ctx context.Context, kind domain.TokenKind, timestampMin, timestampMax int64) ([]*domain.BalanceSnapshot, error)
	FetchInteractions(ctx context.Context, kind subgraph.EventKind, timestampMin, timestampMax int64) ([]*domain.InteractionEvent, error)
	FetchLiquidations(ctx context.Context, timestampMin, timestampMax int64) ([]*domain.LiquidationEvent, error)
}

// BalanceRunnerOptions configures a BalanceRunner.
type BalanceRunnerOptions struct {
	Fetcher BalanceFetcher

	// Optional persistence. Nil stores are skipped.
	Events   storage.EventStore
	Balances storage.BalanceStore

	// Assets restricts processing to the named reserves. Empty means all.
	Assets []string

	OutputDir string
	Workers   int

	Metrics *observability.Metrics
	Logger  *runlog.Logger
}

// BalanceRunner reconciles user balance snapshots with their causal protocol
// events, month by month: fetch → clean → join → output.
type BalanceRunner struct {
	opts   BalanceRunnerOptions
	assets map[string]bool
}

// NewBalanceRunner creates a runner.
func NewBalanceRunner(opts BalanceRunnerOptions) (*BalanceRunner, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("balance runner requires a fetcher")
	}

	assets := make(map[string]bool, len(opts.Assets))
	for _, a := range opts.Assets {
		assets[a] = true
	}

	return &BalanceRunner{opts: opts, assets: assets}, nil
}

// BalanceRunResult summarizes a balance pipeline run.
type BalanceRunResult struct {
	MonthsProcessed int
	RowsMatched     int
	Failures        []MonthError
}

// Run processes every month in [from, to] on a bounded worker pool.
func (r *BalanceRunner) Run(ctx context.Context, from, to time.Time) (*BalanceRunResult, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	months := MonthsBetween(from, to)
	if len(months) == 0 {
		return nil, fmt.Errorf("empty month range %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	r.logf("matching balances for %d months (%s..%s)", len(months), months[0], months[len(months)-1])

	result := &BalanceRunResult{MonthsProcessed: len(months)}

	var mu sync.Mutex
	failures := runMonths(ctx, months, r.opts.Workers, func(ctx context.Context, m Month) error {
		matched, err := r.runMonth(ctx, m)
		if err != nil {
			r.countMonth("error")
			return err
		}
		mu.Lock()
		result.RowsMatched += matched
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

// runMonth fetches, cleans and joins one month of balance history.
func (r *BalanceRunner) runMonth(ctx context.Context, m Month) (int, error) {
	started := time.Now()
	start, end := m.Bounds()

	events, err := r.fetchEvents(ctx, m, start-1, end)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, kind := range []domain.TokenKind{domain.TokenKindSupply, domain.TokenKindDebt} {
		n, err := r.matchKind(ctx, m, kind, events, start-1, end)
		if err != nil {
			return 0, err
		}
		matched += n
	}

	r.observeStage("month", started)
	r.logf("month %s: matched %d balance rows", m, matched)
	return matched, nil
}

// fetchEvents pulls and cleans every event collection of the month, returning
// the deduplicated causal events keyed for the join.
func (r *BalanceRunner) fetchEvents(ctx context.Context, m Month, min, max int64) (map[domain.EventKey]*domain.CleanEvent, error) {
	var interactions []*domain.InteractionEvent
	for _, kind := range subgraph.InteractionKinds {
		events, err := r.opts.Fetcher.FetchInteractions(ctx, kind, min, max)
		if err != nil {
			return nil, fmt.Errorf("fetch %s events %s: %w", kind, m, err)
		}
		if r.opts.Metrics != nil {
			r.opts.Metrics.EventsFetched.WithLabelValues(string(kind)).Add(float64(len(events)))
		}
		interactions = append(interactions, r.filterInteractions(events)...)
	}

	liquidations, err := r.opts.Fetcher.FetchLiquidations(ctx, min, max)
	if err != nil {
		return nil, fmt.Errorf("fetch liquidations %s: %w", m, err)
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.EventsFetched.WithLabelValues("liquidation").Add(float64(len(liquidations)))
	}

	if r.opts.Events != nil {
		if err := r.opts.Events.InsertInteractions(ctx, interactions); err != nil {
			return nil, fmt.Errorf("persist interactions %s: %w", m, err)
		}
		if err := r.opts.Events.InsertLiquidations(ctx, liquidations); err != nil {
			return nil, fmt.Errorf("persist liquidations %s: %w", m, err)
		}
	}

	cleanInteractions, err := matching.CleanInteractions(interactions)
	if err != nil {
		return nil, fmt.Errorf("clean interactions %s: %w", m, err)
	}
	if r.opts.Metrics != nil {
		merged := 0
		for _, e := range cleanInteractions {
			if e.Action == domain.ActionMultiple {
				merged++
			}
		}
		r.opts.Metrics.EventsMerged.Add(float64(merged))
	}

	cleanLiquidations := matching.CleanLiquidations(liquidations)

	return matching.Combine(cleanInteractions, cleanLiquidations), nil
}

// matchKind joins one token side against the clean events and writes the CSV.
func (r *BalanceRunner) matchKind(ctx context.Context, m Month, kind domain.TokenKind, events map[domain.EventKey]*domain.CleanEvent, min, max int64) (int, error) {
	balances, err := r.opts.Fetcher.FetchBalances(ctx, kind, min, max)
	if err != nil {
		return 0, fmt.Errorf("fetch %s balances %s: %w", kind, m, err)
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.BalancesFetched.WithLabelValues(string(kind)).Add(float64(len(balances)))
	}
	balances = r.filterBalances(balances)
	if len(balances) == 0 {
		return 0, nil
	}

	if err := matching.CheckBalanceIDs(balances); err != nil {
		return 0, fmt.Errorf("balance ids %s %s: %w", kind, m, err)
	}

	if r.opts.Balances != nil {
		if err := r.opts.Balances.InsertBulk(ctx, balances); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return 0, fmt.Errorf("persist %s balances %s: %w", kind, m, err)
		}
	}

	matched, err := matching.Match(balances, events)
	if err != nil {
		return 0, fmt.Errorf("match %s balances %s: %w", kind, m, err)
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.UnmatchedBalances.WithLabelValues(string(kind)).Set(matching.UnmatchedRatio(matched))
	}

	name := fmt.Sprintf("balances_%s_%s.csv", kind, m)
	if err := os.WriteFile(filepath.Join(r.opts.OutputDir, name), []byte(reporting.RenderMatchedBalancesCSV(matched)), 0644); err != nil {
		return 0, fmt.Errorf("write balances csv %s: %w", m, err)
	}

	return len(matched), nil
}

// filterInteractions keeps only configured reserves.
func (r *BalanceRunner) filterInteractions(events []*domain.InteractionEvent) []*domain.InteractionEvent {
	if len(r.assets) == 0 {
		return events
	}
	var kept []*domain.InteractionEvent
	for _, ev := range events {
		if r.assets[ev.Asset] {
			kept = append(kept, ev)
		}
	}
	return kept
}

// filterBalances keeps only configured reserves.
func (r *BalanceRunner) filterBalances(balances []*domain.BalanceSnapshot) []*domain.BalanceSnapshot {
	if len(r.assets) == 0 {
		return balances
	}
	var kept []*domain.BalanceSnapshot
	for _, bal := range balances {
		if r.assets[bal.Asset] {
			kept = append(kept, bal)
		}
	}
	return kept
}

func (r *BalanceRunner) countMonth(outcome string) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *BalanceRunner) observeStage(stage string, started time.Time) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}

func (r *BalanceRunner) logf(format string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Printf(format, args...)
	}
}
