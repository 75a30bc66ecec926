package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aave-reserves-lab/internal/correction"
	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/gapfill"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/quality"
	"aave-reserves-lab/internal/reporting"
	"aave-reserves-lab/internal/resample"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
)

// ReserveFetcher fetches raw reserve history for a time window.
type ReserveFetcher interface {
	FetchReserveHistory(ctx context.Context, version domain.Version, timestampMin, timestampMax int64) ([]*domain.ReserveSnapshot, error)
}

// ReserveRunnerOptions configures a ReserveRunner.
type ReserveRunnerOptions struct {
	Fetcher ReserveFetcher
	Version domain.Version

	// Optional persistence. Nil stores are skipped.
	Snapshots storage.ReserveSnapshotStore
	Panels    storage.PanelStore

	// Strategy names the outlier correction applied to the panel.
	Strategy string

	// Assets restricts processing to the named reserves. Empty means all.
	Assets []string

	OutputDir string
	Workers   int

	Metrics *observability.Metrics
	Logger  *runlog.Logger
}

// ReserveRunner builds the hourly reserve panel month by month:
// fetch → resample → gap-fill → outlier correction → quality gate → output.
type ReserveRunner struct {
	opts     ReserveRunnerOptions
	selector *resample.Selector
	strat    correction.Strategy
	assets   map[string]bool
}

// NewReserveRunner creates a runner, validating the strategy name up front.
func NewReserveRunner(opts ReserveRunnerOptions) (*ReserveRunner, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("reserve runner requires a fetcher")
	}

	strat, err := correction.New(opts.Strategy)
	if err != nil {
		return nil, err
	}

	// The v2 indexer occasionally delivers hour buckets out of order, so v2
	// runs with index-validated row selection.
	mode := resample.ModeSimple
	if opts.Version == domain.V2 {
		mode = resample.ModeIndexValidated
	}

	assets := make(map[string]bool, len(opts.Assets))
	for _, a := range opts.Assets {
		assets[a] = true
	}

	return &ReserveRunner{
		opts:     opts,
		selector: resample.NewSelector(mode),
		strat:    strat,
		assets:   assets,
	}, nil
}

// ReserveRunResult summarizes a reserve pipeline run.
type ReserveRunResult struct {
	MonthsProcessed int
	PanelsWritten   int
	QualityReports  []*quality.Report
	Failures        []MonthError
}

// Run processes every month in [from, to] on a bounded worker pool. A month
// that fails is reported in the result and never stops its siblings.
func (r *ReserveRunner) Run(ctx context.Context, from, to time.Time) (*ReserveRunResult, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	months := MonthsBetween(from, to)
	if len(months) == 0 {
		return nil, fmt.Errorf("empty month range %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	r.logf("processing %d months (%s..%s) for protocol %s", len(months), months[0], months[len(months)-1], r.opts.Version)

	result := &ReserveRunResult{MonthsProcessed: len(months)}

	var mu sync.Mutex
	failures := runMonths(ctx, months, r.opts.Workers, func(ctx context.Context, m Month) error {
		written, reports, err := r.runMonth(ctx, m)
		if err != nil {
			r.countMonth("error")
			return err
		}
		mu.Lock()
		result.PanelsWritten += written
		result.QualityReports = append(result.QualityReports, reports...)
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

// runMonth executes the full chain for one month and returns the number of
// asset panels written plus their quality reports.
func (r *ReserveRunner) runMonth(ctx context.Context, m Month) (int, []*quality.Report, error) {
	started := time.Now()
	start, end := m.Bounds()

	// The upstream filter is exclusive on both ends.
	snapshots, err := r.opts.Fetcher.FetchReserveHistory(ctx, r.opts.Version, start-1, end)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch reserve history %s: %w", m, err)
	}
	r.observeStage("fetch", started)
	r.logf("month %s: fetched %d snapshots", m, len(snapshots))

	snapshots = r.filterAssets(snapshots)
	if len(snapshots) == 0 {
		r.logf("month %s: nothing to do", m)
		return 0, nil, nil
	}

	if r.opts.Snapshots != nil {
		if err := r.opts.Snapshots.InsertBulk(ctx, snapshots); err != nil {
			return 0, nil, fmt.Errorf("persist snapshots %s: %w", m, err)
		}
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.SnapshotsFetched.Add(float64(len(snapshots)))
	}

	resampled := r.selector.Resample(snapshots)
	if r.opts.Metrics != nil {
		r.opts.Metrics.SnapshotsResampled.Add(float64(len(resampled)))
	}

	rows, err := gapfill.Fill(resampled)
	if err != nil {
		return 0, nil, fmt.Errorf("gap fill %s: %w", m, err)
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.RowsGapFilled.Add(float64(len(rows) - len(resampled)))
	}

	written := 0
	var reports []*quality.Report
	var keep []*domain.RegularRow

	for _, assetRows := range groupRowsByAsset(rows) {
		asset := assetRows[0].Asset

		changed := correction.FixAsset(assetRows, r.strat)
		if r.opts.Metrics != nil && changed > 0 {
			r.opts.Metrics.OutliersCorrected.WithLabelValues(r.strat.Name()).Add(float64(changed))
		}

		report, err := quality.Score(assetRows, r.opts.Version)
		if err != nil {
			// A structural failure poisons only its own asset-month.
			r.logf("month %s: asset %s rejected: %v", m, asset, err)
			if r.opts.Metrics != nil {
				r.opts.Metrics.QualityFailures.WithLabelValues(asset).Inc()
			}
			continue
		}
		if r.opts.Metrics != nil {
			r.opts.Metrics.QualityScore.WithLabelValues(asset).Set(report.Score)
		}
		if !report.Passed {
			r.logf("month %s: asset %s below threshold (score=%.4f)", m, asset, report.Score)
		}

		reports = append(reports, report)
		keep = append(keep, assetRows...)
		written++
	}

	if len(keep) == 0 {
		r.logf("month %s: no asset survived the quality gate", m)
		return 0, reports, nil
	}

	if r.opts.Panels != nil {
		if err := r.opts.Panels.InsertBulk(ctx, keep); err != nil {
			return 0, nil, fmt.Errorf("persist panel %s: %w", m, err)
		}
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.PanelsWritten.Add(float64(written))
	}

	if err := r.writeOutputs(m, keep, reports); err != nil {
		return 0, nil, err
	}

	r.observeStage("month", started)
	r.logf("month %s: wrote %d asset panels (%d rows)", m, written, len(keep))
	return written, reports, nil
}

// writeOutputs renders the month's panel CSV and quality report to disk.
func (r *ReserveRunner) writeOutputs(m Month, rows []*domain.RegularRow, reports []*quality.Report) error {
	name := fmt.Sprintf("reserves_%s_%s.csv", r.opts.Version, m)
	if err := os.WriteFile(filepath.Join(r.opts.OutputDir, name), []byte(reporting.RenderPanelCSV(rows)), 0644); err != nil {
		return fmt.Errorf("write panel csv %s: %w", m, err)
	}

	qname := fmt.Sprintf("quality_%s_%s.txt", r.opts.Version, m)
	if err := os.WriteFile(filepath.Join(r.opts.OutputDir, qname), []byte(reporting.RenderQualityReport(reports)), 0644); err != nil {
		return fmt.Errorf("write quality report %s: %w", m, err)
	}
	return nil
}

// filterAssets keeps only configured reserves, preserving input order.
func (r *ReserveRunner) filterAssets(snapshots []*domain.ReserveSnapshot) []*domain.ReserveSnapshot {
	if len(r.assets) == 0 {
		return snapshots
	}
	var kept []*domain.ReserveSnapshot
	for _, snap := range snapshots {
		if r.assets[snap.Asset] {
			kept = append(kept, snap)
		}
	}
	return kept
}

// groupRowsByAsset splits panel rows per asset, preserving row order inside
// each group and group order by first appearance.
func groupRowsByAsset(rows []*domain.RegularRow) [][]*domain.RegularRow {
	index := make(map[string]int)
	var groups [][]*domain.RegularRow
	for _, row := range rows {
		i, ok := index[row.Asset]
		if !ok {
			i = len(groups)
			index[row.Asset] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], row)
	}
	return groups
}

func (r *ReserveRunner) countMonth(outcome string) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *ReserveRunner) observeStage(stage string, started time.Time) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.MonthRunDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}

func (r *ReserveRunner) logf(format string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Printf(format, args...)
	}
}
