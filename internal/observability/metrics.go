// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Extraction metrics
	SnapshotsFetched prometheus.Counter
	EventsFetched    *prometheus.CounterVec
	BalancesFetched  *prometheus.CounterVec
	PricesFetched    prometheus.Counter
	PagesFetched     *prometheus.CounterVec
	FetchErrors      *prometheus.CounterVec

	// Reconciliation metrics
	SnapshotsResampled prometheus.Counter
	RowsGapFilled      prometheus.Counter
	OutliersCorrected  *prometheus.CounterVec
	QualityScore       *prometheus.GaugeVec
	QualityFailures    *prometheus.CounterVec
	UnmatchedBalances  *prometheus.GaugeVec
	EventsMerged       prometheus.Counter

	// Pipeline metrics
	MonthRunsTotal   *prometheus.CounterVec
	MonthRunDuration *prometheus.HistogramVec
	PanelsWritten    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "aave_reserves_lab"
	}

	return &Metrics{
		SnapshotsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "snapshots_fetched_total",
			Help:      "Total number of raw reserve snapshots fetched from the subgraph",
		}),
		EventsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "events_fetched_total",
			Help:      "Total number of raw events fetched, by event kind",
		}, []string{"kind"}),
		BalancesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "balances_fetched_total",
			Help:      "Total number of balance snapshots fetched, by token kind",
		}, []string{"kind"}),
		PricesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "prices_fetched_total",
			Help:      "Total number of hourly price snapshots fetched from the subgraph",
		}),
		PagesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "pages_fetched_total",
			Help:      "Total number of subgraph pages fetched, by collection",
		}, []string{"collection"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed subgraph fetches, by collection",
		}, []string{"collection"}),
		SnapshotsResampled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "snapshots_resampled_total",
			Help:      "Total number of hourly snapshots kept by the resampler",
		}),
		RowsGapFilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "rows_gap_filled_total",
			Help:      "Total number of synthetic forward-filled panel rows",
		}),
		OutliersCorrected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "outliers_corrected_total",
			Help:      "Total number of corrected index values, by strategy",
		}, []string{"strategy"}),
		QualityScore: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "quality_score",
			Help:      "Last composite quality score, by asset",
		}, []string{"asset"}),
		QualityFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "quality_failures_total",
			Help:      "Total number of fatal quality failures, by asset",
		}, []string{"asset"}),
		UnmatchedBalances: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "unmatched_balances_ratio",
			Help:      "Fraction of balance snapshots without a causal event, by token kind",
		}, []string{"kind"}),
		EventsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciliation",
			Name:      "events_merged_total",
			Help:      "Total number of interaction events merged into Multiple rows",
		}),
		MonthRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "month_runs_total",
			Help:      "Total number of month pipeline runs, by outcome",
		}, []string{"outcome"}),
		MonthRunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "month_run_duration_seconds",
			Help:      "Duration of one month pipeline run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"stage"}),
		PanelsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "panels_written_total",
			Help:      "Total number of asset-month panels written",
		}),
	}
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
