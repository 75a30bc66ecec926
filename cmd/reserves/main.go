// Package main provides the reserve panel entry point.
// Executes: fetch → resample → gap fill → outlier correction → quality scoring
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aave-reserves-lab/internal/config"
	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/pipeline"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
	chstore "aave-reserves-lab/internal/storage/clickhouse"
	"aave-reserves-lab/internal/storage/memory"
	"aave-reserves-lab/internal/storage/migrations"
	pgstore "aave-reserves-lab/internal/storage/postgres"
	"aave-reserves-lab/internal/subgraph"
)

func main() {
	version := flag.String("version", "v3", "Protocol version: v2 or v3")
	from := flag.String("from", "", "First month to process (YYYY-MM)")
	to := flag.String("to", "", "Last month to process (YYYY-MM, defaults to -from)")
	strategy := flag.String("strategy", "", "Outlier correction strategy (overrides CORRECTION_STRATEGY)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides OUTPUT_DIR)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of Postgres/ClickHouse")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := runlog.New(os.Stdout, "[reserves] ")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if cfg.APIKey == "" {
		logger.Fatal("API_SECRET_KEY is required")
	}
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	fromMonth, toMonth, err := parseMonthRange(*from, *to)
	if err != nil {
		logger.Fatalf("Bad month range: %v", err)
	}

	var (
		ver        domain.Version
		subgraphID string
	)
	switch *version {
	case "v2":
		ver, subgraphID = domain.V2, cfg.SubgraphIDV2
	case "v3":
		ver, subgraphID = domain.V3, cfg.SubgraphIDV3
	default:
		logger.Fatalf("Unknown version: %s", *version)
	}

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go handleSignals(logger, cancel, done)

	err = run(ctx, cfg, logger, ver, subgraphID, fromMonth, toMonth, *useMemory)

	close(done)
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *runlog.Logger, ver domain.Version, subgraphID string, from, to time.Time, useMemory bool) error {
	var snapshots storage.ReserveSnapshotStore = memory.NewReserveSnapshotStore()
	var panels storage.PanelStore = memory.NewPanelStore()

	if !useMemory {
		if cfg.PostgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			snapshots = pgstore.NewReserveSnapshotStore(pool)
		}
		if cfg.ClickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
			if err != nil {
				return fmt.Errorf("clickhouse migrations: %w", err)
			}
			defer conn.Close()
			panels = chstore.NewPanelStore(conn)
		}
	}

	metrics := observability.NewMetrics("")
	client := subgraph.NewClient(cfg.SubgraphEndpoint(subgraphID), logger.Logger).
		WithPaging(cfg.PageSize, cfg.MaxPages).
		WithMetrics(metrics)

	runner, err := pipeline.NewReserveRunner(pipeline.ReserveRunnerOptions{
		Fetcher:   client,
		Version:   ver,
		Snapshots: snapshots,
		Panels:    panels,
		Strategy:  cfg.Strategy,
		Assets:    cfg.Assets,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, from, to)
	if err != nil {
		return err
	}

	logger.Printf("Done: %d months, %d panel rows, %d quality reports, %d failures",
		result.MonthsProcessed, result.PanelsWritten, len(result.QualityReports), len(result.Failures))
	for _, f := range result.Failures {
		logger.Printf("  failed %s: %v", f.Month, f.Err)
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d months failed", len(result.Failures))
	}
	return nil
}

// parseMonthRange parses -from/-to as YYYY-MM. An empty -to means a single
// month run.
func parseMonthRange(from, to string) (time.Time, time.Time, error) {
	if from == "" {
		return time.Time{}, time.Time{}, errors.New("-from is required")
	}
	f, err := time.Parse("2006-01", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse -from: %w", err)
	}
	if to == "" {
		return f, f, nil
	}
	t, err := time.Parse("2006-01", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse -to: %w", err)
	}
	if t.Before(f) {
		return time.Time{}, time.Time{}, errors.New("-to precedes -from")
	}
	return f, t, nil
}

func serveMetrics(logger *runlog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}

// handleSignals cancels the run on the first SIGINT/SIGTERM and forces exit
// on the second, or after the graceful shutdown window elapses.
func handleSignals(logger *runlog.Logger, cancel context.CancelFunc, done <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case <-done:
		return
	}

	select {
	case sig := <-sigCh:
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	case <-time.After(30 * time.Second):
		logger.Println("Graceful shutdown timed out after 30s, forcing exit")
		os.Exit(1)
	case <-done:
	}
}
