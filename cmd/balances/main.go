// Package main provides the balance reconciliation entry point.
// Executes: event fetch → cleaning → balance fetch → left-join matching
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aave-reserves-lab/internal/config"
	"aave-reserves-lab/internal/observability"
	"aave-reserves-lab/internal/pipeline"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
	"aave-reserves-lab/internal/storage/memory"
	"aave-reserves-lab/internal/storage/migrations"
	pgstore "aave-reserves-lab/internal/storage/postgres"
	"aave-reserves-lab/internal/subgraph"
)

func main() {
	version := flag.String("version", "v3", "Protocol version: v2 or v3")
	from := flag.String("from", "", "First month to process (YYYY-MM)")
	to := flag.String("to", "", "Last month to process (YYYY-MM, defaults to -from)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides OUTPUT_DIR)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of Postgres")
	flag.Parse()

	logger := runlog.New(os.Stdout, "[balances] ")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if cfg.APIKey == "" {
		logger.Fatal("API_SECRET_KEY is required")
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	fromMonth, err := time.Parse("2006-01", *from)
	if err != nil {
		logger.Fatalf("Parse -from: %v", err)
	}
	toMonth := fromMonth
	if *to != "" {
		toMonth, err = time.Parse("2006-01", *to)
		if err != nil {
			logger.Fatalf("Parse -to: %v", err)
		}
	}

	subgraphID := cfg.SubgraphIDV3
	if *version == "v2" {
		subgraphID = cfg.SubgraphIDV2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger, subgraphID, fromMonth, toMonth, *useMemory); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *runlog.Logger, subgraphID string, from, to time.Time, useMemory bool) error {
	var events storage.EventStore = memory.NewEventStore()
	var balances storage.BalanceStore = memory.NewBalanceStore()

	if !useMemory && cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		events = pgstore.NewEventStore(pool)
		balances = pgstore.NewBalanceStore(pool)
	}

	metrics := observability.NewMetrics("")
	client := subgraph.NewClient(cfg.SubgraphEndpoint(subgraphID), logger.Logger).
		WithPaging(cfg.PageSize, cfg.MaxPages).
		WithMetrics(metrics)

	runner, err := pipeline.NewBalanceRunner(pipeline.BalanceRunnerOptions{
		Fetcher:   client,
		Events:    events,
		Balances:  balances,
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

	logger.Printf("Done: %d months, %d balance rows matched, %d failures",
		result.MonthsProcessed, result.RowsMatched, len(result.Failures))
	for _, f := range result.Failures {
		logger.Printf("  failed %s: %v", f.Month, f.Err)
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d months failed", len(result.Failures))
	}
	return nil
}
