// Package main provides the hourly prices extraction entry point.
// Executes: market snapshot fetch → reserve name remap → monthly CSV output
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
	"aave-reserves-lab/internal/subgraph"
)

func main() {
	from := flag.String("from", "", "First month to process (YYYY-MM)")
	to := flag.String("to", "", "Last month to process (YYYY-MM, defaults to -from)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides OUTPUT_DIR)")
	flag.Parse()

	logger := runlog.New(os.Stdout, "[prices] ")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger, fromMonth, toMonth); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *runlog.Logger, from, to time.Time) error {
	metrics := observability.NewMetrics("")
	client := subgraph.NewClient(cfg.SubgraphEndpoint(cfg.SubgraphIDPrices), logger.Logger).
		WithPaging(cfg.PageSize, cfg.MaxPages).
		WithMetrics(metrics)

	runner, err := pipeline.NewPriceRunner(pipeline.PriceRunnerOptions{
		Fetcher:   client,
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

	logger.Printf("Done: %d months, %d price rows written, %d failures",
		result.MonthsProcessed, result.RowsWritten, len(result.Failures))
	for _, f := range result.Failures {
		logger.Printf("  failed %s: %v", f.Month, f.Err)
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d months failed", len(result.Failures))
	}
	return nil
}
