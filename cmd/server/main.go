// Package main serves the finished reserve panel over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aave-reserves-lab/internal/api"
	"aave-reserves-lab/internal/config"
	"aave-reserves-lab/internal/runlog"
	"aave-reserves-lab/internal/storage"
	chstore "aave-reserves-lab/internal/storage/clickhouse"
	"aave-reserves-lab/internal/storage/memory"
	"aave-reserves-lab/internal/storage/migrations"
)

func main() {
	listenAddr := flag.String("listen-addr", "", "HTTP listen address (overrides LISTEN_ADDR)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	flag.Parse()

	logger := runlog.New(os.Stdout, "[server] ")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger, *useMemory); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *runlog.Logger, useMemory bool) error {
	var panels storage.PanelStore = memory.NewPanelStore()

	if !useMemory {
		if cfg.ClickhouseDSN == "" {
			return errors.New("CLICKHOUSE_DSN is required (use --use-memory for in-memory storage)")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		defer conn.Close()
		panels = chstore.NewPanelStore(conn)
	}

	server := api.NewServer(panels, logger)
	return server.ListenAndServe(ctx, cfg.ListenAddr)
}
