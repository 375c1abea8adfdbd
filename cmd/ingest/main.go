// Package main loads the restaurant dataset into the store.
//
// Usage:
//
//	go run ./cmd/ingest                                  # Hugging Face dataset
//	go run ./cmd/ingest --source ./zomato.csv --clear     # local file, replace contents
//	go run ./cmd/ingest --source https://host/rows.jsonl --max-rows 1000
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

	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/dataset"
	"github.com/dinewise/dinewise-server/internal/logger"
	"github.com/dinewise/dinewise-server/internal/pipeline"
	"github.com/dinewise/dinewise-server/internal/ratelimit"
	"github.com/dinewise/dinewise-server/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ingest failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := sqlite.Open(cfg.Database.Path, log.WithComponent("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	source := cfg.Ingest.Source
	if source == "" {
		source = dataset.DefaultSource
	}

	// One key: the datasets-server is the only remote host paged.
	limiter := ratelimit.New(cfg.Ingest.HFRPS, 1, ratelimit.WithIdleTTL(time.Hour))
	defer limiter.Stop()

	src, err := dataset.Open(ctx, source, dataset.Options{
		Limiter: limiter,
		Logger:  log.WithComponent("dataset"),
	})
	if err != nil {
		return err
	}
	defer src.Close()

	log.Info("ingest starting",
		"source", source,
		"db_path", cfg.Database.Path,
		"max_rows", cfg.Ingest.MaxRows,
		"clear", cfg.Ingest.Clear,
	)

	res, err := pipeline.New(st, log.WithComponent("pipeline")).Run(ctx, src, pipeline.Options{
		MaxRows:     cfg.Ingest.MaxRows,
		ClearBefore: cfg.Ingest.Clear,
		BatchSize:   cfg.Ingest.BatchSize,
	})
	if err != nil {
		return err
	}

	log.Info("ingest complete",
		"run_id", res.RunID,
		"read", res.Read,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"duration", res.Duration,
	)
	return nil
}
