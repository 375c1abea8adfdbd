// Package pipeline runs ingest: read raw rows from a dataset source,
// normalize and dedup them, and load the result into the restaurant store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dinewise/dinewise-server/internal/dataset"
	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/metrics"
	"github.com/dinewise/dinewise-server/internal/normalize"
	"github.com/dinewise/dinewise-server/internal/store"
)

// DefaultBatchSize is the number of records per InsertMany call.
const DefaultBatchSize = 500

// Options controls one pipeline run.
type Options struct {
	// MaxRows keeps only the first MaxRows source rows. Zero means all.
	MaxRows int
	// ClearBefore empties the store inside the load transaction.
	ClearBefore bool
	BatchSize   int
}

// Result summarizes a run.
type Result struct {
	RunID      string        `json:"run_id"`
	Read       int           `json:"read"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`    // rejected by the normalizer
	Duplicates int           `json:"duplicates"` // in-run and already stored
	Duration   time.Duration `json:"duration"`
}

// Pipeline loads dataset sources into a store.
type Pipeline struct {
	loader store.RestaurantLoader
	logger *slog.Logger
}

// New creates a Pipeline writing to loader.
func New(loader store.RestaurantLoader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{loader: loader, logger: logger}
}

// Run reads src to the end, then loads the normalized records in one store
// transaction. A source error aborts the run before the store is touched,
// and a store error rolls the whole load back, so a failed run never leaves
// the store cleared or half-loaded. src is not closed.
func (p *Pipeline) Run(ctx context.Context, src dataset.Source, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	logger.Info("ingest started",
		"max_rows", opts.MaxRows,
		"clear_before", opts.ClearBefore,
		"batch_size", opts.BatchSize,
	)

	records, err := p.collect(ctx, dataset.Limit(src, opts.MaxRows), res)
	if err != nil {
		return p.fail(logger, res, start, err)
	}

	if res.Read == 0 {
		// An empty source is almost always a misconfiguration; never let it
		// wipe an existing store.
		logger.Warn("source yielded no rows, store left unchanged")
		res.Duration = time.Since(start)
		metrics.IngestRunDuration.WithLabelValues("ok").Observe(res.Duration.Seconds())
		return res, nil
	}

	inserted, err := p.load(ctx, records, opts)
	if err != nil {
		return p.fail(logger, res, start, err)
	}
	res.Inserted = inserted
	res.Duplicates += len(records) - inserted
	res.Duration = time.Since(start)

	metrics.IngestRowsRead.Add(float64(res.Read))
	metrics.IngestRowsInserted.Add(float64(res.Inserted))
	metrics.IngestRowsSkipped.Add(float64(res.Skipped))
	metrics.IngestRowsDuplicate.Add(float64(res.Duplicates))
	metrics.IngestRunDuration.WithLabelValues("ok").Observe(res.Duration.Seconds())

	logger.Info("ingest complete",
		"read", res.Read,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"duration", res.Duration,
	)
	return res, nil
}

// collect drains src, normalizing each row and keeping the first record for
// every dedup key.
func (p *Pipeline) collect(ctx context.Context, src dataset.Source, res *Result) ([]domain.Restaurant, error) {
	dedup := normalize.NewDeduper()
	var records []domain.Restaurant

	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read source (after %d rows): %w", res.Read, err)
		}
		res.Read++

		r, ok := normalize.Restaurant(raw)
		if !ok {
			res.Skipped++
			continue
		}
		if !dedup.Add(r) {
			res.Duplicates++
			continue
		}
		records = append(records, *r)
	}
}

func (p *Pipeline) load(ctx context.Context, records []domain.Restaurant, opts Options) (int, error) {
	tx, err := p.loader.BeginLoad(ctx, opts.ClearBefore)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for lo := 0; lo < len(records); lo += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		hi := min(lo+opts.BatchSize, len(records))
		n, err := tx.InsertMany(ctx, records[lo:hi])
		if err != nil {
			return 0, fmt.Errorf("insert batch %d-%d: %w", lo, hi, err)
		}
		inserted += n
		p.logger.Debug("batch inserted", "from", lo, "to", hi, "inserted", n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (p *Pipeline) fail(logger *slog.Logger, res *Result, start time.Time, err error) (*Result, error) {
	res.Duration = time.Since(start)
	metrics.IngestRunDuration.WithLabelValues("error").Observe(res.Duration.Seconds())
	logger.Error("ingest failed", "read", res.Read, "error", err)
	return nil, err
}
