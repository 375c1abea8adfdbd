// Package recommend turns user preferences into a ranked restaurant list.
//
// A request is first run strictly. When that matches nothing, the
// orchestrator walks an ordered list of relaxation steps, querying after each
// one that changes the filter, and stops at the first non-empty result. The
// optional summarizer only ever sees the final list.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/metrics"
	"github.com/dinewise/dinewise-server/internal/store"
)

// DefaultSummaryTimeout bounds a summarizer call.
const DefaultSummaryTimeout = 30 * time.Second

// Summarizer writes narrative text about a fixed candidate list.
type Summarizer interface {
	Summarize(ctx context.Context, restaurants []domain.Restaurant, prefs domain.Preferences) (string, error)
}

// Orchestrator runs the strict query, the relaxation steps and the summary.
type Orchestrator struct {
	reader     store.RestaurantReader
	summarizer Summarizer
	timeout    time.Duration
	steps      []Step
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSummarizer attaches a summarizer bounded by timeout.
// A nil summarizer leaves summaries off.
func WithSummarizer(s Summarizer, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.summarizer = s
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithSteps replaces the relaxation steps.
func WithSteps(steps []Step) Option {
	return func(o *Orchestrator) { o.steps = steps }
}

// New creates an Orchestrator reading from reader.
func New(reader store.RestaurantReader, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		reader:  reader,
		timeout: DefaultSummaryTimeout,
		steps:   DefaultSteps,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Recommend returns up to topN restaurants for prefs. topN <= 0 means
// domain.DefaultTopN. Store errors are returned; summarizer failures only
// leave Summary nil.
func (o *Orchestrator) Recommend(ctx context.Context, prefs domain.Preferences, topN int) (*domain.Recommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	topN = domain.TopNOrDefault(topN)
	filter := store.FromPreferences(prefs, topN)
	filter.CuisineContains = slices.Clone(filter.CuisineContains)

	restaurants, err := o.reader.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("strict query: %w", err)
	}
	step := StepStrict
	relaxed := false

	for _, s := range o.steps {
		if len(restaurants) > 0 {
			break
		}
		relaxed = true
		if !s.Relax(&filter) {
			continue
		}
		restaurants, err = o.reader.Query(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", s.Name, err)
		}
		step = s.Name
	}

	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	metrics.RecommendStep.WithLabelValues(step).Inc()
	o.logger.Info("recommendation resolved",
		"step", step,
		"relaxed", relaxed,
		"count", len(restaurants),
	)

	rec := &domain.Recommendation{
		Restaurants: restaurants,
		Relaxed:     relaxed,
	}
	if len(restaurants) > 0 && o.summarizer != nil {
		rec.Summary = o.summarize(ctx, restaurants, prefs)
		rec.SummaryFailed = rec.Summary == nil
	}
	return rec, nil
}

type summaryResult struct {
	text string
	err  error
}

// summarize calls the summarizer under the configured timeout. On timeout the
// call is abandoned; its goroutine finishes on its own once ctx is cancelled.
func (o *Orchestrator) summarize(ctx context.Context, restaurants []domain.Restaurant, prefs domain.Preferences) *string {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	candidates := slices.Clone(restaurants)
	done := make(chan summaryResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- summaryResult{err: fmt.Errorf("summarizer panic: %v", r)}
			}
		}()
		text, err := o.summarizer.Summarize(ctx, candidates, prefs)
		done <- summaryResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.SummarizerRequests.WithLabelValues("timeout").Inc()
		o.logger.Warn("summary abandoned", "timeout", o.timeout, "error", ctx.Err())
		return nil
	case res := <-done:
		metrics.SummarizerDuration.Observe(time.Since(start).Seconds())
		if res.err != nil {
			metrics.SummarizerRequests.WithLabelValues("error").Inc()
			o.logger.Warn("summary failed", "error", res.err)
			return nil
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			metrics.SummarizerRequests.WithLabelValues("error").Inc()
			return nil
		}
		metrics.SummarizerRequests.WithLabelValues("ok").Inc()
		return &text
	}
}
