package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/metrics"
)

// BreakerSettings tunes the circuit breaker around a Summarizer.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
	// Interval resets counts while closed. Zero never resets.
	Interval time.Duration
}

// DefaultBreakerSettings opens after five straight failures and probes again
// after a minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "llm-summarizer",
		ConsecutiveFailures: 5,
		OpenTimeout:         time.Minute,
		Interval:            5 * time.Minute,
	}
}

// Breaker wraps a Summarizer so that a failing provider is skipped outright
// instead of costing every request a full timeout.
type Breaker struct {
	next   Summarizer
	cb     *gobreaker.CircuitBreaker[string]
	name   string
	logger *slog.Logger
}

var _ Summarizer = (*Breaker)(nil)

// NewBreaker wraps next.
func NewBreaker(next Summarizer, st BreakerSettings, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if st.Name == "" {
		st.Name = DefaultBreakerSettings().Name
	}
	if st.ConsecutiveFailures == 0 {
		st.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}

	metrics.CircuitBreakerState.WithLabelValues(st.Name).Set(stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: 1,
		Interval:    st.Interval,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= st.ConsecutiveFailures
		},
		// A caller that went away is not the provider's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{next: next, cb: cb, name: st.Name, logger: logger}
}

// Summarize calls the wrapped summarizer unless the circuit is open.
func (b *Breaker) Summarize(ctx context.Context, restaurants []domain.Restaurant, prefs domain.Preferences) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Summarize(ctx, restaurants, prefs)
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		b.logger.Debug("summary skipped, circuit open", "breaker", b.name)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return text, err
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
