package providers

import (
	"github.com/samber/do/v2"

	"github.com/dinewise/dinewise-server/internal/cache"
	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/logger"
	"github.com/dinewise/dinewise-server/internal/ratelimit"
	"github.com/dinewise/dinewise-server/internal/recommend"
	"github.com/dinewise/dinewise-server/internal/summarizer"
)

// SummarizerHandle holds the breaker-wrapped LLM client and its outbound
// limiter. Breaker is nil when no API key is configured.
type SummarizerHandle struct {
	Breaker *summarizer.Breaker
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *SummarizerHandle) Shutdown() error {
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return nil
}

// ProvideSummarizer provides the summarizer. Without an API key
// recommendations are served with summary=null.
func ProvideSummarizer(i do.Injector) (*SummarizerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sc := cfg.Summarizer
	if !sc.Enabled() {
		log.Warn("GROQ_API_KEY not set, summaries disabled")
		return &SummarizerHandle{}, nil
	}

	limiter := ratelimit.New(sc.RPS, sc.Burst)
	client, err := summarizer.New(summarizer.Config{
		APIKey:      sc.APIKey,
		BaseURL:     sc.BaseURL,
		Model:       sc.Model,
		MaxTokens:   sc.MaxTokens,
		Temperature: sc.Temperature,
		MaxRetries:  sc.MaxRetries,
		HTTPTimeout: sc.Timeout,
	}, limiter, log.WithComponent("summarizer"))
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	settings := summarizer.DefaultBreakerSettings()
	if sc.BreakerFailures > 0 {
		settings.ConsecutiveFailures = uint32(sc.BreakerFailures) //nolint:gosec // validated positive
	}
	breaker := summarizer.NewBreaker(client, settings, log.WithComponent("breaker"))

	log.Info("Summarizer initialized", "model", sc.Model, "base_url", sc.BaseURL)
	return &SummarizerHandle{Breaker: breaker, limiter: limiter}, nil
}

// ProvideCache provides the recommendation cache.
func ProvideCache(i do.Injector) (*cache.RecommendationCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return cache.New(cfg.Cache.Size, cfg.Cache.TTL), nil
}

// ProvideOrchestrator provides the recommendation orchestrator.
func ProvideOrchestrator(i do.Injector) (*recommend.Orchestrator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sum := do.MustInvoke[*SummarizerHandle](i)

	var opts []recommend.Option
	if sum.Breaker != nil {
		opts = append(opts, recommend.WithSummarizer(sum.Breaker, cfg.Summarizer.Timeout))
	}
	return recommend.New(storeHandle.Store, log.WithComponent("recommend"), opts...), nil
}
