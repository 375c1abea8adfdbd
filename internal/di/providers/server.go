package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/dinewise/dinewise-server/internal/api"
	"github.com/dinewise/dinewise-server/internal/cache"
	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/logger"
	"github.com/dinewise/dinewise-server/internal/recommend"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	analyticsHandle := do.MustInvoke[*AnalyticsHandle](i)
	summarizerHandle := do.MustInvoke[*SummarizerHandle](i)
	recommendationCache := do.MustInvoke[*cache.RecommendationCache](i)
	orchestrator := do.MustInvoke[*recommend.Orchestrator](i)

	services := api.Services{
		Store:       storeHandle.Store,
		Recommender: orchestrator,
		Cache:       recommendationCache,
	}
	// Optional services stay nil interfaces when disabled.
	if analyticsHandle.Tracker != nil {
		services.Analytics = analyticsHandle.Tracker
	}
	if summarizerHandle.Breaker != nil {
		services.Summarizer = summarizerHandle.Breaker
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
	}, log.WithComponent("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
