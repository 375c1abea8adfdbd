// Package di provides dependency injection configuration for the Dinewise server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/dinewise/dinewise-server/internal/cache"
	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/di/providers"
	"github.com/dinewise/dinewise-server/internal/logger"
	"github.com/dinewise/dinewise-server/internal/recommend"
)

// NewContainer creates and configures the DI container with all providers.
// name and args are the program name and command-line arguments.
func NewContainer(name string, args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ConfigProvider(name, args))
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAnalytics)

	// Recommendation layer
	do.Provide(injector, providers.ProvideSummarizer)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideOrchestrator)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the HTTP server is
// listening in the background.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.AnalyticsHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SummarizerHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*cache.RecommendationCache](injector)
	_ = do.MustInvoke[*recommend.Orchestrator](injector)

	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
