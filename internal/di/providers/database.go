package providers

import (
	"github.com/samber/do/v2"

	"github.com/dinewise/dinewise-server/internal/analytics"
	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/logger"
	"github.com/dinewise/dinewise-server/internal/store/sqlite"
)

// StoreHandle wraps the restaurant store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the restaurant store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.WithComponent("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)
	return &StoreHandle{Store: db}, nil
}

// AnalyticsHandle wraps the preference tracker. Tracker is nil when
// analytics is disabled.
type AnalyticsHandle struct {
	Tracker *analytics.Tracker
}

// Shutdown implements do.Shutdownable.
func (h *AnalyticsHandle) Shutdown() error {
	if h.Tracker == nil {
		return nil
	}
	return h.Tracker.Close()
}

// ProvideAnalytics provides the Badger-backed preference tracker.
func ProvideAnalytics(i do.Injector) (*AnalyticsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Analytics.Enabled {
		log.Info("Analytics disabled by configuration")
		return &AnalyticsHandle{}, nil
	}

	tracker, err := analytics.Open(cfg.Analytics.Path, log.WithComponent("analytics"))
	if err != nil {
		return nil, err
	}

	log.Info("Analytics initialized", "path", cfg.Analytics.Path)
	return &AnalyticsHandle{Tracker: tracker}, nil
}
