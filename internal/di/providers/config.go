// Package providers contains dependency injection providers for the Dinewise server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/dinewise/dinewise-server/internal/config"
	"github.com/dinewise/dinewise-server/internal/logger"
)

// ConfigProvider returns a provider that loads configuration from args.
func ConfigProvider(name string, args []string) do.Provider[*config.Config] {
	return func(i do.Injector) (*config.Config, error) {
		return config.Load(name, args)
	}
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Dinewise Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Database.Path,
		"analytics", cfg.Analytics.Enabled,
		"summarizer", cfg.Summarizer.Enabled(),
	)

	return log, nil
}
