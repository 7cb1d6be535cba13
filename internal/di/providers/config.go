// Package providers contains dependency injection providers for the reelstitch CLI.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Logger.Level),
		Format: cfg.Logger.Format,
	})

	log.Debug("Starting reelstitch",
		"scan_dir", cfg.Scan.Dir,
		"recursive", cfg.Scan.Recursive,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Data.Dir,
	)

	return log, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
