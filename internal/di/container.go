// Package di provides dependency injection configuration for the reelstitch CLI.
package di

import (
	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
//
// The config is registered as a value rather than a provider because it is
// parsed from the command line before the container exists. Everything else
// resolves lazily: a plain one-shot run never touches the watcher or HTTP
// server providers, so neither starts.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideProbeCache)
	do.Provide(injector, providers.ProvideHistory)

	// Probe and scan layer
	do.Provide(injector, providers.ProvideFFprobeProber)
	do.Provide(injector, providers.ProvideProber)
	do.Provide(injector, providers.ProvideScanner)
	do.Provide(injector, providers.ProvideValidator)

	// Timeline service
	do.Provide(injector, providers.ProvideTimelineService)

	// Watch mode
	do.Provide(injector, providers.ProvideEventProcessor)
	do.Provide(injector, providers.ProvideFileWatcher)

	// Serve mode
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}
