// Package main provides the entry point for the reelstitch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/api"
	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/di"
	"github.com/reelstitch/reelstitch/internal/di/providers"
	"github.com/reelstitch/reelstitch/internal/logger"
	"github.com/reelstitch/reelstitch/internal/probe"
	"github.com/reelstitch/reelstitch/internal/render"
	"github.com/reelstitch/reelstitch/internal/service"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "reelstitch: %v\n", err)
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Println("reelstitch", version)
		return
	}

	os.Exit(run(cfg))
}

// run executes one invocation and returns the process exit code. Exit 0
// covers runs with per-file skips; only unusable inputs, missing tools, and
// output failures are fatal.
func run(cfg *config.Config) int {
	injector := di.NewContainer(cfg)
	defer shutdown(injector)

	log := do.MustInvoke[*logger.Logger](injector)

	// Nothing works without ffprobe; fail before any scanning starts.
	ff := do.MustInvoke[*probe.FFprobeProber](injector)
	if !ff.IsAvailable() {
		log.Error("ffprobe not found; install ffmpeg or pass -ffprobe-path")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timelineService := do.MustInvoke[*service.TimelineService](injector)
	format := render.FormatFor(cfg.Output.JSON, cfg.Output.Path)
	longRunning := cfg.Watch.Enabled || cfg.Server.Enabled

	report, err := timelineService.BuildReport(ctx, service.BuildRequest{
		Root:         cfg.Scan.Dir,
		Recursive:    cfg.Scan.Recursive,
		Workers:      cfg.Scan.Workers,
		OutputFormat: string(format),
	})
	if err != nil {
		if !longRunning {
			log.WithError(err).Error("run failed")
			return 1
		}
		// Watch and serve modes recover on the next rebuild or rescan.
		log.WithError(err).Error("initial build failed")
	} else {
		if cfg.Server.Enabled {
			do.MustInvoke[*api.Server](injector).SetReport(report)
		}
		if err := providers.RenderReport(report, format, cfg.Output.Path); err != nil {
			log.WithError(err).Error("failed to render timeline")
			if !longRunning {
				return 1
			}
		}
	}

	if !longRunning {
		return 0
	}

	// Resolving the handles starts the workers.
	if cfg.Watch.Enabled {
		if _, err := do.Invoke[*providers.FileWatcherHandle](injector); err != nil {
			log.WithError(err).Error("failed to start file watcher")
			return 1
		}
	}
	if cfg.Server.Enabled {
		if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
			log.WithError(err).Error("failed to start HTTP server")
			return 1
		}
	}

	<-ctx.Done()
	stop()
	log.Info("Shutting down gracefully...")

	return 0
}

// shutdown closes all started services in reverse dependency order.
func shutdown(injector *do.RootScope) {
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "reelstitch: shutdown error: %v\n", err)
	}
}
