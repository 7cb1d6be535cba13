package providers

import (
	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/api"
	"github.com/reelstitch/reelstitch/internal/cache"
	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/history"
	"github.com/reelstitch/reelstitch/internal/logger"
	"github.com/reelstitch/reelstitch/internal/probe"
	"github.com/reelstitch/reelstitch/internal/processor"
	"github.com/reelstitch/reelstitch/internal/render"
	"github.com/reelstitch/reelstitch/internal/scanner"
	"github.com/reelstitch/reelstitch/internal/service"
	"github.com/reelstitch/reelstitch/internal/validation"
)

// ProvideFFprobeProber provides the concrete ffprobe prober. Registered
// separately from the Prober interface so main can run the availability
// check before any scan starts.
func ProvideFFprobeProber(i do.Injector) (*probe.FFprobeProber, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return probe.NewFFprobeProber(cfg.Scan.FFprobePath), nil
}

// ProvideProber provides the prober the scanner consumes: ffprobe bounded
// by the probe timeout, wrapped in the probe cache unless disabled.
//
// Cache failures degrade instead of aborting: a corrupt or locked cache
// directory costs repeat probes, not the run.
func ProvideProber(i do.Injector) (probe.Prober, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	ff := do.MustInvoke[*probe.FFprobeProber](i)

	prober := probe.WithTimeout(ff, cfg.Scan.ProbeTimeout)

	if cfg.Data.NoCache {
		log.Debug("probe cache disabled")
		return prober, nil
	}

	cacheHandle, err := do.Invoke[*CacheStoreHandle](i)
	if err != nil {
		log.Warn("probe cache unavailable, probing uncached", "error", err)
		return prober, nil
	}

	return cache.NewCachedProber(prober, cacheHandle.Store, log.Logger), nil
}

// ProvideScanner provides the directory scanner.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	prober := do.MustInvoke[probe.Prober](i)
	log := do.MustInvoke[*logger.Logger](i)

	return scanner.NewScanner(prober, log.Logger), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTimelineService provides the timeline service.
//
// Run history is best-effort: when the history store cannot open, the
// service runs without it and each run logs that recording was skipped.
func ProvideTimelineService(i do.Injector) (*service.TimelineService, error) {
	sc := do.MustInvoke[*scanner.Scanner](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	var hist *history.Store
	if histHandle, err := do.Invoke[*HistoryHandle](i); err != nil {
		log.Warn("run history unavailable", "error", err)
	} else {
		hist = histHandle.Store
	}

	return service.NewTimelineService(sc, v, hist, log.Logger), nil
}

// ProvideEventProcessor provides the file event processor for watch mode.
//
// Every rebuilt report is pushed back out through the same sinks a one-shot
// run uses: the configured output target, and the API snapshot when serve
// mode is on.
func ProvideEventProcessor(i do.Injector) (*processor.EventProcessor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	timelineService := do.MustInvoke[*service.TimelineService](i)
	log := do.MustInvoke[*logger.Logger](i)

	format := render.FormatFor(cfg.Output.JSON, cfg.Output.Path)

	var apiServer *api.Server
	if cfg.Server.Enabled {
		apiServer = do.MustInvoke[*api.Server](i)
	}

	onReport := func(report *service.Report) {
		if apiServer != nil {
			apiServer.SetReport(report)
		}
		if err := RenderReport(report, format, cfg.Output.Path); err != nil {
			log.Error("failed to render rebuilt timeline", "error", err)
		}
	}

	return processor.NewEventProcessor(timelineService, processor.Options{
		Root:         cfg.Scan.Dir,
		Recursive:    cfg.Scan.Recursive,
		Workers:      cfg.Scan.Workers,
		OutputFormat: string(format),
		OnReport:     onReport,
	}, log.Logger), nil
}
