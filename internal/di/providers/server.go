package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/api"
	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/logger"
	"github.com/reelstitch/reelstitch/internal/render"
	"github.com/reelstitch/reelstitch/internal/service"
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

// ProvideAPIServer provides the API handler. Its rescan callback rebuilds
// through the timeline service with the same options the CLI run uses.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	timelineService := do.MustInvoke[*service.TimelineService](i)
	log := do.MustInvoke[*logger.Logger](i)

	format := render.FormatFor(cfg.Output.JSON, cfg.Output.Path)

	rescan := func(ctx context.Context) (*service.Report, error) {
		return timelineService.BuildReport(ctx, service.BuildRequest{
			Root:         cfg.Scan.Dir,
			Recursive:    cfg.Scan.Recursive,
			Workers:      cfg.Scan.Workers,
			OutputFormat: string(format),
		})
	}

	return api.NewServer(rescan, log.Logger), nil
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	apiServer := do.MustInvoke[*api.Server](i)
	log := do.MustInvoke[*logger.Logger](i)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
