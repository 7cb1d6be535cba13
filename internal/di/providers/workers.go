package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/logger"
	"github.com/reelstitch/reelstitch/internal/processor"
	"github.com/reelstitch/reelstitch/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the file system watcher, already watching the
// scan directory and feeding settled events into the event processor.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	eventProcessor := do.MustInvoke[*processor.EventProcessor](i)

	w, err := watcher.New(log.Logger, watcher.Options{
		IgnoreHidden: true,
		SettleDelay:  cfg.Watch.SettleDelay,
	})
	if err != nil {
		return nil, err
	}

	if err := w.Watch(cfg.Scan.Dir); err != nil {
		return nil, err
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	// Process events in background
	go eventProcessor.Run(ctx, w.Events(), w.Errors())

	log.Info("Watching for changes",
		"dir", cfg.Scan.Dir,
		"settle_delay", cfg.Watch.SettleDelay,
	)

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
