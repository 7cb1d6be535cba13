package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/reelstitch/reelstitch/internal/service"
	"github.com/reelstitch/reelstitch/internal/watcher"
)

// Options configures how event-driven rebuilds run. Root, Recursive and
// Workers mirror the options a one-shot run would use.
type Options struct {
	Root         string
	Recursive    bool
	Workers      int
	OutputFormat string

	// OnReport receives every successfully rebuilt report. Watch mode
	// re-renders the output target from it; serve mode swaps the report
	// the API hands out.
	OnReport func(*service.Report)
}

// EventProcessor turns settled filesystem events into timeline rebuilds.
//
// Key design principles:
//   - Every relevant event triggers a full rebuild of the root (simple,
//     idempotent; the probe cache keeps repeat rebuilds cheap)
//   - Rebuilds never run concurrently (non-blocking TryLock)
//   - Events arriving mid-rebuild leave their folder noted; the next
//     event rebuilds with those changes included
type EventProcessor struct {
	timeline *service.TimelineService
	logger   *slog.Logger
	opts     Options

	// changed collects the scan folders touched since a rebuild last
	// drained them. The rebuild rescans the whole root regardless; the
	// set only names what triggered it.
	changed *SyncMap[string, struct{}]

	// eventCount counts relevant events since the last rebuild.
	eventCount atomic.Int64

	// rebuildMu serializes rebuilds without blocking event intake.
	rebuildMu sync.Mutex
}

// NewEventProcessor creates an EventProcessor that rebuilds through the
// given timeline service.
func NewEventProcessor(timeline *service.TimelineService, opts Options, logger *slog.Logger) *EventProcessor {
	return &EventProcessor{
		timeline: timeline,
		logger:   logger,
		opts:     opts,
		changed:  NewSyncMap[string, struct{}](),
	}
}

// Run consumes watcher events until the context is canceled or the event
// channel closes. Each event is processed on its own goroutine so a long
// rebuild never blocks the intake of further events.
func (ep *EventProcessor) Run(ctx context.Context, events <-chan watcher.Event, errs <-chan error) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := ep.ProcessEvent(ctx, event); err != nil {
					ep.logger.Error("failed to process event",
						"path", event.Path,
						"error", err,
					)
				}
			}()
		case err, ok := <-errs:
			if !ok {
				return
			}
			ep.logger.Error("watch error", "error", err)
		}
	}
}

// ProcessEvent processes a single filesystem event.
//
// Processing flow:
//  1. Classify the path (chapter file, directory, or ignored)
//  2. Note the affected scan folder
//  3. Acquire the rebuild lock with TryLock
//  4. Rebuild the timeline for the whole root
//
// If a rebuild is already running, the event is skipped (non-blocking).
// The folder stays noted, and the next event rebuilds with it included.
func (ep *EventProcessor) ProcessEvent(ctx context.Context, event watcher.Event) error {
	ep.logger.Debug("processing event",
		"type", event.Type.String(),
		"path", event.Path,
	)

	relevance := classifyPath(event.Path)
	if relevance == RelevanceIgnored {
		ep.logger.Debug("ignoring file",
			"path", event.Path,
			"relevance", relevance.String(),
		)
		return nil
	}

	folder := determineScanFolder(event.Path)
	ep.changed.Store(folder, struct{}{})
	ep.eventCount.Add(1)

	if !ep.rebuildMu.TryLock() {
		ep.logger.Debug("rebuild already running, deferring",
			"folder", folder,
			"path", event.Path,
		)
		return nil
	}
	defer ep.rebuildMu.Unlock()

	return ep.rebuild(ctx)
}

// rebuild rescans the root and hands the fresh report to OnReport.
func (ep *EventProcessor) rebuild(ctx context.Context) error {
	folders := ep.drainChanged()
	events := ep.eventCount.Swap(0)

	ep.logger.Info("rebuilding timeline",
		"root", ep.opts.Root,
		"events", events,
		"changedFolders", folders,
	)

	report, err := ep.timeline.BuildReport(ctx, service.BuildRequest{
		Root:         ep.opts.Root,
		Recursive:    ep.opts.Recursive,
		Workers:      ep.opts.Workers,
		OutputFormat: ep.opts.OutputFormat,
	})
	if err != nil {
		return fmt.Errorf("rebuild timeline: %w", err)
	}

	if ep.opts.OnReport != nil {
		ep.opts.OnReport(report)
	}

	return nil
}

// drainChanged removes and returns the noted folders. A folder noted
// after the snapshot is taken survives for the next drain.
func (ep *EventProcessor) drainChanged() []string {
	folders := ep.changed.Keys()
	for _, f := range folders {
		ep.changed.Delete(f)
	}
	sort.Strings(folders)
	return folders
}
