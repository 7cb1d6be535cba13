// Package service composes the pipeline: scan, validate, group, reconstruct,
// and flatten into a report.
package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/reelstitch/reelstitch/internal/chapters"
	domainerrors "github.com/reelstitch/reelstitch/internal/errors"
	"github.com/reelstitch/reelstitch/internal/history"
	"github.com/reelstitch/reelstitch/internal/id"
	"github.com/reelstitch/reelstitch/internal/scanner"
	"github.com/reelstitch/reelstitch/internal/timeline"
	"github.com/reelstitch/reelstitch/internal/validation"
)

// nearMissWindow flags session stamps that land suspiciously close together.
// Grouping is exact to the second; two stamps this close are usually one
// session whose chapters got rounded apart, which this tool deliberately
// does not merge.
const nearMissWindow = 2 * time.Second

// TimelineService runs the pipeline end to end.
type TimelineService struct {
	scanner   *scanner.Scanner
	validator *validation.Validator
	history   *history.Store
	logger    *slog.Logger
}

// NewTimelineService creates the service. The history store may be nil, in
// which case runs are simply not recorded.
func NewTimelineService(sc *scanner.Scanner, v *validation.Validator, hist *history.Store, logger *slog.Logger) *TimelineService {
	return &TimelineService{
		scanner:   sc,
		validator: v,
		history:   hist,
		logger:    logger,
	}
}

// BuildRequest configures one pipeline run.
type BuildRequest struct {
	Root      string
	Recursive bool
	// Workers bounds the probe fan-out (0 means the default).
	Workers int
	// OutputFormat is recorded in run history for later inspection; it does
	// not affect the report itself.
	OutputFormat string
	// OnProgress, when set, receives progress snapshots across all phases.
	OnProgress func(*scanner.Progress)
}

// Stats are the counters for one run.
type Stats struct {
	FilesSeen   int   `json:"files_seen"`
	Unparseable int   `json:"unparseable"`
	Probed      int   `json:"probed"`
	Skipped     int   `json:"skipped"`
	Sessions    int   `json:"sessions"`
	Entries     int   `json:"entries"`
	ElapsedMS   int64 `json:"elapsed_ms"`
}

// SessionSummary describes one reconstructed session.
type SessionSummary struct {
	// Session is the 4-digit file number from the chapter names.
	Session int `json:"session"`
	// Stamp is the shared creation time the session grouped under.
	Stamp time.Time `json:"session_stamp"`
	// Start and Stop span the whole session after reconstruction.
	Start    time.Time `json:"start_time"`
	Stop     time.Time `json:"stop_time"`
	Chapters int       `json:"chapters"`
	Folder   string    `json:"folder"`
}

// Report is the full outcome of one pipeline run.
type Report struct {
	RunID       string                `json:"run_id"`
	Root        string                `json:"root"`
	GeneratedAt time.Time             `json:"generated_at"`
	Recursive   bool                  `json:"recursive"`
	Entries     []timeline.Entry      `json:"entries"`
	Sessions    []SessionSummary      `json:"sessions"`
	Skipped     []scanner.SkippedFile `json:"skipped,omitempty"`
	Stats       Stats                 `json:"stats"`
}

// BuildReport runs the pipeline once against req.Root.
//
// Per-file and per-session problems become skip entries in the report; the
// run itself fails only on an unusable root or context cancellation. An
// empty directory yields an empty, valid report.
func (s *TimelineService) BuildReport(ctx context.Context, req BuildRequest) (*Report, error) {
	runID := id.NewRunID()
	startedAt := time.Now()
	logger := s.logger.With("run_id", runID)

	logger.Info("run starting", "root", req.Root, "recursive", req.Recursive)

	scanRes, err := s.scanner.Scan(ctx, req.Root, scanner.ScanOptions{
		Recursive:  req.Recursive,
		Workers:    req.Workers,
		OnProgress: req.OnProgress,
	})
	if err != nil {
		return nil, err
	}

	// The scanner's tracker stops at probing; this one carries the same
	// callback through the remaining phases.
	tracker := scanner.NewProgressTracker(req.OnProgress)

	report := &Report{
		RunID:     runID,
		Root:      req.Root,
		Recursive: req.Recursive,
		Entries:   []timeline.Entry{},
		Sessions:  []SessionSummary{},
		Skipped:   scanRes.Skipped,
	}

	tracker.SetPhase(scanner.PhaseGrouping)
	grouping := timeline.GroupSessions(scanRes.Records)
	s.logNearMisses(logger, grouping)

	tracker.SetPhase(scanner.PhaseReconstructing)
	tracker.SetTotal(grouping.Len())

	for _, key := range grouping.Keys() {
		records := grouping.Records(key)
		tracker.Increment(key.String())

		if skip, ok := s.checkSession(logger, key, records); !ok {
			report.Skipped = append(report.Skipped, skip)
			continue
		}

		entries, err := timeline.Reconstruct(records)
		if err != nil {
			logger.Warn("session excluded",
				"session", key.String(),
				"chapters", len(records),
				"error", err,
			)
			report.Skipped = append(report.Skipped, scanner.SkippedFile{
				Path:   recordPath(records[0]),
				Reason: skipReason(err),
			})
			continue
		}

		report.Entries = append(report.Entries, entries...)
		report.Sessions = append(report.Sessions, summarize(key, entries))
	}

	report.GeneratedAt = time.Now()
	report.Stats = Stats{
		FilesSeen:   scanRes.FilesSeen,
		Unparseable: scanRes.Unparseable,
		Probed:      len(scanRes.Records),
		Skipped:     len(report.Skipped),
		Sessions:    len(report.Sessions),
		Entries:     len(report.Entries),
		ElapsedMS:   report.GeneratedAt.Sub(startedAt).Milliseconds(),
	}

	tracker.SetPhase(scanner.PhaseComplete)

	logger.Info("run complete",
		"sessions", report.Stats.Sessions,
		"entries", report.Stats.Entries,
		"skipped", report.Stats.Skipped,
		"unparseable", report.Stats.Unparseable,
		"elapsed_ms", report.Stats.ElapsedMS,
	)

	s.recordRun(ctx, req, report, startedAt)

	return report, nil
}

// checkSession validates every record of a session. On failure it returns
// the skip entry for the offending file and false; the caller drops the
// whole session, because removing a single chapter would silently shift
// every later chapter's chained start time.
func (s *TimelineService) checkSession(logger *slog.Logger, key timeline.SessionKey, records []chapters.Record) (scanner.SkippedFile, bool) {
	for _, rec := range records {
		if err := s.validator.ValidateRecord(rec); err != nil {
			logger.Warn("session excluded by validation",
				"session", key.String(),
				"chapters", len(records),
				"file", rec.Filename,
				"error", err,
			)
			return scanner.SkippedFile{
				Path:   recordPath(rec),
				Reason: skipReason(err),
			}, false
		}
	}
	return scanner.SkippedFile{}, true
}

// logNearMisses warns (at debug) about distinct sessions whose stamps are
// within nearMissWindow of each other.
func (s *TimelineService) logNearMisses(logger *slog.Logger, g *timeline.Grouping) {
	keys := g.Keys()
	if len(keys) < 2 {
		return
	}

	sorted := make([]timeline.SessionKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Time().Sub(sorted[i-1].Time())
		if delta <= nearMissWindow {
			logger.Debug("session stamps nearly collide",
				"first", sorted[i-1].String(),
				"second", sorted[i].String(),
				"delta", delta,
			)
		}
	}
}

// recordRun persists the run summary. History is best-effort: a failure is
// logged and never fails the run.
func (s *TimelineService) recordRun(ctx context.Context, req BuildRequest, report *Report, startedAt time.Time) {
	if s.history == nil {
		return
	}

	run := &history.Run{
		ID:           report.RunID,
		Root:         report.Root,
		StartedAt:    startedAt,
		CompletedAt:  report.GeneratedAt,
		Recursive:    req.Recursive,
		FilesSeen:    report.Stats.FilesSeen,
		Unparseable:  report.Stats.Unparseable,
		Skipped:      report.Stats.Skipped,
		Sessions:     report.Stats.Sessions,
		Entries:      report.Stats.Entries,
		OutputFormat: req.OutputFormat,
	}

	if err := s.history.RecordRun(ctx, run); err != nil {
		s.logger.Warn("failed to record run history", "run_id", report.RunID, "error", err)
	}
}

// summarize folds one session's entries into its summary row.
func summarize(key timeline.SessionKey, entries []timeline.Entry) SessionSummary {
	first := entries[0]
	last := entries[len(entries)-1]
	return SessionSummary{
		Session:  first.Session,
		Stamp:    key.Time(),
		Start:    first.Start,
		Stop:     last.Stop,
		Chapters: len(entries),
		Folder:   first.Folder,
	}
}

// recordPath rebuilds a record's path relative to the scan root for skip
// reports.
func recordPath(rec chapters.Record) string {
	return filepath.Join(rec.Folder, rec.Filename)
}

// skipReason renders an error as a one-line skip reason, folding in
// field-level details when the error carries them.
func skipReason(err error) string {
	var derr *domainerrors.Error
	if !domainerrors.As(err, &derr) {
		return err.Error()
	}

	fields, ok := derr.Details.(map[string]string)
	if !ok || len(fields) == 0 {
		return derr.Error()
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return derr.Message + ": " + strings.Join(parts, "; ")
}
