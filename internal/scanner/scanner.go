// Package scanner discovers chapter files under a root directory and probes
// their embedded metadata, producing the records the timeline is built from.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reelstitch/reelstitch/internal/chapters"
	"github.com/reelstitch/reelstitch/internal/probe"
)

// Scanner orchestrates the walk and probe phases of a pipeline run.
type Scanner struct {
	logger *slog.Logger

	walker *Walker
	pool   *ProbePool
}

// NewScanner creates a scanner backed by the given prober.
func NewScanner(prober probe.Prober, logger *slog.Logger) *Scanner {
	return &Scanner{
		logger: logger,
		walker: NewWalker(logger),
		pool:   NewProbePool(prober, logger),
	}
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// Recursive walks the whole tree; otherwise only the root's own files
	// are considered.
	Recursive bool
	// Workers bounds the probe fan-out (0 means the default).
	Workers int
	// OnProgress, when set, receives progress snapshots.
	OnProgress func(*Progress)
}

// Scan walks root, decodes file names, and probes every candidate.
//
// Files whose names do not decode are filtered silently and counted. A
// candidate whose probe fails becomes a skip entry and the scan continues;
// only an unusable root or context cancellation fails the whole scan.
func (s *Scanner) Scan(ctx context.Context, root string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	tracker := NewProgressTracker(opts.OnProgress)
	result := &ScanResult{}

	candidates := s.collectCandidates(ctx, root, opts.Recursive, tracker, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("walk complete",
		"root", root,
		"files", result.FilesSeen,
		"candidates", len(candidates),
		"unparseable", result.Unparseable,
	)

	tracker.SetPhase(PhaseProbing)
	tracker.SetTotal(len(candidates))

	records, skipped, err := s.pool.ProbeAll(ctx, candidates, opts.Workers, func(path string) {
		tracker.Increment(path)
	})
	if err != nil {
		return nil, err
	}

	result.Records = records
	result.Skipped = skipped

	s.logger.Info("probe complete",
		"probed", len(records),
		"skipped", len(skipped),
	)

	return result, nil
}

// collectCandidates drains the walker, counting every file and keeping the
// ones whose names decode.
func (s *Scanner) collectCandidates(ctx context.Context, root string, recursive bool, tracker *ProgressTracker, result *ScanResult) []Candidate {
	tracker.SetPhase(PhaseWalking)

	var walked <-chan WalkResult
	if recursive {
		walked = s.walker.Walk(ctx, root)
	} else {
		walked = s.walker.WalkTopLevel(ctx, root)
	}

	var candidates []Candidate
	for wr := range walked {
		result.FilesSeen++
		tracker.Increment(wr.Path)

		name := filepath.Base(wr.Path)
		chapter, session, ok := chapters.DecodeName(name)
		if !ok {
			result.Unparseable++
			s.logger.Debug("name does not decode, excluding", "path", wr.Path)
			continue
		}

		folder := filepath.Dir(wr.RelPath)
		if folder == "." {
			folder = ""
		}

		candidates = append(candidates, Candidate{
			Path:         wr.Path,
			Filename:     name,
			Folder:       folder,
			ChapterIndex: chapter,
			SessionIndex: session,
		})
	}

	return candidates
}
