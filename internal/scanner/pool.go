package scanner

import (
	"context"
	"log/slog"

	"github.com/reelstitch/reelstitch/internal/chapters"
	"github.com/reelstitch/reelstitch/internal/probe"
)

// defaultWorkers bounds the probe fan-out when the caller passes no count.
// Each probe shells out to an external process, so the bound keeps a big
// footage drive from forking hundreds of them at once.
const defaultWorkers = 4

// ProbePool probes candidates concurrently while preserving walk order.
type ProbePool struct {
	prober probe.Prober
	logger *slog.Logger
}

// NewProbePool creates a probe pool backed by the given prober.
func NewProbePool(prober probe.Prober, logger *slog.Logger) *ProbePool {
	return &ProbePool{
		prober: prober,
		logger: logger,
	}
}

// ProbeAll probes every candidate and returns complete chapter records in
// walk order, plus a skip entry for each candidate whose probe failed.
//
// A per-file probe failure never aborts the run; only context cancellation
// does. onProbed, when non-nil, is called once per finished candidate.
func (p *ProbePool) ProbeAll(ctx context.Context, candidates []Candidate, workers int, onProbed func(path string)) ([]chapters.Record, []SkippedFile, error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	type job struct {
		candidate Candidate
		index     int
	}

	type outcome struct {
		record *chapters.Record
		skip   *SkippedFile
		index  int
		err    error
	}

	jobs := make(chan job, len(candidates))
	outcomes := make(chan outcome, len(candidates))

	// Start workers.
	for range workers {
		go func() {
			for j := range jobs {
				// Check context cancellation.
				select {
				case <-ctx.Done():
					outcomes <- outcome{index: j.index, err: ctx.Err()}
					return
				default:
				}

				res, err := p.prober.Probe(ctx, j.candidate.Path)
				if err != nil {
					if ctx.Err() != nil {
						outcomes <- outcome{index: j.index, err: ctx.Err()}
						return
					}
					p.logger.Warn("probe failed, skipping file",
						"path", j.candidate.Path, "error", err)
					outcomes <- outcome{
						index: j.index,
						skip:  &SkippedFile{Path: j.candidate.Path, Reason: err.Error()},
					}
					continue
				}

				outcomes <- outcome{
					index: j.index,
					record: &chapters.Record{
						Filename:        j.candidate.Filename,
						Folder:          j.candidate.Folder,
						CreationTime:    res.CreationTime,
						DurationSeconds: res.DurationSeconds,
						ChapterIndex:    j.candidate.ChapterIndex,
						SessionIndex:    j.candidate.SessionIndex,
					},
				}
			}
		}()
	}

	// Send jobs.
	for i, c := range candidates {
		select {
		case jobs <- job{candidate: c, index: i}:
		case <-ctx.Done():
			close(jobs)
			return nil, nil, ctx.Err()
		}
	}
	close(jobs)

	// Collect outcomes, indexed so walk order survives the fan-out.
	ordered := make([]outcome, len(candidates))
	for range len(candidates) {
		select {
		case o := <-outcomes:
			if o.err != nil {
				return nil, nil, o.err
			}
			ordered[o.index] = o
			if onProbed != nil {
				onProbed(candidates[o.index].Path)
			}
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	var records []chapters.Record
	var skipped []SkippedFile
	for _, o := range ordered {
		switch {
		case o.record != nil:
			records = append(records, *o.record)
		case o.skip != nil:
			skipped = append(skipped, *o.skip)
		}
	}

	return records, skipped, nil
}
