package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/reelstitch/reelstitch/internal/chapters"
	"github.com/reelstitch/reelstitch/internal/errors"
)

// Reconstruct derives corrected start/stop times for one session's chapters.
//
// Chapters are sorted by chapter index; the first chapter's embedded
// creation time anchors the session and every later start is chained from
// the previous chapter's duration. The result is gap-free and
// overlap-free: entry[i].Stop equals entry[i+1].Start exactly, and
// entry[0].Start equals the first chapter's embedded creation time.
//
// Bad data is rejected, not propagated: a duplicate chapter index or a
// negative duration returns a data-integrity error naming the offending
// file, and no entries are emitted for the session.
func Reconstruct(records []chapters.Record) ([]Entry, error) {
	if len(records) == 0 {
		return nil, nil
	}

	sorted := make([]chapters.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ChapterIndex < sorted[j].ChapterIndex
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].ChapterIndex == sorted[i-1].ChapterIndex {
			return nil, errors.Integrityf("duplicate chapter index %02d: %s and %s",
				sorted[i].ChapterIndex, sorted[i-1].Filename, sorted[i].Filename)
		}
	}

	entries := make([]Entry, 0, len(sorted))
	cursor := sorted[0].CreationTime
	carried := 0.0

	for _, rec := range sorted {
		if rec.DurationSeconds < 0 {
			return nil, errors.Integrityf("negative duration %.6f in %s",
				rec.DurationSeconds, rec.Filename)
		}

		start := cursor.Add(secondsDuration(carried))
		stop := start.Add(secondsDuration(rec.DurationSeconds))
		if stop.Before(start) {
			return nil, errors.Integrityf("stop precedes start in %s", rec.Filename)
		}

		entries = append(entries, Entry{
			Filename: rec.Filename,
			Start:    start,
			Stop:     stop,
			Duration: FormatElapsed(rec.DurationSeconds),
			Chapter:  rec.ChapterIndex,
			Session:  rec.SessionIndex,
			Folder:   rec.Folder,
		})

		cursor = start
		carried = rec.DurationSeconds
	}

	return entries, nil
}

// secondsDuration converts float seconds to a time.Duration, rounding to
// the nearest nanosecond. The same record's duration always converts to
// the same value, which is what keeps consecutive entries seamless.
func secondsDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// FormatElapsed renders a duration in seconds as zero-padded HH:MM:SS,
// appending microseconds only when the value is fractional. Hours run past
// 24 rather than rolling into days.
func FormatElapsed(seconds float64) string {
	whole := int64(seconds)
	micros := int64(math.Round((seconds - float64(whole)) * 1e6))
	if micros >= 1_000_000 {
		whole++
		micros = 0
	}

	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60

	if micros == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, micros)
}
