// Package probe extracts embedded creation times and durations from video files.
package probe

import (
	"context"
	"time"
)

// Prober reads embedded metadata from a single video file.
//
// Probe calls are independent, read-only, and potentially slow; callers may
// fan them out across files but get no ordering guarantees from the prober
// itself.
type Prober interface {
	// Probe extracts the embedded creation time and duration for path.
	Probe(ctx context.Context, path string) (*Result, error)
}

// Result is the embedded metadata for one file.
type Result struct {
	// CreationTime is the timestamp the camera wrote into the container,
	// authoritative only for a session's first chapter.
	CreationTime time.Time
	// DurationSeconds is authoritative for every chapter.
	DurationSeconds float64
}

// WithTimeout bounds every Probe call on p to d. A stuck external probe
// then fails that one file instead of stalling the whole pool. A
// non-positive d returns p unchanged.
func WithTimeout(p Prober, d time.Duration) Prober {
	if d <= 0 {
		return p
	}
	return &timeoutProber{inner: p, timeout: d}
}

type timeoutProber struct {
	inner   Prober
	timeout time.Duration
}

func (p *timeoutProber) Probe(ctx context.Context, path string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Probe(ctx, path)
}
