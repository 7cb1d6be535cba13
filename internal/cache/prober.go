package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reelstitch/reelstitch/internal/probe"
)

// CachedProber wraps a Prober with a persistent result cache.
//
// Cache failures never fail a probe: any problem reading or writing the
// store degrades to probing the file live.
type CachedProber struct {
	inner  probe.Prober
	store  *Store
	logger *slog.Logger
}

// NewCachedProber wraps inner with store.
func NewCachedProber(inner probe.Prober, store *Store, logger *slog.Logger) *CachedProber {
	return &CachedProber{inner: inner, store: store, logger: logger}
}

// Probe returns the cached result for path when its size and mtime are
// unchanged, and probes live (refreshing the cache) otherwise.
func (p *CachedProber) Probe(ctx context.Context, path string) (*probe.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Can't fingerprint the file, so bypass the cache entirely and let
		// the live probe report whatever is wrong with it.
		return p.inner.Probe(ctx, path)
	}

	key := cacheKey(path)
	if res, ok := p.store.Get(key, info.Size(), info.ModTime()); ok {
		return res, nil
	}

	res, err := p.inner.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := p.store.Put(key, info.Size(), info.ModTime(), res); err != nil && p.logger != nil {
		p.logger.Debug("probe cache write failed", "path", path, "error", err)
	}

	return res, nil
}

// cacheKey normalizes path to its absolute form so the same file probed via
// different working directories shares one entry.
func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
