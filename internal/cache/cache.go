// Package cache persists probe results keyed by file identity so that
// unchanged files skip the external probe on rescans.
package cache

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelstitch/reelstitch/internal/probe"
)

// entry is the stored fingerprint and metadata for one file.
//
// Size and MtimeUnixNs identify the file contents at probe time; an entry is
// only served while both still match the file on disk.
type entry struct {
	Size            int64     `json:"size"`
	MtimeUnixNs     int64     `json:"mtime_unix_ns"`
	CreationTime    time.Time `json:"creation_time"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Store wraps a Badger database holding cached probe results.
//
// Keys are absolute file paths. Entries are reconstructible by re-probing,
// so all failures degrade to cache misses rather than errors.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens (or creates) the cache database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open probe cache: %w", err)
	}

	if logger != nil {
		logger.Debug("probe cache opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached probe result for path if the stored fingerprint
// still matches size and mtime. The second return is false on a miss, a
// stale entry, or any read error.
func (s *Store) Get(path string, size int64, mtime time.Time) (*probe.Result, bool) {
	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) && s.logger != nil {
			s.logger.Debug("probe cache read failed", "path", path, "error", err)
		}
		return nil, false
	}

	if e.Size != size || e.MtimeUnixNs != mtime.UnixNano() {
		// File changed since it was probed; the entry will be overwritten
		// by the next Put.
		return nil, false
	}

	return &probe.Result{
		CreationTime:    e.CreationTime,
		DurationSeconds: e.DurationSeconds,
	}, true
}

// Put stores the probe result for path fingerprinted by size and mtime,
// replacing any previous entry.
func (s *Store) Put(path string, size int64, mtime time.Time, res *probe.Result) error {
	data, err := json.Marshal(entry{
		Size:            size,
		MtimeUnixNs:     mtime.UnixNano(),
		CreationTime:    res.CreationTime,
		DurationSeconds: res.DurationSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
}
