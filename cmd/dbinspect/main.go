// dbinspect dumps the probe cache and run history for debugging.
//
// It opens the same data directory the CLI uses (flag, then
// REELSTITCH_DATA_DIR, then ~/.reelstitch) and never touches anything
// unless a prune flag is set.
package main

import (
	"context"
	"encoding/json/v2"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelstitch/reelstitch/internal/history"
)

// cacheEntry mirrors the value layout the probe cache writes.
type cacheEntry struct {
	Size            int64     `json:"size"`
	MtimeUnixNs     int64     `json:"mtime_unix_ns"`
	CreationTime    time.Time `json:"creation_time"`
	DurationSeconds float64   `json:"duration_seconds"`
}

func main() {
	dataDir := flag.String("data-dir", "", "data directory (default: $REELSTITCH_DATA_DIR or ~/.reelstitch)")
	filter := flag.String("filter", "", "only show cache keys containing this substring")
	historyLimit := flag.Int("history", 10, "number of recent runs to show")
	pruneOrphans := flag.Bool("prune-orphans", false, "delete cache entries whose file no longer exists")
	pruneAge := flag.Duration("prune-history", 0, "delete history rows older than this age (e.g. 720h)")
	flag.Parse()

	dir, err := resolveDataDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir: %v", err)
	}

	inspectCache(filepath.Join(dir, "probe-cache"), *filter, *pruneOrphans)
	fmt.Println()
	inspectHistory(filepath.Join(dir, "history.db"), *historyLimit, *pruneAge)
}

// resolveDataDir applies the main CLI's precedence: flag, env, home default.
func resolveDataDir(flagValue string) (string, error) {
	dir := flagValue
	if dir == "" {
		dir = os.Getenv("REELSTITCH_DATA_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".reelstitch")
	}
	return dir, nil
}

func inspectCache(path, filter string, pruneOrphans bool) {
	fmt.Println("=== Probe Cache ===")

	if _, err := os.Stat(path); err != nil {
		fmt.Printf("No probe cache at %s\n", path)
		return
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if !pruneOrphans {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open probe cache: %v", err)
	}
	defer db.Close()

	shown := 0
	total := 0
	var orphans [][]byte

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			total++

			if filter != "" && !strings.Contains(key, filter) {
				continue
			}

			if _, statErr := os.Stat(key); statErr != nil {
				orphans = append(orphans, item.KeyCopy(nil))
			}

			err := item.Value(func(val []byte) error {
				var e cacheEntry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				shown++
				fmt.Printf("%s\n", key)
				fmt.Printf("  size: %d  mtime: %s\n",
					e.Size, time.Unix(0, e.MtimeUnixNs).UTC().Format(time.RFC3339))
				fmt.Printf("  creation_time: %s  duration: %.3fs\n",
					e.CreationTime.UTC().Format(time.RFC3339), e.DurationSeconds)
				return nil
			})
			if err != nil {
				log.Printf("Error reading entry %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating probe cache: %v", err)
	}

	fmt.Printf("\nTotal entries: %d (shown: %d, orphaned: %d)\n", total, shown, len(orphans))

	if pruneOrphans && len(orphans) > 0 {
		err := db.Update(func(txn *badger.Txn) error {
			for _, key := range orphans {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to prune orphaned entries: %v", err)
		}
		fmt.Printf("Pruned %d orphaned entries\n", len(orphans))
	}
}

func inspectHistory(path string, limit int, pruneAge time.Duration) {
	fmt.Println("=== Run History ===")

	if _, err := os.Stat(path); err != nil {
		fmt.Printf("No run history at %s\n", path)
		return
	}

	store, err := history.Open(path, nil)
	if err != nil {
		log.Fatalf("Failed to open run history: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if pruneAge > 0 {
		cutoff := time.Now().Add(-pruneAge)
		pruned, err := store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			log.Fatalf("Failed to prune run history: %v", err)
		}
		fmt.Printf("Pruned %d runs started before %s\n", pruned, cutoff.UTC().Format(time.RFC3339))
	}

	runs, err := store.ListRecent(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return
	}

	for _, run := range runs {
		elapsed := run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond)
		fmt.Printf("%s  %s\n", run.ID, run.StartedAt.UTC().Format(time.RFC3339))
		fmt.Printf("  root: %s (recursive: %v, format: %s)\n", run.Root, run.Recursive, run.OutputFormat)
		fmt.Printf("  files: %d  unparseable: %d  skipped: %d  sessions: %d  entries: %d  took: %s\n",
			run.FilesSeen, run.Unparseable, run.Skipped, run.Sessions, run.Entries, elapsed)
	}
}
