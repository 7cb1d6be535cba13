package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

// makeRun builds a fully populated run starting at the given offset from a
// fixed base time, so ordering assertions are deterministic.
func makeRun(id string, offset time.Duration) *Run {
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return &Run{
		ID:           id,
		Root:         "/footage/gopro",
		StartedAt:    base.Add(offset),
		CompletedAt:  base.Add(offset + 3*time.Second),
		Recursive:    true,
		FilesSeen:    12,
		Unparseable:  2,
		Skipped:      1,
		Sessions:     3,
		Entries:      9,
		OutputFormat: "csv",
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "runs", name)
}

func TestOpenClose_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Schema is idempotent, so reopening must work.
	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer s2.Close()
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := makeRun("run-V1StGXR8Z5jdHi6B", 0)
	require.NoError(t, s.RecordRun(ctx, want))

	runs, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Root, got.Root)
	assert.True(t, got.StartedAt.Equal(want.StartedAt))
	assert.True(t, got.CompletedAt.Equal(want.CompletedAt))
	assert.True(t, got.Recursive)
	assert.Equal(t, want.FilesSeen, got.FilesSeen)
	assert.Equal(t, want.Unparseable, got.Unparseable)
	assert.Equal(t, want.Skipped, got.Skipped)
	assert.Equal(t, want.Sessions, got.Sessions)
	assert.Equal(t, want.Entries, got.Entries)
	assert.Equal(t, want.OutputFormat, got.OutputFormat)
}

func TestListRecent_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, makeRun("run-aaaaaaaaaaaaaaaa", 0)))
	require.NoError(t, s.RecordRun(ctx, makeRun("run-bbbbbbbbbbbbbbbb", time.Minute)))
	require.NoError(t, s.RecordRun(ctx, makeRun("run-cccccccccccccccc", 2*time.Minute)))

	runs, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "run-cccccccccccccccc", runs[0].ID)
	assert.Equal(t, "run-bbbbbbbbbbbbbbbb", runs[1].ID)
	assert.Equal(t, "run-aaaaaaaaaaaaaaaa", runs[2].ID)
}

func TestListRecent_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := makeRun("run-000000000000000"+string(rune('a'+i)), time.Duration(i)*time.Minute)
		require.NoError(t, s.RecordRun(ctx, run))
	}

	runs, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListRecent_Empty(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestPruneOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, makeRun("run-old0000000000000", 0)))
	require.NoError(t, s.RecordRun(ctx, makeRun("run-old1111111111111", time.Minute)))
	require.NoError(t, s.RecordRun(ctx, makeRun("run-new2222222222222", time.Hour)))

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	n, err := s.PruneOlderThan(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new2222222222222", runs[0].ID)
}

func TestPruneOlderThan_NothingToPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, makeRun("run-V1StGXR8Z5jdHi6B", 0)))

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	n, err := s.PruneOlderThan(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
