package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/reelstitch/reelstitch/internal/probe"
)

// fakeProber returns canned results per path and records every probe call.
type fakeProber struct {
	mu      sync.Mutex
	results map[string]probe.Result
	fail    map[string]error
	probed  []string
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		results: make(map[string]probe.Result),
		fail:    make(map[string]error),
	}
}

func (f *fakeProber) Probe(_ context.Context, path string) (*probe.Result, error) {
	f.mu.Lock()
	f.probed = append(f.probed, path)
	f.mu.Unlock()

	if err, ok := f.fail[path]; ok {
		return nil, err
	}
	if res, ok := f.results[path]; ok {
		r := res
		return &r, nil
	}
	// Default metadata for files the test didn't configure explicitly.
	return &probe.Result{
		CreationTime:    time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		DurationSeconds: 60,
	}, nil
}

func (f *fakeProber) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.probed)
}

func TestScanner_Scan_DecodesAndProbes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "GX010153.MP4"))
	writeFile(t, filepath.Join(tmpDir, "GX020153.MP4"))
	writeFile(t, filepath.Join(tmpDir, "notes.txt"))
	writeFile(t, filepath.Join(tmpDir, "ABCDEFGH.mp4")) // lowercase extension never decodes

	prober := newFakeProber()
	s := NewScanner(prober, testLogger())

	result, err := s.Scan(context.Background(), tmpDir, ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.FilesSeen != 4 {
		t.Errorf("expected 4 files seen, got %d", result.FilesSeen)
	}
	if result.Unparseable != 2 {
		t.Errorf("expected 2 unparseable, got %d", result.Unparseable)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if prober.probeCount() != 2 {
		t.Errorf("expected 2 probes, got %d", prober.probeCount())
	}

	// Walk order is lexicographic here, so GX01 comes first.
	first := result.Records[0]
	if first.Filename != "GX010153.MP4" {
		t.Errorf("expected GX010153.MP4 first, got %s", first.Filename)
	}
	if first.ChapterIndex != 1 || first.SessionIndex != 153 {
		t.Errorf("expected chapter 1 session 153, got %d/%d", first.ChapterIndex, first.SessionIndex)
	}
	if first.Folder != "" {
		t.Errorf("expected empty folder for root file, got %q", first.Folder)
	}
}

func TestScanner_Scan_FolderRelativeToRoot(t *testing.T) {
	tmpDir := t.TempDir()
	day1 := filepath.Join(tmpDir, "day1")
	if err := os.Mkdir(day1, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(day1, "GX010153.MP4"))

	s := NewScanner(newFakeProber(), testLogger())

	result, err := s.Scan(context.Background(), tmpDir, ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].Folder != "day1" {
		t.Errorf("expected folder day1, got %q", result.Records[0].Folder)
	}
}

func TestScanner_Scan_NonRecursiveIgnoresSubdirs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "GX010153.MP4"))

	day1 := filepath.Join(tmpDir, "day1")
	if err := os.Mkdir(day1, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(day1, "GX020153.MP4"))

	s := NewScanner(newFakeProber(), testLogger())

	result, err := s.Scan(context.Background(), tmpDir, ScanOptions{Recursive: false})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].Filename != "GX010153.MP4" {
		t.Errorf("expected top-level file only, got %s", result.Records[0].Filename)
	}
}

func TestScanner_Scan_ProbeFailureBecomesSkip(t *testing.T) {
	tmpDir := t.TempDir()
	good := filepath.Join(tmpDir, "GX010153.MP4")
	bad := filepath.Join(tmpDir, "GX020153.MP4")
	writeFile(t, good)
	writeFile(t, bad)

	prober := newFakeProber()
	prober.fail[bad] = errors.New("creation_time tag missing")

	s := NewScanner(prober, testLogger())

	result, err := s.Scan(context.Background(), tmpDir, ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("scan should survive a per-file probe failure: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].Filename != "GX010153.MP4" {
		t.Errorf("expected the good file to survive, got %s", result.Records[0].Filename)
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skip, got %d", len(result.Skipped))
	}
	if result.Skipped[0].Path != bad {
		t.Errorf("expected skip for %s, got %s", bad, result.Skipped[0].Path)
	}
	if result.Skipped[0].Reason != "creation_time tag missing" {
		t.Errorf("unexpected skip reason %q", result.Skipped[0].Reason)
	}
}

func TestScanner_Scan_EmptyDirectory(t *testing.T) {
	s := NewScanner(newFakeProber(), testLogger())

	result, err := s.Scan(context.Background(), t.TempDir(), ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.FilesSeen != 0 || len(result.Records) != 0 || len(result.Skipped) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestScanner_Scan_MissingRoot(t *testing.T) {
	s := NewScanner(newFakeProber(), testLogger())

	_, err := s.Scan(context.Background(), "/does/not/exist", ScanOptions{})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanner_Scan_RootIsFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "GX010153.MP4")
	writeFile(t, file)

	s := NewScanner(newFakeProber(), testLogger())

	_, err := s.Scan(context.Background(), file, ScanOptions{})
	if err == nil {
		t.Fatal("expected error when root is a file")
	}
}

func TestScanner_Scan_RecordsKeepWalkOrder(t *testing.T) {
	tmpDir := t.TempDir()

	// Many files so worker scheduling would scramble an unordered collect.
	var want []string
	for i := 1; i <= 20; i++ {
		name := fmt.Sprintf("GX%02d0153.MP4", i)
		writeFile(t, filepath.Join(tmpDir, name))
		want = append(want, name)
	}

	s := NewScanner(newFakeProber(), testLogger())

	result, err := s.Scan(context.Background(), tmpDir, ScanOptions{Recursive: true, Workers: 8})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(result.Records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(result.Records))
	}
	for i, rec := range result.Records {
		if rec.Filename != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], rec.Filename)
		}
	}
}

func TestScanner_Scan_ProgressPhases(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "GX010153.MP4"))

	var mu sync.Mutex
	phases := make(map[ScanPhase]bool)

	s := NewScanner(newFakeProber(), testLogger())

	_, err := s.Scan(context.Background(), tmpDir, ScanOptions{
		Recursive: true,
		OnProgress: func(p *Progress) {
			mu.Lock()
			phases[p.Phase] = true
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	// Progress callbacks are asynchronous; give stragglers a moment.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !phases[PhaseWalking] {
		t.Error("expected walking phase to be reported")
	}
	if !phases[PhaseProbing] {
		t.Error("expected probing phase to be reported")
	}
}
