package timeline

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/reelstitch/reelstitch/internal/chapters"
	"github.com/reelstitch/reelstitch/internal/errors"
)

func TestReconstruct_TwoChapters(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Walk order is not chapter order; Reconstruct must sort.
	entries, err := Reconstruct([]chapters.Record{
		rec("GX020001.MP4", created, 5, 1, 1),
		rec("GX010001.MP4", created, 10, 0, 1),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if !entries[0].Start.Equal(created) {
		t.Errorf("chapter 0 start = %v, want %v", entries[0].Start, created)
	}
	if want := created.Add(10 * time.Second); !entries[0].Stop.Equal(want) {
		t.Errorf("chapter 0 stop = %v, want %v", entries[0].Stop, want)
	}
	if want := created.Add(10 * time.Second); !entries[1].Start.Equal(want) {
		t.Errorf("chapter 1 start = %v, want %v", entries[1].Start, want)
	}
	if want := created.Add(15 * time.Second); !entries[1].Stop.Equal(want) {
		t.Errorf("chapter 1 stop = %v, want %v", entries[1].Stop, want)
	}

	if entries[0].Duration != "00:00:10" || entries[1].Duration != "00:00:05" {
		t.Errorf("durations = %q, %q", entries[0].Duration, entries[1].Duration)
	}
}

func TestReconstruct_IdenticalStampsAreNotTrusted(t *testing.T) {
	// Cameras stamp every chapter of a session with the same creation
	// time; only the first may anchor the timeline.
	created := time.Date(2024, 6, 15, 9, 12, 44, 0, time.UTC)

	entries, err := Reconstruct([]chapters.Record{
		rec("GX010153.MP4", created, 531.498633, 1, 153),
		rec("GX020153.MP4", created, 531.498633, 2, 153),
		rec("GX030153.MP4", created, 212.178633, 3, 153),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	if !entries[0].Start.Equal(created) {
		t.Errorf("first start = %v, want anchor %v", entries[0].Start, created)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Start.Equal(created) {
			t.Errorf("chapter %d start equals the shared stamp; duration chaining not applied", i)
		}
	}
}

func TestReconstruct_ChainInvariant(t *testing.T) {
	created := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

	records := []chapters.Record{
		rec("GX010044.MP4", created, 901.567, 1, 44),
		rec("GX020044.MP4", created, 901.567, 2, 44),
		rec("GX030044.MP4", created, 901.566, 3, 44),
		rec("GX040044.MP4", created, 450.2, 4, 44),
		rec("GX050044.MP4", created, 12.040001, 5, 44),
	}

	entries, err := Reconstruct(records)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	for i := 0; i < len(entries)-1; i++ {
		if !entries[i].Stop.Equal(entries[i+1].Start) {
			t.Errorf("gap or overlap between chapters %d and %d: stop %v, next start %v",
				entries[i].Chapter, entries[i+1].Chapter, entries[i].Stop, entries[i+1].Start)
		}
	}
	for i := range entries {
		if entries[i].Stop.Before(entries[i].Start) {
			t.Errorf("chapter %d stops before it starts", entries[i].Chapter)
		}
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	created := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	records := []chapters.Record{
		rec("GX010044.MP4", created, 901.567, 1, 44),
		rec("GX020044.MP4", created, 33.3, 2, 44),
	}

	first, err := Reconstruct(records)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Reconstruct(records)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same input disagree")
	}
}

func TestReconstruct_SingleChapterZeroDuration(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	entries, err := Reconstruct([]chapters.Record{
		rec("GX010001.MP4", created, 0, 1, 1),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].Start.Equal(entries[0].Stop) {
		t.Errorf("zero duration must mean start == stop, got %v / %v",
			entries[0].Start, entries[0].Stop)
	}
	if entries[0].Duration != "00:00:00" {
		t.Errorf("duration = %q, want 00:00:00", entries[0].Duration)
	}
}

func TestReconstruct_FractionalChaining(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries, err := Reconstruct([]chapters.Record{
		rec("GX010001.MP4", created, 10.5, 1, 1),
		rec("GX020001.MP4", created, 2.25, 2, 1),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	if want := created.Add(10*time.Second + 500*time.Millisecond); !entries[1].Start.Equal(want) {
		t.Errorf("chapter 2 start = %v, want %v", entries[1].Start, want)
	}
	if want := created.Add(12*time.Second + 750*time.Millisecond); !entries[1].Stop.Equal(want) {
		t.Errorf("chapter 2 stop = %v, want %v", entries[1].Stop, want)
	}
	if entries[0].Duration != "00:00:10.500000" {
		t.Errorf("duration = %q, want 00:00:10.500000", entries[0].Duration)
	}
}

func TestReconstruct_NegativeDuration(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := Reconstruct([]chapters.Record{
		rec("GX010001.MP4", created, 10, 1, 1),
		rec("GX020001.MP4", created, -3.5, 2, 1),
	})
	if err == nil {
		t.Fatal("expected an error for negative duration")
	}
	if !errors.Is(err, errors.ErrIntegrity) {
		t.Errorf("expected a data-integrity error, got %v", err)
	}
	if !strings.Contains(err.Error(), "GX020001.MP4") {
		t.Errorf("error %q does not name the offending file", err.Error())
	}
}

func TestReconstruct_DuplicateChapterIndex(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := Reconstruct([]chapters.Record{
		rec("GX010001.MP4", created, 10, 1, 1),
		rec("GX010002.MP4", created, 5, 1, 2),
	})
	if err == nil {
		t.Fatal("expected an error for duplicate chapter index")
	}
	if !errors.Is(err, errors.ErrIntegrity) {
		t.Errorf("expected a data-integrity error, got %v", err)
	}
	for _, name := range []string{"GX010001.MP4", "GX010002.MP4"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err.Error(), name)
		}
	}
}

func TestReconstruct_Empty(t *testing.T) {
	entries, err := Reconstruct(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{5, "00:00:05"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{86399, "23:59:59"},
		{90000, "25:00:00"},
		{10.5, "00:00:10.500000"},
		{531.498633, "00:08:51.498633"},
		{0.000001, "00:00:00.000001"},
		{1.9999999, "00:00:02"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatElapsed(tt.seconds); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
