package scanner

import "github.com/reelstitch/reelstitch/internal/chapters"

// Candidate is a chapter file whose name decoded successfully; only
// candidates are probed.
type Candidate struct {
	// Path is the file's path as discovered under the scan root.
	Path string
	// Filename is the base name, what output rows display.
	Filename string
	// Folder is the containing directory relative to the scan root,
	// empty for the root itself.
	Folder string
	// ChapterIndex and SessionIndex come from the decoded name.
	ChapterIndex int
	SessionIndex int
}

// SkippedFile records a file excluded from the timeline and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of one scan: probed records plus everything
// the scan filtered or skipped along the way.
type ScanResult struct {
	// Records are the successfully probed chapter records, in walk order.
	Records []chapters.Record
	// Skipped lists candidates that failed probing, in walk order.
	Skipped []SkippedFile
	// FilesSeen counts every non-hidden file the walker visited.
	FilesSeen int
	// Unparseable counts files whose names did not decode. These are
	// filtered silently, never reported as errors.
	Unparseable int
}

// Progress is a snapshot of scan progress, delivered to the optional
// progress callback.
type Progress struct {
	Phase       ScanPhase
	CurrentItem string
	Current     int
	Total       int
}

// ScanPhase represents the current scan phase.
type ScanPhase string

// Scan phases, in pipeline order. Grouping and reconstruction run after
// the scanner hands its records to the timeline service, which advances
// the same progress stream through the remaining phases.
const (
	PhaseWalking        ScanPhase = "walking"
	PhaseProbing        ScanPhase = "probing"
	PhaseGrouping       ScanPhase = "grouping"
	PhaseReconstructing ScanPhase = "reconstructing"
	PhaseComplete       ScanPhase = "complete"
)
