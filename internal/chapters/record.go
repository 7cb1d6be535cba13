package chapters

import "time"

// Record is one physical chapter file with its probed metadata. A Record
// only exists for filenames DecodeName accepts; there are no partial or
// placeholder records.
type Record struct {
	// Filename is the original file name, without any directory part.
	Filename string `json:"filename" validate:"required"`
	// Folder is the directory path relative to the scan root, empty for
	// files in the root itself.
	Folder string `json:"folder"`
	// CreationTime is the timestamp embedded by the camera, authoritative
	// only for a session's first chapter.
	CreationTime time.Time `json:"creation_time" validate:"required"`
	// DurationSeconds is authoritative for every chapter.
	DurationSeconds float64 `json:"duration_seconds" validate:"gte=0"`
	// ChapterIndex is the 2-digit sequence position within a session.
	ChapterIndex int `json:"chapter_index" validate:"gte=0,lte=99"`
	// SessionIndex is the 4-digit file number, carried through for display
	// and never used for grouping.
	SessionIndex int `json:"session_index" validate:"gte=0,lte=9999"`
}
