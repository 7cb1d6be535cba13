// Package processor reacts to filesystem events by rebuilding the recording timeline.
package processor

import (
	"path/filepath"

	"github.com/reelstitch/reelstitch/internal/chapters"
)

// Relevance says whether a changed path can affect the timeline.
type Relevance int

const (
	// RelevanceChapter is a file whose name decodes as a camera chapter.
	RelevanceChapter Relevance = iota
	// RelevanceDirectory is a directory-level change that may hide chapter
	// files, such as a card folder moved or removed in one operation.
	RelevanceDirectory
	// RelevanceIgnored is everything else: sidecars, thumbnails, proxies,
	// and anything the camera did not produce.
	RelevanceIgnored
)

// String returns the string representation of a Relevance.
func (r Relevance) String() string {
	switch r {
	case RelevanceChapter:
		return "chapter"
	case RelevanceDirectory:
		return "directory"
	case RelevanceIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// classifyPath decides whether a changed path matters to the timeline.
//
// Classification rules:
//   - Chapter: the base name decodes as a camera chapter file.
//   - Directory: no extension at all. Removing or renaming a whole folder
//     arrives as a single event for the folder path, and the path cannot
//     be stat'ed afterwards to tell a directory from a file.
//   - Ignored: everything else (.THM and .LRV sidecars, stills, stray
//     text files).
func classifyPath(path string) Relevance {
	if path == "" {
		return RelevanceIgnored
	}

	base := filepath.Base(path)
	if _, _, ok := chapters.DecodeName(base); ok {
		return RelevanceChapter
	}

	if filepath.Ext(base) == "" {
		return RelevanceDirectory
	}

	return RelevanceIgnored
}
