// Package chapters models camera chapter files: physical MP4 segments a
// camera splits a single recording into, named by a fixed convention.
package chapters

import (
	"regexp"
	"strconv"
)

// chapterName is the camera naming convention for chaptered recordings:
// two uppercase letters, a 2-digit chapter index, a 4-digit file number,
// and an uppercase .MP4 extension (GX010153.MP4, GH020042.MP4). The match
// is unanchored so renamed copies like backup-GX010153.MP4 still decode;
// extension case and digit counts are strict.
var chapterName = regexp.MustCompile(`[A-Z]{2}(\d{2})(\d{4})\.MP4`)

// DecodeName extracts the chapter and session indices from a filename.
// ok is false for names outside the convention; those files are excluded
// from processing entirely, never repaired.
func DecodeName(name string) (chapter, session int, ok bool) {
	m := chapterName.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}

	// Digit counts are fixed by the pattern, so Atoi cannot fail.
	chapter, _ = strconv.Atoi(m[1])
	session, _ = strconv.Atoi(m[2])
	return chapter, session, true
}
