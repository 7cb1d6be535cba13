// Package timeline reconstructs recording-session timelines from chapter
// records.
//
// Cameras split long recordings into chapter files and commonly stamp every
// chapter of a session with the same (or a rounded) creation time, so a
// chapter's own timestamp is only trustworthy for the session's first file.
// This package groups chapters into sessions by that shared stamp and then
// derives each chapter's real start and stop by chaining durations.
package timeline

import "time"

// Entry is the corrected timeline for one chapter file. Entries are
// immutable once produced and consumed only by output sinks.
type Entry struct {
	Filename string    `json:"filename"`
	Start    time.Time `json:"start_time"`
	Stop     time.Time `json:"stop_time"`
	// Duration is the elapsed form of the chapter's duration, HH:MM:SS
	// with microseconds appended when fractional.
	Duration string `json:"duration"`
	Chapter  int    `json:"chapter"`
	Session  int    `json:"session"`
	Folder   string `json:"folder"`
}

// SessionKey identifies a recording session: the embedded creation time
// truncated to whole seconds, held as a UTC Unix second so grouping never
// depends on string formatting or locale.
type SessionKey int64

// KeyFor truncates a creation time to its session key.
func KeyFor(t time.Time) SessionKey {
	return SessionKey(t.Unix())
}

// Time returns the key's truncated timestamp in UTC.
func (k SessionKey) Time() time.Time {
	return time.Unix(int64(k), 0).UTC()
}

// String renders the key the way session stamps read in output.
func (k SessionKey) String() string {
	return k.Time().Format("2006-01-02 15:04:05")
}
