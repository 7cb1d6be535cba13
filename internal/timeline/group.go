package timeline

import (
	"github.com/reelstitch/reelstitch/internal/chapters"
)

// Grouping buckets chapter records by session. Keys keep first-encounter
// order so downstream output is deterministic for a given input order.
type Grouping struct {
	keys    []SessionKey
	records map[SessionKey][]chapters.Record
}

// GroupSessions buckets records by their creation time truncated to whole
// seconds. Chapters of one session are assumed to share the same truncated
// stamp; records differing by even one second land in distinct sessions.
// Every record lands in exactly one bucket and single-chapter sessions are
// normal. Pure function: the input slice is never modified.
func GroupSessions(records []chapters.Record) *Grouping {
	g := &Grouping{
		records: make(map[SessionKey][]chapters.Record),
	}

	for _, rec := range records {
		key := KeyFor(rec.CreationTime)
		if _, seen := g.records[key]; !seen {
			g.keys = append(g.keys, key)
		}
		g.records[key] = append(g.records[key], rec)
	}

	return g
}

// Keys returns the session keys in first-encounter order.
func (g *Grouping) Keys() []SessionKey {
	return g.keys
}

// Records returns the chapter records grouped under key.
func (g *Grouping) Records(key SessionKey) []chapters.Record {
	return g.records[key]
}

// Len returns the number of sessions.
func (g *Grouping) Len() int {
	return len(g.keys)
}
