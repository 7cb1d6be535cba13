package watcher

import "time"

// EventType represents the type of file system event.
type EventType int

const (
	// EventAdded is emitted when a new file is detected (after settling).
	EventAdded EventType = iota
	// EventModified is emitted when an existing file changes (after settling).
	EventModified
	// EventRemoved is emitted when a file is deleted.
	EventRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a settled file system event.
type Event struct {
	// Type is the kind of event (added, modified, removed).
	Type EventType

	// Path is the file path.
	Path string

	// Size is the file size in bytes (zero for removals).
	Size int64

	// ModTime is the file's last modification time (zero for removals).
	ModTime time.Time
}
