package analytics

import "time"

// LogLimit caps the number of activity entries kept. Older entries are
// dropped without error.
const LogLimit = 50

// ActivityKind names what happened to a file.
type ActivityKind string

const (
	ActivityUpload   ActivityKind = "upload"
	ActivityDelete   ActivityKind = "delete"
	ActivityStar     ActivityKind = "star"
	ActivityUnstar   ActivityKind = "unstar"
	ActivityShare    ActivityKind = "share"
	ActivityRename   ActivityKind = "rename"
	ActivityMove     ActivityKind = "move"
	ActivityTag      ActivityKind = "tag"
	ActivityReload   ActivityKind = "reload"
	ActivityDownload ActivityKind = "download"
	ActivityView     ActivityKind = "view"
)

type Activity struct {
	Kind     ActivityKind `json:"kind"`
	FileID   string       `json:"file_id,omitempty"`
	FileName string       `json:"file_name,omitempty"`
	Detail   string       `json:"detail,omitempty"`
	At       time.Time    `json:"at"`
}

// Log is a bounded, newest-first list of activity entries.
type Log struct {
	entries []Activity
}

// Push returns a log with e prepended, evicting the oldest entry when full.
func (l Log) Push(e Activity) Log {
	n := len(l.entries) + 1
	if n > LogLimit {
		n = LogLimit
	}
	entries := make([]Activity, n)
	entries[0] = e
	copy(entries[1:], l.entries)
	return Log{entries: entries}
}

func (l Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log, newest first.
func (l Log) Entries() []Activity {
	return append([]Activity(nil), l.entries...)
}
