// Package analytics maintains storage usage counters as a side effect of
// single-file transitions, so reading them never rescans the collection.
//
// Values are immutable: every method returns an updated copy and leaves the
// receiver untouched.
package analytics

import (
	"time"

	"filehub/internal/core"
)

// DefaultCapacity is the storage quota used when none is configured (100 GB).
const DefaultCapacity int64 = 100 * 1024 * 1024 * 1024

// RecentWindow is how far back an upload counts as recent.
const RecentWindow = 7 * 24 * time.Hour

// Usage is the count and byte total of one content kind.
type Usage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Analytics is an aggregate over the live file and folder collections.
type Analytics struct {
	Capacity      int64
	Used          int64
	Files         int
	Folders       int
	SharedFiles   int
	SharedFolders int

	byKind map[core.Kind]Usage
	log    Log
}

// New returns empty analytics for the given quota. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int64) Analytics {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return Analytics{Capacity: capacity}
}

// Add accounts for a file entering the collection.
func (a Analytics) Add(f core.File) Analytics {
	a.Used += f.Size
	a.Files++
	if f.Shared {
		a.SharedFiles++
	}
	a.byKind = a.adjustKind(f.Kind, 1, f.Size)
	return a
}

// Remove accounts for a file leaving the collection.
func (a Analytics) Remove(f core.File) Analytics {
	a.Used -= f.Size
	a.Files--
	if f.Shared {
		a.SharedFiles--
	}
	a.byKind = a.adjustKind(f.Kind, -1, -f.Size)
	return a
}

// Replace accounts for an in-place change of a file that stays in the
// collection (share flag, kind or size).
func (a Analytics) Replace(before, after core.File) Analytics {
	if before.Shared == after.Shared && before.Kind == after.Kind && before.Size == after.Size {
		return a
	}
	return a.Remove(before).Add(after)
}

// WithFolders replaces the folder counters.
func (a Analytics) WithFolders(folders []core.Folder) Analytics {
	a.Folders = len(folders)
	a.SharedFolders = 0
	for _, f := range folders {
		if f.Shared {
			a.SharedFolders++
		}
	}
	return a
}

// Recompute rebuilds the file counters from scratch. It is used for bulk
// loads only; the activity log and folder counters are preserved.
func (a Analytics) Recompute(files []core.File) Analytics {
	a.Used, a.Files, a.SharedFiles = 0, 0, 0
	a.byKind = nil
	byKind := make(map[core.Kind]Usage, len(core.Kinds))
	for _, f := range files {
		a.Used += f.Size
		a.Files++
		if f.Shared {
			a.SharedFiles++
		}
		u := byKind[f.Kind]
		u.Files++
		u.Bytes += f.Size
		byKind[f.Kind] = u
	}
	if len(byKind) > 0 {
		a.byKind = byKind
	}
	return a
}

// Record prepends an entry to the activity log.
func (a Analytics) Record(e Activity) Analytics {
	a.log = a.log.Push(e)
	return a
}

// Activity returns the recent activity, newest first.
func (a Analytics) Activity() []Activity {
	return a.log.Entries()
}

// ByKind returns usage per content kind. Kinds without files are omitted.
func (a Analytics) ByKind() map[core.Kind]Usage {
	out := make(map[core.Kind]Usage, len(a.byKind))
	for k, u := range a.byKind {
		out[k] = u
	}
	return out
}

// SharedItems counts shared files and shared folders.
func (a Analytics) SharedItems() int {
	return a.SharedFiles + a.SharedFolders
}

// Free returns the remaining quota; it is negative when over quota.
func (a Analytics) Free() int64 {
	return a.Capacity - a.Used
}

// AvgSize is the mean file size in bytes, zero for an empty collection.
func (a Analytics) AvgSize() int64 {
	if a.Files <= 0 {
		return 0
	}
	return a.Used / int64(a.Files)
}

// UsagePercent returns used storage as a percentage of capacity.
func (a Analytics) UsagePercent() float64 {
	if a.Capacity <= 0 {
		return 0
	}
	return float64(a.Used) / float64(a.Capacity) * 100
}

func (a Analytics) adjustKind(k core.Kind, files int, bytes int64) map[core.Kind]Usage {
	out := make(map[core.Kind]Usage, len(a.byKind)+1)
	for kind, u := range a.byKind {
		out[kind] = u
	}
	u := out[k]
	u.Files += files
	u.Bytes += bytes
	if u.Files <= 0 {
		delete(out, k)
	} else {
		out[k] = u
	}
	return out
}

// Highlights are rankings over the collection. Unlike the counters they
// are derived on read by the caller that holds the files.
type Highlights struct {
	Largest        *core.File  `json:"largest,omitempty"`
	MostDownloaded *core.File  `json:"most_downloaded,omitempty"`
	MostViewed     *core.File  `json:"most_viewed,omitempty"`
	RecentUploads  []core.File `json:"recent_uploads"`
}

// Snapshot is the serialisable view of Analytics handed to presentation code.
type Snapshot struct {
	Capacity     int64               `json:"capacity"`
	Used         int64               `json:"used"`
	Free         int64               `json:"free"`
	UsagePercent float64             `json:"usage_percent"`
	Files        int                 `json:"files"`
	Folders      int                 `json:"folders"`
	SharedItems  int                 `json:"shared_items"`
	AvgSize      int64               `json:"avg_size"`
	ByKind       map[core.Kind]Usage `json:"by_kind"`
	Highlights   Highlights          `json:"highlights"`
	Activity     []Activity          `json:"activity"`
	TakenAt      time.Time           `json:"taken_at"`
}

// Snapshot captures the counters. Highlights are left empty.
func (a Analytics) Snapshot(at time.Time) Snapshot {
	return Snapshot{
		Capacity:     a.Capacity,
		Used:         a.Used,
		Free:         a.Free(),
		UsagePercent: a.UsagePercent(),
		Files:        a.Files,
		Folders:      a.Folders,
		SharedItems:  a.SharedItems(),
		AvgSize:      a.AvgSize(),
		ByKind:       a.ByKind(),
		Activity:     a.Activity(),
		TakenAt:      at,
	}
}
