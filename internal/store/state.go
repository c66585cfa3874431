// Package store owns the file collection, selection set, upload tasks and
// analytics of one session. State values are immutable; a Reducer derives
// the next State from an Action and a Store serializes those transitions.
package store

import (
	"maps"
	"time"

	"filehub/internal/analytics"
	"filehub/internal/core"
	"filehub/internal/query"
)

// State is a consistent snapshot. The zero value is not usable; start from
// NewState.
type State struct {
	files     []core.File
	index     map[string]int
	folders   []core.Folder
	selection map[string]struct{}

	uploads     map[string]core.UploadTask
	uploadOrder []string
	retired     map[string]struct{}

	analytics analytics.Analytics
	params    query.Params
	view      core.ViewMode
}

// NewState returns an empty state with the given storage quota.
func NewState(capacity int64) State {
	return State{
		index:     map[string]int{},
		selection: map[string]struct{}{},
		uploads:   map[string]core.UploadTask{},
		retired:   map[string]struct{}{},
		analytics: analytics.New(capacity),
		params:    query.DefaultParams(),
		view:      core.ViewGrid,
	}
}

// Files returns the collection in insertion order.
func (s State) Files() []core.File {
	out := make([]core.File, len(s.files))
	for i, f := range s.files {
		out[i] = f.Clone()
	}
	return out
}

func (s State) File(id string) (core.File, bool) {
	i, ok := s.index[id]
	if !ok {
		return core.File{}, false
	}
	return s.files[i].Clone(), true
}

func (s State) Len() int {
	return len(s.files)
}

func (s State) Folders() []core.Folder {
	return append([]core.Folder(nil), s.folders...)
}

// Selection returns the selected ids in collection order.
func (s State) Selection() []string {
	ids := make([]string, 0, len(s.selection))
	for _, f := range s.files {
		if _, ok := s.selection[f.ID]; ok {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

func (s State) IsSelected(id string) bool {
	_, ok := s.selection[id]
	return ok
}

func (s State) SelectedCount() int {
	return len(s.selection)
}

// Uploads returns tracked tasks in the order they started.
func (s State) Uploads() []core.UploadTask {
	out := make([]core.UploadTask, 0, len(s.uploadOrder))
	for _, id := range s.uploadOrder {
		out = append(out, s.uploads[id])
	}
	return out
}

func (s State) Upload(id string) (core.UploadTask, bool) {
	t, ok := s.uploads[id]
	return t, ok
}

func (s State) Analytics() analytics.Analytics {
	return s.analytics
}

func (s State) Params() query.Params {
	return s.params
}

func (s State) ViewMode() core.ViewMode {
	return s.view
}

func (s State) SearchQuery() string {
	return s.params.Search
}

func (s State) Filter() core.Filter {
	return s.params.Filter
}

func (s State) Sort() (core.SortKey, core.SortDirection) {
	return s.params.Sort, s.params.Direction
}

func (s State) Folder() string {
	return s.params.Folder
}

// Visible runs the query pipeline over the collection with the current
// search, filter, folder and sort settings.
func (s State) Visible() []core.File {
	return query.Run(s.files, s.params)
}

// Snapshot returns the analytics counters together with the highlights
// derived from the current collection.
func (s State) Snapshot(at time.Time) analytics.Snapshot {
	snap := s.analytics.Snapshot(at)
	snap.Highlights = analytics.Highlights{
		Largest:        first(query.Top(s.files, core.SortSize, 1)),
		MostDownloaded: first(query.Top(s.files, core.SortDownloads, 1)),
		MostViewed:     first(query.Top(s.files, core.SortViews, 1)),
		RecentUploads:  query.Recent(s.files, at.Add(-analytics.RecentWindow)),
	}
	return snap
}

func first(files []core.File) *core.File {
	if len(files) == 0 {
		return nil
	}
	return &files[0]
}

// copy-on-write helpers. Each returns fresh backing storage so earlier
// snapshots are never affected.

func (s State) withFiles(files []core.File) State {
	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f.ID] = i
	}
	s.files = files
	s.index = index
	return s
}

func (s State) appendFiles(add ...core.File) State {
	files := make([]core.File, len(s.files), len(s.files)+len(add))
	copy(files, s.files)
	index := maps.Clone(s.index)
	for _, f := range add {
		index[f.ID] = len(files)
		files = append(files, f.Clone())
	}
	s.files = files
	s.index = index
	return s
}

// removeFiles drops every file in ids with a single pass over the collection.
func (s State) removeFiles(ids map[string]struct{}) State {
	files := make([]core.File, 0, len(s.files)-len(ids))
	index := make(map[string]int, len(s.files)-len(ids))
	for _, f := range s.files {
		if _, drop := ids[f.ID]; drop {
			continue
		}
		index[f.ID] = len(files)
		files = append(files, f)
	}
	s.files = files
	s.index = index
	return s
}

func (s State) replaceFile(f core.File) State {
	files := append([]core.File(nil), s.files...)
	files[s.index[f.ID]] = f
	s.files = files
	return s
}

func (s State) withSelection(sel map[string]struct{}) State {
	s.selection = sel
	return s
}

func (s State) copySelection() map[string]struct{} {
	sel := make(map[string]struct{}, len(s.selection)+1)
	for id := range s.selection {
		sel[id] = struct{}{}
	}
	return sel
}

func (s State) putUpload(t core.UploadTask) State {
	uploads := make(map[string]core.UploadTask, len(s.uploads)+1)
	for id, u := range s.uploads {
		uploads[id] = u
	}
	if _, ok := uploads[t.ID]; !ok {
		s.uploadOrder = append(append([]string(nil), s.uploadOrder...), t.ID)
	}
	uploads[t.ID] = t
	s.uploads = uploads
	return s
}

// dropUploads removes the given tasks and retires their ids.
func (s State) dropUploads(ids map[string]struct{}) State {
	uploads := make(map[string]core.UploadTask, len(s.uploads))
	order := make([]string, 0, len(s.uploadOrder))
	for _, id := range s.uploadOrder {
		if _, drop := ids[id]; drop {
			continue
		}
		uploads[id] = s.uploads[id]
		order = append(order, id)
	}
	retired := make(map[string]struct{}, len(s.retired)+len(ids))
	for id := range s.retired {
		retired[id] = struct{}{}
	}
	for id := range ids {
		retired[id] = struct{}{}
	}
	s.uploads, s.uploadOrder, s.retired = uploads, order, retired
	return s
}

func (s State) isRetired(id string) bool {
	_, ok := s.retired[id]
	return ok
}
