package store

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"filehub/internal/analytics"
	"filehub/internal/core"
)

// Reducer computes state transitions. Apart from the injected clock it is a
// pure function of its inputs.
type Reducer struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewReducer creates a reducer. A nil clock uses time.Now and a nil logger
// uses slog.Default.
func NewReducer(now func() time.Time, logger *slog.Logger) *Reducer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{now: now, logger: logger}
}

// Reduce applies action to s. On error the returned state is s unchanged;
// the only errors are *core.ValidationError values.
func (r *Reducer) Reduce(s State, action Action) (State, error) {
	switch a := action.(type) {

	// ===== COLLECTION =====

	case SetFiles:
		return r.setFiles(s, a.Files)

	case SetFolders:
		return r.setFolders(s, a.Folders)

	case AddFile:
		return r.addFiles(s, []core.File{a.File})

	case AddFiles:
		return r.addFiles(s, a.Files)

	case DeleteFile:
		if _, ok := s.index[a.ID]; !ok {
			r.logger.Debug("delete of unknown file ignored", "file_id", a.ID)
			return s, nil
		}
		return r.deleteFiles(s, []string{a.ID}), nil

	case DeleteSelected:
		return r.deleteFiles(s, s.Selection()), nil

	case ReconcileFile:
		return r.reconcile(s, a.File)

	// ===== SELECTION =====

	case ToggleSelection:
		return r.toggleSelection(s, a.ID), nil

	case ClearSelection:
		return s.withSelection(map[string]struct{}{}), nil

	case SelectAll:
		return r.selectAll(s), nil

	// ===== VIEW =====

	case SetViewMode:
		mode := a.Mode
		if !mode.Valid() {
			r.logger.Warn("unknown view mode, using grid", "mode", a.Mode)
			mode = core.ViewGrid
		}
		s.view = mode
		return s, nil

	case SetSearchQuery:
		s.params.Search = a.Query
		return s, nil

	case SetFilter:
		filter := a.Filter
		if filter == "" {
			filter = core.FilterAll
		}
		if !filter.Valid() {
			r.logger.Warn("unknown filter, showing all", "filter", a.Filter)
			filter = core.FilterAll
		}
		s.params.Filter = filter
		return s, nil

	case SetSort:
		key, dir := a.Key, a.Direction
		switch {
		case !key.Valid():
			r.logger.Warn("unknown sort key, using default", "key", a.Key)
			key, dir = core.DefaultSortKey, core.DefaultSortDirection
		case !dir.Valid():
			dir = core.DefaultSortDirection
		}
		s.params.Sort, s.params.Direction = key, dir
		return s, nil

	case SetFolder:
		s.params.Folder = a.Path
		return s, nil

	// ===== UPLOADS =====

	case UpdateUploadProgress:
		return r.updateUpload(s, a.Task)

	case CompleteUpload:
		return r.completeUpload(s, a)

	case CancelUpload:
		return r.cancelUpload(s, a.ID), nil

	case DismissUpload:
		return r.dismissUpload(s, a.ID), nil

	case PruneUploads:
		return r.pruneUploads(s, a.Before), nil

	// ===== FILE EDITS =====

	case ToggleStar:
		kind := analytics.ActivityStar
		if i, ok := s.index[a.ID]; ok && s.files[i].Starred {
			kind = analytics.ActivityUnstar
		}
		return r.update(s, a.ID, kind, "", func(f *core.File) {
			f.Starred = !f.Starred
		}), nil

	case ShareFile:
		if !a.Access.Valid() {
			return s, &core.ValidationError{Field: "access_level", Value: string(a.Access), Cause: "unknown access level"}
		}
		return r.update(s, a.ID, analytics.ActivityShare, string(a.Access), func(f *core.File) {
			f.Access = a.Access
			f.Shared = a.Access != core.AccessPrivate
		}), nil

	case RenameFile:
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return s, &core.ValidationError{Field: "name", Value: a.Name, Cause: "must not be empty"}
		}
		now := r.now()
		return r.update(s, a.ID, analytics.ActivityRename, name, func(f *core.File) {
			f.Name = name
			f.ModifiedAt = now
		}), nil

	case MoveFile:
		if a.Path == "" {
			return s, &core.ValidationError{Field: "path", Value: a.Path, Cause: "must not be empty"}
		}
		now := r.now()
		return r.update(s, a.ID, analytics.ActivityMove, a.Path, func(f *core.File) {
			f.Path = a.Path
			f.ModifiedAt = now
		}), nil

	case SetTags:
		tags := core.NormalizeTags(a.Tags)
		now := r.now()
		return r.update(s, a.ID, analytics.ActivityTag, strings.Join(tags, ","), func(f *core.File) {
			f.Tags = tags
			f.ModifiedAt = now
		}), nil

	case RecordView:
		return r.update(s, a.ID, analytics.ActivityView, "", func(f *core.File) {
			f.Views++
		}), nil

	case RecordDownload:
		return r.update(s, a.ID, analytics.ActivityDownload, "", func(f *core.File) {
			f.Downloads++
		}), nil
	}

	return s, &core.ValidationError{Field: "action", Value: fmt.Sprintf("%T", action), Cause: "unsupported action"}
}

func (r *Reducer) setFiles(s State, files []core.File) (State, error) {
	seen := make(map[string]struct{}, len(files))
	next := make([]core.File, 0, len(files))
	for _, f := range files {
		if err := f.Validate(); err != nil {
			return s, err
		}
		if _, dup := seen[f.ID]; dup {
			return s, duplicateID(f.ID)
		}
		seen[f.ID] = struct{}{}
		next = append(next, f.Clone())
	}

	sel := make(map[string]struct{}, len(s.selection))
	for id := range s.selection {
		if _, ok := seen[id]; ok {
			sel[id] = struct{}{}
		}
	}

	s = s.withFiles(next).withSelection(sel)
	s.analytics = s.analytics.Recompute(next).Record(analytics.Activity{
		Kind:   analytics.ActivityReload,
		Detail: fmt.Sprintf("%d files", len(next)),
		At:     r.now(),
	})
	return s, nil
}

func (r *Reducer) setFolders(s State, folders []core.Folder) (State, error) {
	seen := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		if err := f.Validate(); err != nil {
			return s, err
		}
		if _, dup := seen[f.ID]; dup {
			return s, duplicateID(f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	s.folders = append([]core.Folder(nil), folders...)
	s.analytics = s.analytics.WithFolders(folders)
	return s, nil
}

func (r *Reducer) addFiles(s State, files []core.File) (State, error) {
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if err := f.Validate(); err != nil {
			return s, err
		}
		_, exists := s.index[f.ID]
		_, dup := seen[f.ID]
		if exists || dup {
			return s, duplicateID(f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	if len(files) == 0 {
		return s, nil
	}

	s = s.appendFiles(files...)
	at := r.now()
	a := s.analytics
	for _, f := range files {
		a = a.Add(f).Record(analytics.Activity{Kind: analytics.ActivityUpload, FileID: f.ID, FileName: f.Name, At: at})
	}
	s.analytics = a
	return s, nil
}

// deleteFiles removes every listed file that exists, retracting it from the
// selection and the analytics in the same transition.
func (r *Reducer) deleteFiles(s State, ids []string) State {
	if len(ids) == 0 {
		return s
	}
	removed := make(map[string]struct{}, len(ids))
	at := r.now()
	a := s.analytics
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		if _, dup := removed[id]; dup {
			continue
		}
		removed[id] = struct{}{}
		f := s.files[i]
		a = a.Remove(f).Record(analytics.Activity{Kind: analytics.ActivityDelete, FileID: f.ID, FileName: f.Name, At: at})
	}
	if len(removed) == 0 {
		return s
	}

	sel := s.copySelection()
	for id := range removed {
		delete(sel, id)
	}
	s = s.removeFiles(removed).withSelection(sel)
	s.analytics = a
	return s
}

// reconcile replaces a file with its persisted form, keeping analytics in
// step but leaving the activity log alone.
func (r *Reducer) reconcile(s State, f core.File) (State, error) {
	i, ok := s.index[f.ID]
	if !ok {
		r.logger.Debug("reconcile of unknown file ignored", "file_id", f.ID)
		return s, nil
	}
	if err := f.Validate(); err != nil {
		return s, err
	}
	before := s.files[i]
	after := f.Clone()
	s = s.replaceFile(after)
	s.analytics = s.analytics.Replace(before, after)
	return s, nil
}

// update applies change to a copy of the file with id. Unknown ids leave s
// unchanged.
func (r *Reducer) update(s State, id string, kind analytics.ActivityKind, detail string, change func(*core.File)) State {
	i, ok := s.index[id]
	if !ok {
		r.logger.Debug("edit of unknown file ignored", "file_id", id, "activity", kind)
		return s
	}
	before := s.files[i]
	after := before.Clone()
	change(&after)

	s = s.replaceFile(after)
	s.analytics = s.analytics.Replace(before, after).Record(analytics.Activity{
		Kind:     kind,
		FileID:   id,
		FileName: after.Name,
		Detail:   detail,
		At:       r.now(),
	})
	return s
}

func duplicateID(id string) error {
	return &core.ValidationError{Field: "id", Value: id, Cause: "already exists", Err: core.ErrDuplicateID}
}
