package store

import (
	"time"

	"filehub/internal/core"
)

// Action is a state transition request. The set is closed: only types in
// this package implement it.
type Action interface {
	actionName() string
}

// Collection loading.
type (
	// SetFiles replaces the whole collection and recomputes analytics.
	SetFiles   struct{ Files []core.File }
	SetFolders struct{ Folders []core.Folder }
	// AddFile fails with a ValidationError when the id is already present.
	AddFile struct{ File core.File }
	// AddFiles adds every file or none of them.
	AddFiles struct{ Files []core.File }
	// DeleteFile is a no-op for unknown ids.
	DeleteFile     struct{ ID string }
	DeleteSelected struct{}
	// ReconcileFile overwrites a stored file with the persisted copy of it.
	// Unknown ids are ignored and no activity is recorded.
	ReconcileFile struct{ File core.File }
)

// Selection.
type (
	// ToggleSelection flips one id in the selection. Ids not in the
	// collection are ignored rather than selected.
	ToggleSelection struct{ ID string }
	ClearSelection  struct{}
	// SelectAll selects exactly the currently visible files.
	SelectAll struct{}
)

// View settings. Unrecognised values fall back to defaults.
type (
	SetViewMode    struct{ Mode core.ViewMode }
	SetSearchQuery struct{ Query string }
	SetFilter      struct{ Filter core.Filter }
	SetSort        struct {
		Key       core.SortKey
		Direction core.SortDirection
	}
	SetFolder struct{ Path string }
)

// Upload tracking.
type (
	// UpdateUploadProgress upserts a task reported by the transport.
	// Completion is reported through CompleteUpload instead.
	UpdateUploadProgress struct{ Task core.UploadTask }
	// CompleteUpload marks the task completed and adds File in one step.
	CompleteUpload struct {
		TaskID string
		File   core.File
	}
	CancelUpload  struct{ ID string }
	DismissUpload struct{ ID string }
	// PruneUploads drops terminal tasks last updated before Before.
	PruneUploads struct{ Before time.Time }
)

// Single-file edits.
type (
	ToggleStar struct{ ID string }
	ShareFile  struct {
		ID     string
		Access core.AccessLevel
	}
	RenameFile struct {
		ID   string
		Name string
	}
	MoveFile struct {
		ID   string
		Path string
	}
	SetTags struct {
		ID   string
		Tags []string
	}
	RecordView     struct{ ID string }
	RecordDownload struct{ ID string }
)

func (SetFiles) actionName() string             { return "set_files" }
func (SetFolders) actionName() string           { return "set_folders" }
func (AddFile) actionName() string              { return "add_file" }
func (AddFiles) actionName() string             { return "add_files" }
func (DeleteFile) actionName() string           { return "delete_file" }
func (DeleteSelected) actionName() string       { return "delete_selected" }
func (ReconcileFile) actionName() string        { return "reconcile_file" }
func (ToggleSelection) actionName() string      { return "toggle_selection" }
func (ClearSelection) actionName() string       { return "clear_selection" }
func (SelectAll) actionName() string            { return "select_all" }
func (SetViewMode) actionName() string          { return "set_view_mode" }
func (SetSearchQuery) actionName() string       { return "set_search_query" }
func (SetFilter) actionName() string            { return "set_filter" }
func (SetSort) actionName() string              { return "set_sort" }
func (SetFolder) actionName() string            { return "set_folder" }
func (UpdateUploadProgress) actionName() string { return "update_upload_progress" }
func (CompleteUpload) actionName() string       { return "complete_upload" }
func (CancelUpload) actionName() string         { return "cancel_upload" }
func (DismissUpload) actionName() string        { return "dismiss_upload" }
func (PruneUploads) actionName() string         { return "prune_uploads" }
func (ToggleStar) actionName() string           { return "toggle_star" }
func (ShareFile) actionName() string            { return "share_file" }
func (RenameFile) actionName() string           { return "rename_file" }
func (MoveFile) actionName() string             { return "move_file" }
func (SetTags) actionName() string              { return "set_tags" }
func (RecordView) actionName() string           { return "record_view" }
func (RecordDownload) actionName() string       { return "record_download" }

// Name returns the log name of an action.
func Name(a Action) string {
	return a.actionName()
}
