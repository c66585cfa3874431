package store

import (
	"time"

	"filehub/internal/core"
)

// updateUpload records reported progress. Progress never decreases while a
// task is uploading, terminal tasks are frozen and retired ids stay gone.
func (r *Reducer) updateUpload(s State, t core.UploadTask) (State, error) {
	if t.ID == "" {
		return s, &core.ValidationError{Field: "task_id", Value: t.ID, Cause: "must not be empty"}
	}
	if !t.Status.Valid() {
		return s, &core.ValidationError{Field: "status", Value: string(t.Status), Cause: "unknown upload status"}
	}
	if t.Status == core.UploadCompleted {
		r.logger.Warn("upload completion without file ignored", "task_id", t.ID)
		return s, nil
	}
	if s.isRetired(t.ID) {
		r.logger.Warn("progress for dismissed upload ignored", "task_id", t.ID)
		return s, nil
	}

	now := r.now()
	cur, ok := s.uploads[t.ID]
	switch {
	case !ok:
		cur = core.UploadTask{ID: t.ID, StartedAt: t.StartedAt}
		if cur.StartedAt.IsZero() {
			cur.StartedAt = now
		}
	case cur.Status.Terminal():
		r.logger.Debug("progress for finished upload ignored", "task_id", t.ID, "status", cur.Status)
		return s, nil
	}

	if t.FileName != "" {
		cur.FileName = t.FileName
	}
	cur.Progress = max(cur.Progress, core.ClampProgress(t.Progress))
	cur.Status = t.Status
	if t.Status == core.UploadError {
		cur.Error = t.Error
		if cur.Error == "" {
			cur.Error = "upload failed"
		}
	}
	cur.UpdatedAt = now
	return s.putUpload(cur), nil
}

// completeUpload marks the task completed and adds its file in one
// transition. If the file is rejected neither change happens.
func (r *Reducer) completeUpload(s State, a CompleteUpload) (State, error) {
	if a.TaskID == "" {
		return s, &core.ValidationError{Field: "task_id", Value: a.TaskID, Cause: "must not be empty"}
	}
	if s.isRetired(a.TaskID) {
		return s, &core.ValidationError{Field: "task_id", Value: a.TaskID, Cause: "upload was dismissed"}
	}
	cur, ok := s.uploads[a.TaskID]
	if ok && cur.Status.Terminal() {
		return s, &core.ValidationError{Field: "task_id", Value: a.TaskID, Cause: "upload already " + string(cur.Status)}
	}

	next, err := r.addFiles(s, []core.File{a.File})
	if err != nil {
		return s, err
	}

	now := r.now()
	if !ok {
		cur = core.UploadTask{ID: a.TaskID, FileName: a.File.Name, StartedAt: now}
	}
	cur.Status = core.UploadCompleted
	cur.Progress = 100
	cur.Error = ""
	cur.UpdatedAt = now
	return next.putUpload(cur), nil
}

func (r *Reducer) cancelUpload(s State, id string) State {
	cur, ok := s.uploads[id]
	if !ok || cur.Status != core.UploadUploading {
		return s
	}
	cur.Status = core.UploadCancelled
	cur.UpdatedAt = r.now()
	return s.putUpload(cur)
}

func (r *Reducer) dismissUpload(s State, id string) State {
	cur, ok := s.uploads[id]
	if !ok {
		return s
	}
	if !cur.Status.Terminal() {
		r.logger.Warn("cannot dismiss an upload in progress", "task_id", id)
		return s
	}
	return s.dropUploads(map[string]struct{}{id: {}})
}

func (r *Reducer) pruneUploads(s State, before time.Time) State {
	stale := make(map[string]struct{})
	for id, t := range s.uploads {
		if t.Status.Terminal() && t.UpdatedAt.Before(before) {
			stale[id] = struct{}{}
		}
	}
	if len(stale) == 0 {
		return s
	}
	r.logger.Debug("pruned finished uploads", "count", len(stale))
	return s.dropUploads(stale)
}
