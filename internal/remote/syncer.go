package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filehub/internal/core"
	"filehub/internal/store"
)

// Store is the part of store.Store the syncer needs.
type Store interface {
	store.Dispatcher
	State() store.State
}

// Syncer loads a store from the persistence server and forwards local
// mutations to it. Local transitions are applied first; a failed forward
// leaves the local change in place and is reported to the caller.
type Syncer struct {
	remote Persistence
	store  Store
	logger *slog.Logger
}

func NewSyncer(remote Persistence, st Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{remote: remote, store: st, logger: logger}
}

// Load replaces the store's files and folders with the server's.
func (s *Syncer) Load(ctx context.Context) (store.State, error) {
	files, err := s.remote.ListFiles(ctx)
	if err != nil {
		return s.store.State(), fmt.Errorf("load files: %w", err)
	}
	folders, err := s.remote.ListFolders(ctx)
	if err != nil {
		return s.store.State(), fmt.Errorf("load folders: %w", err)
	}

	if _, err := s.store.Dispatch(ctx, store.SetFiles{Files: files}); err != nil {
		return s.store.State(), fmt.Errorf("apply files: %w", err)
	}
	st, err := s.store.Dispatch(ctx, store.SetFolders{Folders: folders})
	if err != nil {
		return st, fmt.Errorf("apply folders: %w", err)
	}

	s.logger.Info("loaded from server", "files", len(files), "folders", len(folders))
	return st, nil
}

// Apply dispatches a and forwards the resulting file changes.
func (s *Syncer) Apply(ctx context.Context, a store.Action) (store.State, error) {
	prev := s.store.State()
	next, err := s.store.Dispatch(ctx, a)
	if err != nil {
		return next, err
	}

	var ferr error
	switch a := a.(type) {
	case store.AddFile:
		next, err = s.create(ctx, a.File.ID, next)
	case store.AddFiles:
		for _, f := range a.Files {
			next, ferr = s.create(ctx, f.ID, next)
			err = errors.Join(err, ferr)
		}
	case store.CompleteUpload:
		next, err = s.create(ctx, a.File.ID, next)
	case store.DeleteFile:
		err = s.delete(ctx, a.ID, prev)
	case store.DeleteSelected:
		for _, id := range prev.Selection() {
			err = errors.Join(err, s.delete(ctx, id, prev))
		}
	case store.ToggleStar:
		next, err = s.update(ctx, a.ID, next)
	case store.ShareFile:
		err = s.share(ctx, a, next)
	case store.RenameFile:
		next, err = s.update(ctx, a.ID, next)
	case store.MoveFile:
		next, err = s.update(ctx, a.ID, next)
	case store.SetTags:
		next, err = s.update(ctx, a.ID, next)
	case store.RecordView:
		next, err = s.update(ctx, a.ID, next)
	case store.RecordDownload:
		next, err = s.update(ctx, a.ID, next)
	}
	return next, err
}

// Dispatch lets a Syncer stand in for the store wherever a
// store.Dispatcher is expected, forwarding every mutation.
func (s *Syncer) Dispatch(ctx context.Context, a store.Action) (store.State, error) {
	return s.Apply(ctx, a)
}

func (s *Syncer) create(ctx context.Context, id string, st store.State) (store.State, error) {
	f, ok := st.File(id)
	if !ok {
		return st, nil
	}
	saved, err := s.remote.CreateFile(ctx, f)
	if err != nil {
		s.logger.Error("failed to create file on server", "file_id", id, "error", err)
		return st, fmt.Errorf("create %s: %w", id, err)
	}
	return s.reconcile(ctx, saved, st), nil
}

func (s *Syncer) update(ctx context.Context, id string, st store.State) (store.State, error) {
	f, ok := st.File(id)
	if !ok {
		return st, nil
	}
	saved, err := s.remote.UpdateFile(ctx, f)
	if err != nil {
		s.logger.Error("failed to update file on server", "file_id", id, "error", err)
		return st, fmt.Errorf("update %s: %w", id, err)
	}
	return s.reconcile(ctx, saved, st), nil
}

// reconcile adopts the server's normalized copy of a file, such as a
// sanitized name or a cleaned folder path. A copy the store rejects is
// logged and the local version kept.
func (s *Syncer) reconcile(ctx context.Context, saved core.File, st store.State) store.State {
	next, err := s.store.Dispatch(ctx, store.ReconcileFile{File: saved})
	if err != nil {
		s.logger.Warn("server copy not applied", "file_id", saved.ID, "error", err)
		return st
	}
	return next
}

func (s *Syncer) share(ctx context.Context, a store.ShareFile, st store.State) error {
	if _, ok := st.File(a.ID); !ok {
		return nil
	}
	if _, err := s.remote.Share(ctx, a.ID, a.Access, ""); err != nil {
		s.logger.Error("failed to share file on server", "file_id", a.ID, "error", err)
		return fmt.Errorf("share %s: %w", a.ID, err)
	}
	return nil
}

// delete forwards a removal of a file that existed before the transition.
// Records the server no longer has are treated as deleted.
func (s *Syncer) delete(ctx context.Context, id string, prev store.State) error {
	if _, ok := prev.File(id); !ok {
		return nil
	}
	err := s.remote.DeleteFile(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Debug("file already gone on server", "file_id", id)
		return nil
	case err != nil:
		s.logger.Error("failed to delete file on server", "file_id", id, "error", err)
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

var (
	_ Persistence      = (*Client)(nil)
	_ Store            = (*store.Store)(nil)
	_ store.Dispatcher = (*Syncer)(nil)
)
