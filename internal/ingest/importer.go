package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"filehub/internal/core"
	"filehub/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Importer reads local files, reports their progress to a store and adds
// each one when it has been fully read.
type Importer struct {
	store   store.Dispatcher
	workers int
	step    int
	newID   func() string
	now     func() time.Time
	logger  *slog.Logger
}

type ImporterOption func(*Importer)

// WithWorkers sets how many files are read concurrently.
func WithWorkers(n int) ImporterOption {
	return func(im *Importer) { im.workers = n }
}

// WithProgressStep sets the minimum percentage between progress reports.
func WithProgressStep(pct int) ImporterOption {
	return func(im *Importer) { im.step = pct }
}

func WithIDs(newID func() string) ImporterOption {
	return func(im *Importer) { im.newID = newID }
}

func WithImportClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.now = now }
}

func WithImportLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

func NewImporter(st store.Dispatcher, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:   st,
		workers: 4,
		step:    10,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	im.workers = max(im.workers, 1)
	im.step = min(max(im.step, 1), 100)
	return im
}

// Report summarises one import run.
type Report struct {
	Imported []core.File
	// Failed maps local paths to the reason they were not imported.
	Failed map[string]error
}

// Import reads every file of tree. Per-file failures are collected in the
// report and recorded on the upload task; the returned error is set only
// when the run was interrupted by cancellation or a closed store.
func (im *Importer) Import(ctx context.Context, tree *Filetree) (Report, error) {
	files := tree.Flatten()
	report := Report{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	for _, f := range files {
		g.Go(func() error {
			imported, err := im.importOne(gctx, f)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, store.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				report.Failed[f.Path()] = err
			default:
				report.Imported = append(report.Imported, imported)
			}
			return nil
		})
	}

	err := g.Wait()
	slices.SortFunc(report.Imported, func(a, b core.File) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	im.logger.Info("import finished",
		"files", len(files),
		"imported", len(report.Imported),
		"failed", len(report.Failed),
	)
	return report, err
}

func (im *Importer) importOne(ctx context.Context, f *File) (core.File, error) {
	taskID := im.newID()
	task := core.UploadTask{ID: taskID, FileName: f.Name(), Status: core.UploadUploading}
	if err := im.progress(ctx, task); err != nil {
		return core.File{}, err
	}

	sum, info, err := im.hash(ctx, task, f)
	if err != nil {
		im.fail(ctx, task, err)
		return core.File{}, err
	}

	file := core.File{
		ID:         im.newID(),
		Name:       f.Name(),
		Kind:       core.KindFromName(f.Name()),
		Size:       info.Size(),
		ModifiedAt: info.ModTime().UTC(),
		CreatedAt:  im.now().UTC(),
		Path:       f.Folder(),
		Access:     core.AccessPrivate,
		Checksum:   sum,
	}

	if _, err := im.store.Dispatch(ctx, store.CompleteUpload{TaskID: taskID, File: file}); err != nil {
		im.fail(ctx, task, err)
		return core.File{}, err
	}
	im.logger.Debug("file imported", "path", f.Path(), "file_id", file.ID, "size", file.Size)
	return file, nil
}

// hash reads the file once, reporting progress as it goes.
func (im *Importer) hash(ctx context.Context, task core.UploadTask, f *File) (string, os.FileInfo, error) {
	fh, err := os.Open(f.Path())
	if err != nil {
		return "", nil, fmt.Errorf("failed to open file %s: %w", f.Path(), err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat file: %w", err)
	}

	h := sha256.New()
	pw := &progressWriter{
		total: info.Size(),
		step:  im.step,
		report: func(pct int) error {
			t := task
			t.Progress = pct
			return im.progress(ctx, t)
		},
	}
	if _, err := io.Copy(io.MultiWriter(h, pw), &contextReader{ctx: ctx, r: fh}); err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), info, nil
}

func (im *Importer) progress(ctx context.Context, t core.UploadTask) error {
	_, err := im.store.Dispatch(ctx, store.UpdateUploadProgress{Task: t})
	return err
}

// fail records a terminal status for a task that did not complete.
// Cancellation is recorded even though ctx is already done.
func (im *Importer) fail(ctx context.Context, task core.UploadTask, cause error) {
	if errors.Is(cause, store.ErrClosed) {
		return
	}
	bg := context.WithoutCancel(ctx)

	var err error
	if ctx.Err() != nil {
		_, err = im.store.Dispatch(bg, store.CancelUpload{ID: task.ID})
	} else {
		task.Status = core.UploadError
		task.Error = cause.Error()
		err = im.progress(bg, task)
	}
	if err != nil {
		im.logger.Warn("failed to record upload failure", "task_id", task.ID, "error", err)
	}
}

type progressWriter struct {
	total   int64
	written int64
	step    int
	last    int
	report  func(pct int) error
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total <= 0 {
		return len(p), nil
	}
	pct := core.ClampProgress(int(w.written * 100 / w.total))
	if pct-w.last >= w.step || (pct == 100 && w.last < 100) {
		w.last = pct
		if err := w.report(pct); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
