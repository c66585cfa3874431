package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"filehub/internal/core"
	"filehub/internal/server/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound         = errors.New("file not found")
	ErrAlreadyExists    = errors.New("file already exists")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidFile      = errors.New("invalid file")
	ErrQuotaExceeded    = errors.New("storage quota exceeded")
	ErrFileTooLarge     = errors.New("file too large")
)

const (
	maxNameBytes = 255
	maxExtBytes  = 32
)

// Repository is the persistence used by FileService. Both
// database.Repository and database.MemoryRepository satisfy it.
type Repository interface {
	Create(ctx context.Context, rec *database.FileRecord) error
	GetByID(ctx context.Context, id string) (*database.FileRecord, error)
	List(ctx context.Context) ([]*database.FileRecord, error)
	Update(ctx context.Context, rec *database.FileRecord) error
	SetShare(ctx context.Context, id string, access core.AccessLevel, passwordHash *string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	IncrementDownloadCount(ctx context.Context, id string) error
	EnsureFolder(ctx context.Context, folderPath string, at time.Time) error
	ListFolders(ctx context.Context) ([]core.Folder, error)
	GetStats(ctx context.Context) (*database.Stats, error)
}

var (
	_ Repository = (*database.Repository)(nil)
	_ Repository = (*database.MemoryRepository)(nil)
)

// FileService contains the business logic for file metadata.
type FileService struct {
	repo        Repository
	capacity    int64
	maxFileSize int64
	now         func() time.Time
}

type Option func(*FileService)

// WithMaxFileSize limits the size of a single file. Zero means no limit.
func WithMaxFileSize(bytes int64) Option {
	return func(s *FileService) { s.maxFileSize = bytes }
}

// NewFileService creates a file service. A capacity of zero disables the
// storage quota.
func NewFileService(repo Repository, capacity int64, opts ...Option) *FileService {
	s := &FileService{
		repo:     repo,
		capacity: capacity,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every live file.
func (s *FileService) List(ctx context.Context) ([]core.File, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	files := make([]core.File, 0, len(recs))
	for _, rec := range recs {
		files = append(files, rec.File)
	}
	return files, nil
}

func (s *FileService) Get(ctx context.Context, id string) (core.File, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return core.File{}, err
	}
	return rec.File, nil
}

// Create stores a new file record. Missing id, kind, path, access level and
// timestamps are filled in; the result is validated before it is stored.
func (s *FileService) Create(ctx context.Context, f core.File) (core.File, error) {
	now := s.now()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.Name = sanitizeFilename(f.Name)
	if f.Kind == "" {
		f.Kind = core.KindFromName(f.Name)
	}
	if f.Access == "" {
		f.Access = core.AccessPrivate
	}
	f.Shared = f.Access != core.AccessPrivate
	f.Path = cleanFolderPath(f.Path)
	f.Tags = core.NormalizeTags(f.Tags)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.ModifiedAt.IsZero() {
		f.ModifiedAt = f.CreatedAt
	}
	if err := s.validate(f); err != nil {
		return core.File{}, err
	}

	if s.capacity > 0 {
		stats, err := s.repo.GetStats(ctx)
		if err != nil {
			return core.File{}, err
		}
		if stats.TotalBytes+f.Size > s.capacity {
			return core.File{}, fmt.Errorf("%w: %s used of %s, %s requested", ErrQuotaExceeded,
				core.FormatSize(stats.TotalBytes), core.FormatSize(s.capacity), core.FormatSize(f.Size))
		}
	}

	if err := s.ensureFolder(ctx, f.Path, now); err != nil {
		return core.File{}, err
	}

	rec := &database.FileRecord{File: f, UpdatedAt: now}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, database.ErrFileExists) {
			return core.File{}, ErrAlreadyExists
		}
		return core.File{}, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file created",
		"id", f.ID,
		"name", f.Name,
		"kind", f.Kind,
		"size", f.Size,
		"path", f.Path,
	)
	return f, nil
}

// Update replaces the metadata of an existing file. Share settings and the
// creation time are kept from the stored record.
func (s *FileService) Update(ctx context.Context, f core.File) (core.File, error) {
	cur, err := s.get(ctx, f.ID)
	if err != nil {
		return core.File{}, err
	}

	now := s.now()
	f.Name = sanitizeFilename(f.Name)
	if f.Kind == "" {
		f.Kind = cur.Kind
	}
	f.Path = cleanFolderPath(f.Path)
	f.Tags = core.NormalizeTags(f.Tags)
	f.Access = cur.Access
	f.Shared = cur.Shared
	f.CreatedAt = cur.CreatedAt
	if f.ModifiedAt.IsZero() {
		f.ModifiedAt = now
	}
	if err := s.validate(f); err != nil {
		return core.File{}, err
	}

	if s.capacity > 0 && f.Size > cur.Size {
		stats, err := s.repo.GetStats(ctx)
		if err != nil {
			return core.File{}, err
		}
		if stats.TotalBytes-cur.Size+f.Size > s.capacity {
			return core.File{}, ErrQuotaExceeded
		}
	}

	if f.Path != cur.Path {
		if err := s.ensureFolder(ctx, f.Path, now); err != nil {
			return core.File{}, err
		}
	}

	if err := s.repo.Update(ctx, &database.FileRecord{File: f, UpdatedAt: now}); err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return core.File{}, ErrNotFound
		}
		return core.File{}, fmt.Errorf("failed to update file record: %w", err)
	}

	slog.Info("file updated", "id", f.ID, "name", f.Name, "path", f.Path)
	return f, nil
}

// Delete moves a file to the trash. It is purged after the retention
// period.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	slog.Info("file deleted", "id", id)
	return nil
}

// Share sets the access level of a file. A non-empty password protects
// shared access; making a file private clears any password.
func (s *FileService) Share(ctx context.Context, id string, access core.AccessLevel, password string) (core.File, error) {
	if !access.Valid() {
		return core.File{}, fmt.Errorf("%w: unknown access level %q", ErrInvalidFile, access)
	}

	var passwordHash *string
	if password != "" && access != core.AccessPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return core.File{}, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	if err := s.repo.SetShare(ctx, id, access, passwordHash, s.now()); err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return core.File{}, ErrNotFound
		}
		return core.File{}, fmt.Errorf("failed to update share settings: %w", err)
	}

	slog.Info("file shared", "id", id, "access_level", access, "has_password", passwordHash != nil)
	return s.Get(ctx, id)
}

// OpenShared returns a shared file, checking its password if one is set,
// and counts the access as a download. Private files are reported as not
// found.
func (s *FileService) OpenShared(ctx context.Context, id string, password string) (core.File, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return core.File{}, err
	}
	if !rec.Shared {
		return core.File{}, ErrNotFound
	}

	if rec.PasswordHash != nil {
		if password == "" {
			return core.File{}, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*rec.PasswordHash), []byte(password)); err != nil {
			return core.File{}, ErrInvalidPassword
		}
	}

	// best-effort, don't fail the access
	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		slog.Error("failed to increment download count", "id", id, "error", err)
	} else {
		rec.Downloads++
	}
	return rec.File, nil
}

func (s *FileService) ListFolders(ctx context.Context) ([]core.Folder, error) {
	return s.repo.ListFolders(ctx)
}

// GetStats returns aggregate server statistics.
func (s *FileService) GetStats(ctx context.Context) (*database.Stats, error) {
	return s.repo.GetStats(ctx)
}

// Capacity is the storage quota in bytes, zero when unlimited.
func (s *FileService) Capacity() int64 {
	return s.capacity
}

// --- Helpers ---

func (s *FileService) get(ctx context.Context, id string) (*database.FileRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ensureFolder records the folder and each of its ancestors.
func (s *FileService) ensureFolder(ctx context.Context, dir string, at time.Time) error {
	for dir != "/" {
		if err := s.repo.EnsureFolder(ctx, dir, at); err != nil {
			return err
		}
		dir = path.Dir(dir)
	}
	return nil
}

func (s *FileService) validate(f core.File) error {
	if f.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidFile)
	}
	if !utf8.ValidString(f.Name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidFile)
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if err := f.CheckSize(s.maxFileSize); err != nil {
		return fmt.Errorf("%w: %w", ErrFileTooLarge, err)
	}
	return nil
}

// sanitizeFilename strips directory components and limits length.
// Names that reduce to nothing come back empty.
func sanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if strings.Trim(name, "/") == "" {
		return ""
	}

	name = filepath.Base(name)

	if len(name) > maxNameBytes {
		ext := filepath.Ext(name)
		if len(ext) > maxExtBytes {
			ext = ""
		}
		name = truncateUTF8(strings.TrimSuffix(name, ext), maxNameBytes-len(ext)) + ext
	}

	if name == "." || name == ".." {
		return ""
	}
	return name
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// cleanFolderPath returns an absolute, slash-separated folder path.
func cleanFolderPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return path.Clean("/" + p)
}
