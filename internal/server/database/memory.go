package database

import (
	"cmp"
	"context"
	"path"
	"slices"
	"sync"
	"time"

	"filehub/internal/core"

	"github.com/google/uuid"
)

// MemoryURL selects the in-memory repository instead of PostgreSQL.
const MemoryURL = "memory"

// MemoryRepository keeps records in process memory. It follows the same
// soft-delete and folder aggregation rules as Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	files   map[string]*FileRecord
	folders map[string]core.Folder
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		files:   make(map[string]*FileRecord),
		folders: make(map[string]core.Folder),
	}
}

func (m *MemoryRepository) Create(_ context.Context, rec *FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[rec.ID]; ok {
		return ErrFileExists
	}
	m.files[rec.ID] = copyRecord(rec)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.files[id]
	if !ok || !rec.Live() {
		return nil, ErrFileNotFound
	}
	return copyRecord(rec), nil
}

func (m *MemoryRepository) List(_ context.Context) ([]*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*FileRecord
	for _, rec := range m.files {
		if rec.Live() {
			out = append(out, copyRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b *FileRecord) int {
		if c := b.ModifiedAt.Compare(a.ModifiedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, rec *FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.files[rec.ID]
	if !ok || !cur.Live() {
		return ErrFileNotFound
	}
	next := copyRecord(rec)
	next.Shared = cur.Shared
	next.Access = cur.Access
	next.PasswordHash = cur.PasswordHash
	next.CreatedAt = cur.CreatedAt
	next.DeletedAt = nil
	m.files[rec.ID] = next
	return nil
}

func (m *MemoryRepository) SetShare(_ context.Context, id string, access core.AccessLevel, passwordHash *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[id]
	if !ok || !rec.Live() {
		return ErrFileNotFound
	}
	rec.Access = access
	rec.Shared = access != core.AccessPrivate
	rec.PasswordHash = passwordHash
	rec.UpdatedAt = at
	return nil
}

func (m *MemoryRepository) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[id]
	if !ok || !rec.Live() {
		return ErrFileNotFound
	}
	rec.DeletedAt = &at
	rec.UpdatedAt = at
	return nil
}

func (m *MemoryRepository) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.files {
		if !rec.Live() && rec.DeletedAt.Before(before) {
			delete(m.files, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) IncrementDownloadCount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[id]
	if !ok || !rec.Live() {
		return ErrFileNotFound
	}
	rec.Downloads++
	return nil
}

func (m *MemoryRepository) EnsureFolder(_ context.Context, folderPath string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[folderPath]; ok {
		return nil
	}
	m.folders[folderPath] = core.Folder{
		ID:         uuid.NewString(),
		Name:       path.Base(folderPath),
		Path:       folderPath,
		ModifiedAt: at,
		Access:     core.AccessView,
	}
	return nil
}

func (m *MemoryRepository) ListFolders(_ context.Context) ([]core.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Folder, 0, len(m.folders))
	for _, f := range m.folders {
		f.ItemCount, f.Size = 0, 0
		for _, rec := range m.files {
			if rec.Live() && rec.Path == f.Path {
				f.ItemCount++
				f.Size += rec.Size
			}
		}
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b core.Folder) int { return cmp.Compare(a.Path, b.Path) })
	return out, nil
}

func (m *MemoryRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &Stats{}
	for _, rec := range m.files {
		if !rec.Live() {
			stats.DeletedFiles++
			continue
		}
		stats.TotalFiles++
		stats.TotalBytes += rec.Size
		if rec.Shared {
			stats.SharedFiles++
		}
	}
	return stats, nil
}

// HealthCheck always succeeds.
func (m *MemoryRepository) HealthCheck(context.Context) error {
	return nil
}

func copyRecord(rec *FileRecord) *FileRecord {
	out := *rec
	out.File = rec.File.Clone()
	if rec.PasswordHash != nil {
		h := *rec.PasswordHash
		out.PasswordHash = &h
	}
	if rec.DeletedAt != nil {
		at := *rec.DeletedAt
		out.DeletedAt = &at
	}
	return &out
}
