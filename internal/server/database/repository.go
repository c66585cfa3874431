package database

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"filehub/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileExists   = errors.New("file already exists")
)

const uniqueViolation = "23505"

const fileColumns = `
	id, name, kind, size, path, starred, shared, access_level,
	downloads, views, tags, thumbnail, checksum, share_password_hash,
	modified_at, created_at, updated_at, deleted_at`

// Repository provides CRUD operations for files and folders.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new file record.
func (r *Repository) Create(ctx context.Context, rec *FileRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		rec.ID,
		rec.Name,
		string(rec.Kind),
		rec.Size,
		rec.Path,
		rec.Starred,
		rec.Shared,
		string(rec.Access),
		rec.Downloads,
		rec.Views,
		tagsOrEmpty(rec.Tags),
		rec.Thumbnail,
		rec.Checksum,
		rec.PasswordHash,
		rec.ModifiedAt,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.DeletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrFileExists
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// GetByID retrieves a live file by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*FileRecord, error) {
	rec, err := scanFile(r.db.Pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return rec, nil
}

// List returns every live file, newest first.
func (r *Repository) List(ctx context.Context) ([]*FileRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+fileColumns+` FROM files WHERE deleted_at IS NULL ORDER BY modified_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, rec)
	}
	return files, rows.Err()
}

// Update overwrites the mutable metadata of a live file. Share settings
// are changed through SetShare only.
func (r *Repository) Update(ctx context.Context, rec *FileRecord) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE files SET
			name = $2, kind = $3, size = $4, path = $5, starred = $6,
			downloads = $7, views = $8, tags = $9, thumbnail = $10,
			checksum = $11, modified_at = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`,
		rec.ID,
		rec.Name,
		string(rec.Kind),
		rec.Size,
		rec.Path,
		rec.Starred,
		rec.Downloads,
		rec.Views,
		tagsOrEmpty(rec.Tags),
		rec.Thumbnail,
		rec.Checksum,
		rec.ModifiedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// SetShare changes the access level and share password of a live file.
func (r *Repository) SetShare(ctx context.Context, id string, access core.AccessLevel, passwordHash *string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE files SET
			access_level = $2, shared = $3, share_password_hash = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`, id, string(access), access != core.AccessPrivate, passwordHash, at)
	if err != nil {
		return fmt.Errorf("failed to update share settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// SoftDelete moves a live file to the trash.
func (r *Repository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE files SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL", id, at)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// PurgeDeleted permanently removes files deleted before the cutoff and
// returns how many rows were removed.
func (r *Repository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		"DELETE FROM files WHERE deleted_at IS NOT NULL AND deleted_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted files: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementDownloadCount atomically increments the download counter.
func (r *Repository) IncrementDownloadCount(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE files SET downloads = downloads + 1 WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// EnsureFolder records a folder for the given path if none exists yet.
func (r *Repository) EnsureFolder(ctx context.Context, folderPath string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO folders (id, name, path, modified_at, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (path) DO NOTHING
	`, uuid.NewString(), path.Base(folderPath), folderPath, at)
	if err != nil {
		return fmt.Errorf("failed to ensure folder %s: %w", folderPath, err)
	}
	return nil
}

// ListFolders returns every folder with item count and size computed from
// the live files directly inside it.
func (r *Repository) ListFolders(ctx context.Context) ([]core.Folder, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT fo.id, fo.name, fo.path, fo.shared, fo.access_level, fo.modified_at,
			   COUNT(fi.id), COALESCE(SUM(fi.size), 0)
		FROM folders fo
		LEFT JOIN files fi ON fi.path = fo.path AND fi.deleted_at IS NULL
		GROUP BY fo.id
		ORDER BY fo.path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []core.Folder
	for rows.Next() {
		var (
			f      core.Folder
			access string
			count  int64
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.Shared, &access, &f.ModifiedAt, &count, &f.Size); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.Access = core.AccessLevel(access)
		f.ItemCount = int(count)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// GetStats returns aggregate server statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE deleted_at IS NULL),
			COALESCE(SUM(size) FILTER (WHERE deleted_at IS NULL), 0),
			COUNT(*) FILTER (WHERE deleted_at IS NULL AND shared),
			COUNT(*) FILTER (WHERE deleted_at IS NOT NULL)
		FROM files
	`).Scan(
		&stats.TotalFiles,
		&stats.TotalBytes,
		&stats.SharedFiles,
		&stats.DeletedFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// --- Helpers ---

func scanFile(row pgx.Row) (*FileRecord, error) {
	var (
		rec          FileRecord
		kind, access string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&kind,
		&rec.Size,
		&rec.Path,
		&rec.Starred,
		&rec.Shared,
		&access,
		&rec.Downloads,
		&rec.Views,
		&rec.Tags,
		&rec.Thumbnail,
		&rec.Checksum,
		&rec.PasswordHash,
		&rec.ModifiedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Kind = core.Kind(kind)
	rec.Access = core.AccessLevel(access)
	if len(rec.Tags) == 0 {
		rec.Tags = nil
	}
	return &rec, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
