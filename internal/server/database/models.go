package database

import (
	"time"

	"filehub/internal/core"
)

// FileRecord is a stored file row. DeletedAt is set once the file has been
// moved to the trash; PasswordHash is nil unless a share password is set.
type FileRecord struct {
	core.File
	PasswordHash *string
	DeletedAt    *time.Time
	UpdatedAt    time.Time
}

// Live reports whether the record has not been deleted.
func (r *FileRecord) Live() bool {
	return r.DeletedAt == nil
}

// Stats holds aggregate server statistics.
type Stats struct {
	TotalFiles   int64
	TotalBytes   int64
	SharedFiles  int64
	DeletedFiles int64
}
