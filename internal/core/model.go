// Package core holds the entity model shared by the store, the query
// pipeline, the persistence client and the persistence server.
package core

import (
	"strconv"
	"time"
)

// File is the metadata of one stored object. It never carries content.
type File struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       Kind        `json:"kind"`
	Size       int64       `json:"size"`
	ModifiedAt time.Time   `json:"modified_at"`
	CreatedAt  time.Time   `json:"created_at"`
	Path       string      `json:"path"`
	Starred    bool        `json:"starred"`
	Shared     bool        `json:"shared"`
	Access     AccessLevel `json:"access_level"`
	Downloads  int64       `json:"downloads"`
	Views      int64       `json:"views"`
	Tags       []string    `json:"tags"`
	Thumbnail  *string     `json:"thumbnail,omitempty"`
	Checksum   string      `json:"checksum,omitempty"`
}

// Validate checks the invariants every stored File must hold.
func (f File) Validate() error {
	if f.ID == "" {
		return &ValidationError{Field: "id", Value: f.ID, Cause: "must not be empty"}
	}
	if f.Size < 0 {
		return &ValidationError{Field: "size", Value: strconv.FormatInt(f.Size, 10), Cause: "must not be negative"}
	}
	if !f.Kind.Valid() {
		return &ValidationError{Field: "kind", Value: string(f.Kind), Cause: "unknown content kind"}
	}
	if !f.Access.Valid() {
		return &ValidationError{Field: "access_level", Value: string(f.Access), Cause: "unknown access level"}
	}
	seen := make(map[string]struct{}, len(f.Tags))
	for _, tag := range f.Tags {
		if _, ok := seen[tag]; ok {
			return &ValidationError{Field: "tags", Value: tag, Cause: "duplicate tag"}
		}
		seen[tag] = struct{}{}
	}
	return nil
}

// DefaultMaxFileSize is the per-file upload limit used when none is
// configured (100 MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// CheckSize rejects files larger than max bytes. A non-positive max
// disables the check.
func (f File) CheckSize(max int64) error {
	if max <= 0 || f.Size <= max {
		return nil
	}
	return &ValidationError{
		Field: "size",
		Value: strconv.FormatInt(f.Size, 10),
		Cause: "exceeds maximum allowed size of " + FormatSize(max),
		Err:   ErrTooLarge,
	}
}

// Clone returns a copy that shares no mutable memory with f.
func (f File) Clone() File {
	if f.Tags != nil {
		f.Tags = append([]string(nil), f.Tags...)
	}
	if f.Thumbnail != nil {
		thumb := *f.Thumbnail
		f.Thumbnail = &thumb
	}
	return f
}

// NormalizeTags removes duplicate tags, keeping the first occurrence.
// Comparison is case-sensitive.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Folder is a named container of files identified by its logical path.
// ItemCount and Size are reported by the persistence server.
type Folder struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	ItemCount  int         `json:"item_count"`
	Size       int64       `json:"size"`
	ModifiedAt time.Time   `json:"modified_at"`
	Shared     bool        `json:"shared"`
	Access     AccessLevel `json:"access_level"`
}

func (f Folder) Validate() error {
	if f.ID == "" {
		return &ValidationError{Field: "id", Value: f.ID, Cause: "must not be empty"}
	}
	if !f.Access.ValidForFolder() {
		return &ValidationError{Field: "access_level", Value: string(f.Access), Cause: "folders allow view or edit only"}
	}
	if f.ItemCount < 0 || f.Size < 0 {
		return &ValidationError{Field: "folder", Value: f.ID, Cause: "negative item count or size"}
	}
	return nil
}

// UploadTask tracks one transfer reported by the upload transport.
type UploadTask struct {
	ID        string       `json:"id"`
	FileName  string       `json:"file_name"`
	Progress  int          `json:"progress"`
	Status    UploadStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ClampProgress bounds a percentage to [0, 100].
func ClampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
