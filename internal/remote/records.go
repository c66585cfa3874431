package remote

import (
	"time"

	"filehub/internal/core"
)

// fileRecord is the server's JSON shape. Optional fields are pointers so
// absent and null values can be told apart from zero values.
type fileRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind,omitempty"`
	Size        int64      `json:"size"`
	ModifiedAt  time.Time  `json:"modified_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Path        string     `json:"path"`
	Starred     bool       `json:"starred"`
	Shared      bool       `json:"shared"`
	AccessLevel string     `json:"access_level,omitempty"`
	Downloads   int64      `json:"downloads"`
	Views       int64      `json:"views"`
	Tags        []string   `json:"tags"`
	Thumbnail   *string    `json:"thumbnail"`
	Checksum    *string    `json:"checksum,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func fromFile(f core.File) fileRecord {
	rec := fileRecord{
		ID:          f.ID,
		Name:        f.Name,
		Kind:        string(f.Kind),
		Size:        f.Size,
		ModifiedAt:  f.ModifiedAt,
		CreatedAt:   f.CreatedAt,
		Path:        f.Path,
		Starred:     f.Starred,
		Shared:      f.Shared,
		AccessLevel: string(f.Access),
		Downloads:   f.Downloads,
		Views:       f.Views,
		Tags:        f.Tags,
		Thumbnail:   f.Thumbnail,
	}
	if f.Checksum != "" {
		rec.Checksum = &f.Checksum
	}
	return rec
}

// toFile maps a record into the entity model. Missing or unknown kinds are
// derived from the file name, unknown access levels become private, and
// tags are deduplicated.
func (r fileRecord) toFile() core.File {
	kind := core.Kind(r.Kind)
	if !kind.Valid() {
		kind = core.KindFromName(r.Name)
	}
	access := core.AccessLevel(r.AccessLevel)
	if !access.Valid() {
		access = core.AccessPrivate
	}
	path := r.Path
	if path == "" {
		path = "/"
	}
	f := core.File{
		ID:         r.ID,
		Name:       r.Name,
		Kind:       kind,
		Size:       max(r.Size, 0),
		ModifiedAt: r.ModifiedAt,
		CreatedAt:  r.CreatedAt,
		Path:       path,
		Starred:    r.Starred,
		Shared:     r.Shared,
		Access:     access,
		Downloads:  r.Downloads,
		Views:      r.Views,
		Tags:       core.NormalizeTags(r.Tags),
	}
	if r.Thumbnail != nil {
		thumb := *r.Thumbnail
		f.Thumbnail = &thumb
	}
	if r.Checksum != nil {
		f.Checksum = *r.Checksum
	}
	return f
}

type folderRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	ItemCount   int       `json:"item_count"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	Shared      bool      `json:"shared"`
	AccessLevel string    `json:"access_level"`
}

func (r folderRecord) toFolder() core.Folder {
	access := core.AccessLevel(r.AccessLevel)
	if !access.ValidForFolder() {
		access = core.AccessView
	}
	return core.Folder{
		ID:         r.ID,
		Name:       r.Name,
		Path:       r.Path,
		ItemCount:  max(r.ItemCount, 0),
		Size:       max(r.Size, 0),
		ModifiedAt: r.ModifiedAt,
		Shared:     r.Shared,
		Access:     access,
	}
}
