package core

// Kind is the content category of a stored file.
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindArchive  Kind = "archive"
	KindOther    Kind = "other"
)

// Kinds lists every content kind in display order.
var Kinds = []Kind{KindImage, KindVideo, KindAudio, KindDocument, KindArchive, KindOther}

func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument, KindArchive, KindOther:
		return true
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Value: s, Cause: "unknown content kind", Err: ErrInvalid}
	}
	return k, nil
}

// AccessLevel controls who may see or change a file.
type AccessLevel string

const (
	AccessView    AccessLevel = "view"
	AccessEdit    AccessLevel = "edit"
	AccessPublic  AccessLevel = "public"
	AccessPrivate AccessLevel = "private"
)

func (a AccessLevel) Valid() bool {
	switch a {
	case AccessView, AccessEdit, AccessPublic, AccessPrivate:
		return true
	}
	return false
}

// ValidForFolder reports whether a folder may carry this level.
// Folders only distinguish read and write sharing.
func (a AccessLevel) ValidForFolder() bool {
	return a == AccessView || a == AccessEdit
}

func ParseAccessLevel(s string) (AccessLevel, error) {
	a := AccessLevel(s)
	if !a.Valid() {
		return "", &ValidationError{Field: "access_level", Value: s, Cause: "unknown access level", Err: ErrInvalid}
	}
	return a, nil
}

// UploadStatus is the lifecycle state of an UploadTask.
type UploadStatus string

const (
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
	UploadCancelled UploadStatus = "cancelled"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadUploading, UploadCompleted, UploadError, UploadCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further progress can be recorded.
func (s UploadStatus) Terminal() bool {
	return s == UploadCompleted || s == UploadError || s == UploadCancelled
}

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

func (m ViewMode) Valid() bool {
	return m == ViewGrid || m == ViewList
}

// SortKey selects the comparator used by the query pipeline.
type SortKey string

const (
	SortName      SortKey = "name"
	SortSize      SortKey = "size"
	SortType      SortKey = "type"
	SortDate      SortKey = "date"
	SortDownloads SortKey = "downloads"
	SortViews     SortKey = "views"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortName, SortSize, SortType, SortDate, SortDownloads, SortViews:
		return true
	}
	return false
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == Ascending || d == Descending
}

// DefaultSortKey and DefaultSortDirection are used whenever a sort request
// cannot be understood.
const (
	DefaultSortKey       = SortDate
	DefaultSortDirection = Descending
)

// ParseSort converts free-form input into a sort order. Unrecognised values
// fall back to date, descending; the error reports what was rejected.
func ParseSort(key, direction string) (SortKey, SortDirection, error) {
	k, d := SortKey(key), SortDirection(direction)
	if !k.Valid() {
		return DefaultSortKey, DefaultSortDirection, &ValidationError{Field: "sort", Value: key, Cause: "unknown sort key", Err: ErrInvalid}
	}
	if direction == "" {
		return k, DefaultSortDirection, nil
	}
	if !d.Valid() {
		return k, DefaultSortDirection, &ValidationError{Field: "direction", Value: direction, Cause: "expected asc or desc", Err: ErrInvalid}
	}
	return k, d, nil
}

// Filter restricts the visible list to a kind, to starred files, or to nothing.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterStarred Filter = "starred"
)

// FilterKind returns the filter matching a single content kind.
func FilterKind(k Kind) Filter {
	return Filter(k)
}

func (f Filter) Valid() bool {
	return f == FilterAll || f == FilterStarred || Kind(f).Valid()
}

// Kind returns the content kind selected by f, if any.
func (f Filter) Kind() (Kind, bool) {
	k := Kind(f)
	return k, k.Valid()
}

func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return FilterAll, &ValidationError{Field: "filter", Value: s, Cause: "expected all, starred or a content kind", Err: ErrInvalid}
	}
	return f, nil
}
