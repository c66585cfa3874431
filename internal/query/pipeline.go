// Package query derives the visible file list from a collection and the
// current search, filter, folder and sort settings.
package query

import (
	"cmp"
	"slices"
	"strings"

	"filehub/internal/core"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Params are the user-controlled inputs of the pipeline.
type Params struct {
	Search    string
	Filter    core.Filter
	Folder    string
	Sort      core.SortKey
	Direction core.SortDirection
}

// DefaultParams matches everything, newest first.
func DefaultParams() Params {
	return Params{
		Filter:    core.FilterAll,
		Sort:      core.DefaultSortKey,
		Direction: core.DefaultSortDirection,
	}
}

// Run filters and sorts files. The input slice is not modified and the
// result is a fresh slice; equal keys keep their input order.
func Run(files []core.File, p Params) []core.File {
	m := newMatcher(p)
	out := make([]core.File, 0, len(files))
	for _, f := range files {
		if m.match(f) {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, comparator(p.Sort, p.Direction))
	return out
}

// Matches reports whether f passes the search, filter and folder stages.
func Matches(f core.File, p Params) bool {
	return newMatcher(p).match(f)
}

// IDs returns the identifiers of files in order.
func IDs(files []core.File) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

type matcher struct {
	needle string
	filter core.Filter
	kind   core.Kind
	byKind bool
	folder string
}

func newMatcher(p Params) matcher {
	m := matcher{
		filter: p.Filter,
		folder: p.Folder,
	}
	// a blank query matches everything; any other query is taken literally
	if strings.TrimSpace(p.Search) != "" {
		m.needle = strings.ToLower(p.Search)
	}
	m.kind, m.byKind = p.Filter.Kind()
	return m
}

func (m matcher) match(f core.File) bool {
	if m.needle != "" && !containsFold(f, m.needle) {
		return false
	}
	switch {
	case m.byKind:
		if f.Kind != m.kind {
			return false
		}
	case m.filter == core.FilterStarred:
		if !f.Starred {
			return false
		}
	}
	if m.folder != "" && f.Path != m.folder {
		return false
	}
	return true
}

func containsFold(f core.File, needle string) bool {
	if strings.Contains(strings.ToLower(f.Name), needle) {
		return true
	}
	for _, tag := range f.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func comparator(key core.SortKey, dir core.SortDirection) func(a, b core.File) int {
	if !key.Valid() {
		key, dir = core.DefaultSortKey, core.DefaultSortDirection
	}
	var compare func(a, b core.File) int
	switch key {
	case core.SortName:
		// collate.Collator keeps internal buffers, so each Run gets its own.
		col := collate.New(language.English)
		compare = func(a, b core.File) int { return col.CompareString(a.Name, b.Name) }
	case core.SortSize:
		compare = func(a, b core.File) int { return cmp.Compare(a.Size, b.Size) }
	case core.SortType:
		compare = func(a, b core.File) int { return strings.Compare(string(a.Kind), string(b.Kind)) }
	case core.SortDownloads:
		compare = func(a, b core.File) int { return cmp.Compare(a.Downloads, b.Downloads) }
	case core.SortViews:
		compare = func(a, b core.File) int { return cmp.Compare(a.Views, b.Views) }
	default:
		compare = func(a, b core.File) int { return a.ModifiedAt.Compare(b.ModifiedAt) }
	}
	if dir == core.Ascending {
		return compare
	}
	return func(a, b core.File) int { return compare(b, a) }
}
