package query

import (
	"path"
	"slices"
	"strings"
	"time"

	"filehub/internal/core"
)

// Top returns up to n files ranked by key, largest first. Ties keep their
// input order.
func Top(files []core.File, key core.SortKey, n int) []core.File {
	if n <= 0 || len(files) == 0 {
		return nil
	}
	ranked := slices.Clone(files)
	slices.SortStableFunc(ranked, comparator(key, core.Descending))
	ranked = ranked[:min(n, len(ranked))]
	for i := range ranked {
		ranked[i] = ranked[i].Clone()
	}
	return ranked
}

// Recent returns the files created at or after since, newest first.
func Recent(files []core.File, since time.Time) []core.File {
	var out []core.File
	for _, f := range files {
		if !f.CreatedAt.Before(since) {
			out = append(out, f.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b core.File) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// Crumb is one step of a folder path.
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Breadcrumbs splits a folder path into its ancestors, root first.
// "/work/reports" yields "/", "/work" and "/work/reports".
func Breadcrumbs(folder string) []Crumb {
	folder = path.Clean("/" + strings.ReplaceAll(folder, "\\", "/"))
	crumbs := []Crumb{{Name: "/", Path: "/"}}
	if folder == "/" {
		return crumbs
	}
	cur := ""
	for _, part := range strings.Split(strings.TrimPrefix(folder, "/"), "/") {
		cur += "/" + part
		crumbs = append(crumbs, Crumb{Name: part, Path: cur})
	}
	return crumbs
}
