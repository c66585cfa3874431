// Package ingest imports local files into a store: it resolves command-line
// paths, walks them into a tree and hashes every file while reporting
// upload progress.
package ingest

import (
	"os"
	"path/filepath"

	"filehub/internal/core"
)

type PathKind int

const (
	PathFile PathKind = iota
	PathDir
)

type ParsedPath struct {
	FullPath string
	Kind     PathKind
}

// ParseArgs resolves raw paths. Every path must exist.
func ParseArgs(args []string) ([]ParsedPath, error) {
	if len(args) == 0 {
		return nil, &core.ValidationError{Field: "path", Value: "<files>", Cause: "no files provided"}
	}

	var out []ParsedPath

	for _, raw := range args {
		p := filepath.Clean(raw)
		info, err := os.Stat(p)
		if err != nil {
			return nil, &core.ValidationError{Field: "path", Value: raw, Cause: "not found or not accessible"}
		}

		kind := PathFile
		if info.IsDir() {
			kind = PathDir
		}

		out = append(out, ParsedPath{FullPath: p, Kind: kind})
	}

	return out, nil
}
