package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoPaths is returned when there is nothing to build a tree from.
var ErrNoPaths = errors.New("no valid paths provided")

// now names virtual roots; tests replace it.
var now = time.Now

type Filetree struct {
	Root Node
}

// BuildFiletree walks the given paths. Several top-level paths are grouped
// under a virtual root directory named after the import time.
func BuildFiletree(paths []ParsedPath) (*Filetree, error) {
	var rootNodes []Node

	for _, parsedPath := range paths {
		if parsedPath.Kind == PathDir {
			dirNode, err := buildDirTree(parsedPath.FullPath)
			if err != nil {
				return nil, err
			}
			rootNodes = append(rootNodes, dirNode)
		} else {
			rootNodes = append(rootNodes, &File{
				path: parsedPath.FullPath,
				name: filepath.Base(parsedPath.FullPath),
			})
		}
	}

	if len(rootNodes) == 0 {
		return nil, ErrNoPaths
	}

	root := rootNodes[0]
	if len(rootNodes) > 1 {
		root = createVirtualRoot(rootNodes)
	}

	return &Filetree{Root: root}, nil
}

// Flatten returns every file of the tree in depth-first order.
func (ft *Filetree) Flatten() []*File {
	var files []*File
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *File:
			files = append(files, n)
		case *Dir:
			for _, child := range n.children {
				walk(child)
			}
		}
	}
	walk(ft.Root)
	return files
}

// Folders returns every directory of the tree ordered by logical path.
func (ft *Filetree) Folders() []*Dir {
	var dirs []*Dir
	var walk func(Node)
	walk = func(n Node) {
		if d, ok := n.(*Dir); ok {
			dirs = append(dirs, d)
			for _, child := range d.children {
				walk(child)
			}
		}
	}
	walk(ft.Root)
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Folder() < dirs[j].Folder() })
	return dirs
}

func buildDirTree(dirPath string) (*Dir, error) {
	dir := &Dir{
		path:     dirPath,
		name:     filepath.Base(dirPath),
		children: []Node{},
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dirPath, err)
	}

	for _, entry := range entries {
		childPath := filepath.Join(dirPath, entry.Name())

		switch {
		case entry.IsDir():
			childDir, err := buildDirTree(childPath)
			if err != nil {
				return nil, err
			}
			childDir.parent = dir
			dir.children = append(dir.children, childDir)
		case entry.Type().IsRegular():
			dir.children = append(dir.children, &File{
				path: childPath,
				name: entry.Name(),
				dir:  dir,
			})
		}
	}

	return dir, nil
}

func createVirtualRoot(children []Node) *Dir {
	name := fmt.Sprintf("upload_%s", now().Format("2006_01_02_150405"))
	virtualRoot := &Dir{
		path:     name,
		name:     name,
		children: children,
	}

	for _, child := range children {
		switch c := child.(type) {
		case *Dir:
			c.parent = virtualRoot
		case *File:
			c.dir = virtualRoot
		}
	}

	return virtualRoot
}
