package ingest

import "strings"

// Node is an entry of a local file tree.
type Node interface {
	Path() string
	Name() string
}

type File struct {
	path string
	name string
	dir  *Dir
}

type Dir struct {
	path     string
	name     string
	children []Node
	parent   *Dir
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Name() string {
	return f.name
}

// Dir returns the directory holding f, or nil for a lone root file.
func (f *File) Dir() *Dir {
	return f.dir
}

// Folder is the logical folder path f is imported into: the chain of
// directory names from the tree root, or "/" when f has no directory.
func (f *File) Folder() string {
	if f.dir == nil {
		return "/"
	}
	return f.dir.Folder()
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) Name() string {
	return d.name
}

func (d *Dir) Children() []Node {
	return d.children
}

func (d *Dir) Parent() *Dir {
	return d.parent
}

// Folder is the logical path of d, e.g. "/photos/2024".
func (d *Dir) Folder() string {
	var names []string
	for cur := d; cur != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}
