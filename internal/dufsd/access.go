package dufsd

import (
	"path/filepath"
)

// AccessPerm is the capability granted to a caller for a given path.
type AccessPerm int

const (
	// ReadOnly allows listing directories and reading files beneath them.
	ReadOnly AccessPerm = iota
	// IndexOnly allows enumerating a directory's immediate names but not
	// reading the files beneath it.
	IndexOnly
	// ReadWrite allows read, upload, delete and WebDAV mutation.
	ReadWrite
)

func (p AccessPerm) IndexOnly() bool { return p == IndexOnly }
func (p AccessPerm) ReadWrite() bool { return p == ReadWrite }

// AccessView is the capability record a Guard hands back to the dispatcher:
// the permission kind plus, for IndexOnly callers, the finite set of
// immediate child names they may see.
type AccessView struct {
	Perm       AccessPerm
	ChildPaths []string // only meaningful when Perm == IndexOnly
}

// NewAccessView builds a full-tree view (ReadOnly or ReadWrite).
func NewAccessView(perm AccessPerm) AccessView {
	return AccessView{Perm: perm}
}

func (v AccessView) ReadWrite() bool { return v.Perm.ReadWrite() }
func (v AccessView) IndexOnly() bool { return v.Perm.IndexOnly() }

// ReadOnlyView upgrades an IndexOnly view to ReadOnly while preserving the
// enumerated child names, mirroring dufs's PROPFIND upgrade (dufs issue #229):
// most WebDAV clients refuse a directory view with no readable children.
func (v AccessView) ReadOnlyView() AccessView {
	if v.Perm != IndexOnly {
		return v
	}
	return AccessView{Perm: ReadOnly, ChildPaths: v.ChildPaths}
}

// LeafPaths returns the absolute subtrees under base that the caller may
// walk. A ReadOnly/ReadWrite view may walk the whole base directory; an
// IndexOnly view is restricted to its enumerated immediate children.
func (v AccessView) LeafPaths(base string) []string {
	if v.Perm != IndexOnly {
		return []string{base}
	}
	leaves := make([]string, 0, len(v.ChildPaths))
	for _, name := range v.ChildPaths {
		leaves = append(leaves, filepath.Join(base, name))
	}
	return leaves
}
