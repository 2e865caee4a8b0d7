package dufsd

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// PathType is the cross of (symlink?, directory?) a listing entry falls
// into (spec.md §3 PathItem).
type PathType string

const (
	PathTypeDir         PathType = "Dir"
	PathTypeSymlinkDir  PathType = "SymlinkDir"
	PathTypeFile        PathType = "File"
	PathTypeSymlinkFile PathType = "SymlinkFile"
)

// PathItem is one directory/search/zip entry (spec.md §3). Size is a
// pointer so it serializes as JSON null for directories, matching the
// original's Option<u64>.
type PathItem struct {
	PathType PathType  `json:"path_type"`
	Name     string    `json:"name"`
	MTime    time.Time `json:"-"`
	MTimeMS  int64     `json:"mtime_ms"`
	Size     *uint64   `json:"size"`
}

// toPathItem maps a directory entry to a PathItem (spec.md §4.4 to_pathitem):
// stat and lstat are both consulted so a symlink can be told apart from its
// target, and disallowed out-of-root symlinks are reported via ok == false
// so the caller skips the entry entirely.
func toPathItem(root string, allowSymlink bool, entryPath, name string) (item PathItem, ok bool) {
	lstat, err := os.Lstat(entryPath)
	if err != nil {
		return PathItem{}, false
	}
	isSymlink := lstat.Mode()&fs.ModeSymlink != 0

	stat := lstat
	if isSymlink {
		target, err := filepath.EvalSymlinks(entryPath)
		if err != nil {
			return PathItem{}, false
		}
		if !allowSymlink {
			canonicalRoot, err := filepath.EvalSymlinks(root)
			if err != nil {
				return PathItem{}, false
			}
			if !IsRootContained(canonicalRoot, target) {
				return PathItem{}, false
			}
		}
		stat, err = os.Stat(entryPath)
		if err != nil {
			return PathItem{}, false
		}
	}

	isDir := stat.IsDir()
	kind := PathTypeFile
	switch {
	case isSymlink && isDir:
		kind = PathTypeSymlinkDir
	case isSymlink && !isDir:
		kind = PathTypeSymlinkFile
	case isDir:
		kind = PathTypeDir
	}

	mtime := toTimestamp(stat.ModTime())
	item = PathItem{
		PathType: kind,
		Name:     name,
		MTime:    mtime,
		MTimeMS:  mtime.UnixMilli(),
	}
	if !isDir {
		size := uint64(stat.Size())
		item.Size = &size
	}
	return item, true
}
