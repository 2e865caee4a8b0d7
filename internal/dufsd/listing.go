package dufsd

import (
	"os"
)

// ListDir produces the filtered, unsorted PathItem set for a directory
// (spec.md §4.4); callers order it with SortPathItems. When the view is IndexOnly it iterates view.ChildPaths
// instead of reading the directory; ReadOnly/ReadWrite views read it in
// full. absDir is the joined filesystem path of the directory being listed.
func ListDir(root string, allowSymlink bool, hidden HiddenFilter, view AccessView, absDir string) ([]PathItem, error) {
	names, err := listNames(absDir, view)
	if err != nil {
		return nil, err
	}

	items := make([]PathItem, 0, len(names))
	for _, name := range names {
		entryPath := JoinPath(absDir, name)
		item, ok := toPathItem(root, allowSymlink, entryPath, name)
		if !ok {
			continue
		}
		isDir := item.PathType == PathTypeDir || item.PathType == PathTypeSymlinkDir
		if hidden.Hidden(name, isDir) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func listNames(absDir string, view AccessView) ([]string, error) {
	if view.Perm == IndexOnly {
		names := make([]string, len(view.ChildPaths))
		copy(names, view.ChildPaths)
		return names, nil
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
