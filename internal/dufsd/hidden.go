package dufsd

import (
	"path"
	"strings"
)

// HiddenFilter decides whether a directory entry is hidden from listings,
// search and zip (spec.md §4.4). It is built once from the configured
// glob patterns and the posix_hidden flag and is read-only thereafter.
type HiddenFilter struct {
	posixHidden bool
	patterns    []hiddenPattern
}

type hiddenPattern struct {
	glob     string
	dirsOnly bool // pattern ended in '/'
}

// NewHiddenFilter builds a filter from the configured patterns.
func NewHiddenFilter(posixHidden bool, patterns []string) HiddenFilter {
	f := HiddenFilter{posixHidden: posixHidden}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		dirsOnly := strings.HasSuffix(p, "/")
		f.patterns = append(f.patterns, hiddenPattern{
			glob:     strings.TrimSuffix(p, "/"),
			dirsOnly: dirsOnly,
		})
	}
	return f
}

// Hidden reports whether name (a single path segment, not a full path)
// should be hidden, given whether it names a directory.
func (f HiddenFilter) Hidden(name string, isDir bool) bool {
	if f.posixHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range f.patterns {
		if p.dirsOnly && !isDir {
			continue
		}
		if matched, _ := path.Match(p.glob, name); matched {
			return true
		}
	}
	return false
}
