package dufsd

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// SortKey names the field a listing is ordered by (spec.md §4.4 sort=).
type SortKey string

const (
	SortName  SortKey = "name"
	SortMtime SortKey = "mtime"
	SortSize  SortKey = "size"
)

// SortPathItems orders items in place. With an empty key it falls back to
// the default order: kind, then case-folded natural name, then mtime, then
// size, matching the original's derived Ord tuple on PathType.
func SortPathItems(items []PathItem, key SortKey, descending bool) {
	var less func(a, b PathItem) bool
	switch key {
	case SortName:
		less = func(a, b PathItem) bool { return naturalLess(a.Name, b.Name) }
	case SortMtime:
		less = func(a, b PathItem) bool { return a.MTime.Before(b.MTime) }
	case SortSize:
		less = func(a, b PathItem) bool { return sizeOf(a) < sizeOf(b) }
	default:
		less = defaultLess
	}
	sort.SliceStable(items, func(i, j int) bool {
		if descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// kindRank orders PathType the way the original's derived Ord does on its
// declaration order: Dir, SymlinkDir, File, SymlinkFile.
func kindRank(item PathItem) int {
	switch item.PathType {
	case PathTypeDir:
		return 0
	case PathTypeSymlinkDir:
		return 1
	case PathTypeFile:
		return 2
	default: // PathTypeSymlinkFile
		return 3
	}
}

// defaultLess is the zero-value sort order (spec.md §4.4): the
// (path_type, name, mtime, size) tuple the original derives Ord from,
// applied field by field until one differs.
func defaultLess(a, b PathItem) bool {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return ra < rb
	}
	if a.Name != b.Name {
		return naturalLess(a.Name, b.Name)
	}
	if !a.MTime.Equal(b.MTime) {
		return a.MTime.Before(b.MTime)
	}
	return sizeOf(a) < sizeOf(b)
}

// naturalLess compares two names case-foldedly, treating embedded runs of
// digits as numbers ("file2" before "file10") rather than lexing them
// byte-by-byte. No pack dependency implements this, so it is hand-written.
func naturalLess(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	ia, ib := 0, 0
	for ia < len(a) && ib < len(b) {
		ca, cb := a[ia], b[ib]
		if isDigit(ca) && isDigit(cb) {
			na, ea := scanNumber(a, ia)
			nb, eb := scanNumber(b, ib)
			if na != nb {
				return na < nb
			}
			ia, ib = ea, eb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		ia++
		ib++
	}
	return len(a)-ia < len(b)-ib
}

// sizeOf treats a directory's nil Size as 0, so dirs sort before any
// non-empty file when ordering by size ascending.
func sizeOf(item PathItem) uint64 {
	if item.Size == nil {
		return 0
	}
	return *item.Size
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func scanNumber(s string, start int) (int64, int) {
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	n, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		n = 0
	}
	return n, end
}

// toTimestamp mirrors dufs's to_timestamp: a best-effort conversion of an
// fs.FileInfo's ModTime into a UTC value suitable for HTTP date formatting
// and JSON emission. Invalid/zero times collapse to the Unix epoch rather
// than propagating an error, matching the original's lenient behavior.
func toTimestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}
