package dufsd

import "os"

const maxEditableSize = 4 * 1024 * 1024 // 4 MiB

// Editable reports whether a file qualifies for the ?edit textarea
// (spec.md §4.9): at most 4 MiB, and its first 1024 bytes look textual by
// the same probe the content-type sniffer uses.
func Editable(f *os.File, size int64) bool {
	if size > maxEditableSize {
		return false
	}
	head := make([]byte, sniffLength)
	n, _ := f.ReadAt(head, 0)
	return !looksBinary(head[:n])
}
