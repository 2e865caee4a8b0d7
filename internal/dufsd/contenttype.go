package dufsd

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"
)

const sniffLength = 1024

// DetectContentType classifies a file by its first sniffLength bytes and its
// extension (spec.md §4.5). head may be shorter than sniffLength for small
// files; an empty head is not binary, so it is typed as text.
func DetectContentType(name string, head []byte) string {
	byExt := mime.TypeByExtension(filepath.Ext(name))

	if looksBinary(head) {
		if byExt != "" {
			return byExt
		}
		return "application/octet-stream"
	}

	ctype := byExt
	if ctype == "" {
		ctype = "text/plain"
	}
	if _, csName, confident := charset.DetermineEncoding(head, ctype); confident && csName != "" {
		return ctype + "; charset=" + csName
	}
	return ctype
}

// looksBinary applies mimetype's binary/text heuristic to the sniffed head,
// the same probe dufs's infer crate performs over the first 1024 bytes.
func looksBinary(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	detected := mimetype.Detect(head)
	return !detected.Is("text/plain") && !isTextTree(detected)
}

func isTextTree(m *mimetype.MIME) bool {
	for parent := m; parent != nil; parent = parent.Parent() {
		if parent.Is("text/plain") {
			return true
		}
	}
	return false
}
