package dufsd

import (
	"strings"
	"testing"
)

func TestDetectContentTypeText(t *testing.T) {
	ct := DetectContentType("notes.txt", []byte("hello world\nline two\n"))
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("DetectContentType(plain text) = %q; want text/plain prefix", ct)
	}
}

func TestDetectContentTypeBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	ct := DetectContentType("image.bin", png)
	if ct == "text/plain" {
		t.Errorf("DetectContentType(binary) = %q; want non-text", ct)
	}
}

func TestDetectContentTypeByExtension(t *testing.T) {
	ct := DetectContentType("app.js", []byte("console.log(1)"))
	if !strings.Contains(ct, "javascript") {
		t.Errorf("DetectContentType(app.js) = %q; want javascript mime", ct)
	}
}

func TestDetectContentTypeEmpty(t *testing.T) {
	ct := DetectContentType("empty.txt", nil)
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("DetectContentType(empty) = %q; want text/plain (empty head treated as text)", ct)
	}
}
