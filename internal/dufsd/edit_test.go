package dufsd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEditableSmallText(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "note.txt")
	os.WriteFile(p, []byte("hello, editable"), 0o644)

	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, _ := f.Stat()

	if !Editable(f, info.Size()) {
		t.Error("a small text file must be editable")
	}
}

func TestEditableTooLarge(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "big.txt")
	os.WriteFile(p, []byte("x"), 0o644)

	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if Editable(f, maxEditableSize+1) {
		t.Error("a file over the size cap must not be editable")
	}
}

func TestEditableBinary(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "bin.dat")
	content := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0xff}, 64)
	os.WriteFile(p, content, 0o644)

	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, _ := f.Stat()

	if Editable(f, info.Size()) {
		t.Error("binary content must not be editable")
	}
}
