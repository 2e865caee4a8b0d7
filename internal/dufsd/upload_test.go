package dufsd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadCreatesParentsAndWritesBody(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "nested", "dir", "file.txt")

	if err := Upload(dst, strings.NewReader("payload")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("uploaded content = %q; want %q", data, "payload")
	}
}

func TestUploadAllowedZeroLengthQuirk(t *testing.T) {
	cases := []struct {
		name                         string
		allowUpload, allowDelete     bool
		existingSize                 int64
		exists, want                 bool
	}{
		{"upload disabled", false, false, 0, true, false},
		{"new file, upload only", true, false, 0, false, true},
		{"existing empty file, upload only", true, false, 0, true, true},
		{"existing non-empty file, upload only", true, false, 5, true, false},
		{"existing non-empty file, delete allowed", true, true, 5, true, true},
	}
	for _, tc := range cases {
		got := UploadAllowed(tc.allowUpload, tc.allowDelete, tc.existingSize, tc.exists)
		if got != tc.want {
			t.Errorf("%s: UploadAllowed() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestMkcolRejectsExisting(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "newdir")

	if err := Mkcol(target); err != nil {
		t.Fatalf("Mkcol on a fresh path failed: %v", err)
	}
	if err := Mkcol(target); KindOf(err) != KindMethodNotAllowed {
		t.Errorf("Mkcol on an existing path: Kind = %v; want KindMethodNotAllowed", KindOf(err))
	}
}

func TestCopyAndMoveFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.txt")
	if err := os.WriteFile(src, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	cpDst := filepath.Join(root, "copy.txt")
	if err := CopyFile(src, cpDst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("CopyFile must leave the source in place")
	}
	data, _ := os.ReadFile(cpDst)
	if string(data) != "abc" {
		t.Errorf("copied content = %q; want abc", data)
	}

	mvDst := filepath.Join(root, "moved.txt")
	if err := MoveFile(src, mvDst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("MoveFile must remove the source")
	}
	data, _ = os.ReadFile(mvDst)
	if string(data) != "abc" {
		t.Errorf("moved content = %q; want abc", data)
	}
}

func TestDeleteFileAndDir(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	os.WriteFile(f, []byte("x"), 0o644)
	if err := Delete(f, false); err != nil {
		t.Fatalf("Delete file failed: %v", err)
	}
	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Error("file must be gone after Delete")
	}

	d := filepath.Join(root, "d")
	os.MkdirAll(filepath.Join(d, "inner"), 0o755)
	if err := Delete(d, true); err != nil {
		t.Fatalf("Delete dir failed: %v", err)
	}
	if _, err := os.Stat(d); !os.IsNotExist(err) {
		t.Error("directory must be gone after recursive Delete")
	}
}
