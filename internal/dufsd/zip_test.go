package dufsd

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func setupZipFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	must(os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaaa"), 0o644))
	must(os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bbbb"), 0o644))
	must(os.WriteFile(filepath.Join(root, ".hidden"), []byte("secret"), 0o644))
	return root
}

func TestStreamZipIncludesFilesAndSkipsHidden(t *testing.T) {
	root := setupZipFixture(t)
	hidden := NewHiddenFilter(true, nil)

	var buf bytes.Buffer
	err := StreamZip(context.Background(), &buf, root, NewAccessView(ReadOnly), false, hidden, NewShutdownFlag())
	if err != nil {
		t.Fatalf("StreamZip failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("produced archive is not a valid zip: %v", err)
	}

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"a.txt", "sub/b.txt"}
	if len(names) != len(want) {
		t.Fatalf("archive entries = %v; want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q; want %q", i, names[i], want[i])
		}
	}
}

func TestStreamZipExcludesHiddenSymlinkedDir(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.WriteFile(filepath.Join(target, "inner.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "git")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	hidden := NewHiddenFilter(false, []string{"git/"})
	var buf bytes.Buffer
	if err := StreamZip(context.Background(), &buf, root, NewAccessView(ReadOnly), true, hidden, NewShutdownFlag()); err != nil {
		t.Fatalf("StreamZip failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("produced archive is not a valid zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == "git" || filepath.Base(filepath.Dir(f.Name)) == "git" {
			t.Errorf("a dir-only hidden pattern must suppress a matching symlinked directory, got entry %q", f.Name)
		}
	}
}

func TestRootZipName(t *testing.T) {
	if got := rootZipName("/srv/data"); got != "data" {
		t.Errorf("rootZipName(/srv/data) = %q; want data", got)
	}
	if got := rootZipName("/"); got != "root" {
		t.Errorf("rootZipName(/) = %q; want root", got)
	}
}
