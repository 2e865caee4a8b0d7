package dufsd

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func setupSearchFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	must(os.WriteFile(filepath.Join(root, "report.txt"), []byte("x"), 0o644))
	must(os.WriteFile(filepath.Join(root, "sub", "report2.txt"), []byte("x"), 0o644))
	must(os.WriteFile(filepath.Join(root, "other.md"), []byte("x"), 0o644))
	return root
}

func TestSearchEmptyQuery(t *testing.T) {
	root := setupSearchFixture(t)
	hidden := NewHiddenFilter(false, nil)
	items, err := Search(context.Background(), root, NewAccessView(ReadOnly), false, hidden, "", NewShutdownFlag())
	if err != nil {
		t.Fatal(err)
	}
	if items != nil {
		t.Errorf("empty query must yield no results, got %v", items)
	}
}

func TestSearchMatchesRecursively(t *testing.T) {
	root := setupSearchFixture(t)
	hidden := NewHiddenFilter(false, nil)
	items, err := Search(context.Background(), root, NewAccessView(ReadOnly), false, hidden, "report", NewShutdownFlag())
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	sort.Strings(names)
	want := []string{"report.txt", "sub/report2.txt"}
	if len(names) != len(want) {
		t.Fatalf("names = %v; want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q; want %q", i, names[i], want[i])
		}
	}
}

func TestSearchRespectsHiddenFilter(t *testing.T) {
	root := setupSearchFixture(t)
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(root, ".hidden-sub"), 0o755))
	must(os.WriteFile(filepath.Join(root, ".hidden-sub", "reportsecret.txt"), []byte("x"), 0o644))

	hidden := NewHiddenFilter(true, nil)
	items, err := Search(context.Background(), root, NewAccessView(ReadOnly), false, hidden, "report", NewShutdownFlag())
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.Name == ".hidden-sub/reportsecret.txt" {
			t.Error("search must not descend into a posix-hidden directory")
		}
	}
}

func TestSearchRespectsDirOnlyHiddenPatternThroughSymlink(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.Symlink(target, filepath.Join(root, "reportgit")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	// "reportgit/" is a dir-only pattern: it must only ever match a
	// directory-typed entry. os.DirEntry.IsDir() reports false for a
	// symlink regardless of its target, so a naive check would miss this
	// and let the symlinked directory's own entry leak into the results.
	hidden := NewHiddenFilter(false, []string{"reportgit/"})
	items, err := Search(context.Background(), root, NewAccessView(ReadOnly), true, hidden, "report", NewShutdownFlag())
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if strings.Contains(it.Name, "reportgit") {
			t.Errorf("a dir-only hidden pattern must suppress a matching symlinked directory, got %v", items)
		}
	}
}

func TestSearchStopsOnShutdown(t *testing.T) {
	root := setupSearchFixture(t)
	hidden := NewHiddenFilter(false, nil)
	flag := NewShutdownFlag()
	flag.Stop()

	_, err := Search(context.Background(), root, NewAccessView(ReadOnly), false, hidden, "report", flag)
	if err == nil {
		t.Error("Search with an already-stopped shutdown flag must return an error")
	}
}
