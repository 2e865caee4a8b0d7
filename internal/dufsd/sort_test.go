package dufsd

import "testing"

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"file2", "file10", true},
		{"file10", "file2", false},
		{"a", "b", true},
		{"B", "a", false}, // case-folded to "b" vs "a": "b" is not less than "a"
	}

	for _, tc := range cases {
		if got := naturalLess(tc.a, tc.b); got != tc.want {
			t.Errorf("naturalLess(%q, %q) = %v; want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSortPathItemsExplicitNameKeyInterleaves(t *testing.T) {
	size := func(n uint64) *uint64 { return &n }
	items := []PathItem{
		{PathType: PathTypeFile, Name: "b.txt", Size: size(1)},
		{PathType: PathTypeDir, Name: "a-dir"},
		{PathType: PathTypeFile, Name: "c.txt", Size: size(1)},
	}
	SortPathItems(items, SortName, false)

	want := []string{"a-dir", "b.txt", "c.txt"}
	for i, w := range want {
		if items[i].Name != w {
			t.Errorf("sort=name: items[%d].Name = %q; want %q (no dir-first rule for an explicit key)", i, items[i].Name, w)
		}
	}
}

func TestSortPathItemsDefaultGroupsByKind(t *testing.T) {
	size := func(n uint64) *uint64 { return &n }
	items := []PathItem{
		{PathType: PathTypeFile, Name: "b.txt", Size: size(1)},
		{PathType: PathTypeDir, Name: "z-dir"},
		{PathType: PathTypeSymlinkFile, Name: "link"},
		{PathType: PathTypeFile, Name: "a.txt", Size: size(1)},
		{PathType: PathTypeSymlinkDir, Name: "m-linkdir"},
	}
	SortPathItems(items, "", false)

	want := []string{"z-dir", "m-linkdir", "a.txt", "b.txt", "link"}
	for i, w := range want {
		if items[i].Name != w {
			t.Errorf("default sort: items[%d].Name = %q; want %q (kind before name: Dir, SymlinkDir, File, SymlinkFile)", i, items[i].Name, w)
		}
	}
}

func TestKindRankOrdersDirsBeforeFiles(t *testing.T) {
	ranks := []int{
		kindRank(PathItem{PathType: PathTypeDir}),
		kindRank(PathItem{PathType: PathTypeSymlinkDir}),
		kindRank(PathItem{PathType: PathTypeFile}),
		kindRank(PathItem{PathType: PathTypeSymlinkFile}),
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i-1] >= ranks[i] {
			t.Errorf("kindRank must be strictly increasing Dir < SymlinkDir < File < SymlinkFile, got %v", ranks)
		}
	}
}

func TestSortPathItemsBySize(t *testing.T) {
	size := func(n uint64) *uint64 { return &n }
	items := []PathItem{
		{PathType: PathTypeFile, Name: "big", Size: size(100)},
		{PathType: PathTypeDir, Name: "adir"}, // nil size
		{PathType: PathTypeFile, Name: "small", Size: size(10)},
	}
	SortPathItems(items, SortSize, false)

	want := []string{"adir", "small", "big"}
	for i, w := range want {
		if items[i].Name != w {
			t.Errorf("size sort: items[%d].Name = %q; want %q", i, items[i].Name, w)
		}
	}
}

func TestSortPathItemsDescending(t *testing.T) {
	items := []PathItem{
		{Name: "a"},
		{Name: "c"},
		{Name: "b"},
	}
	SortPathItems(items, SortName, true)
	want := []string{"c", "b", "a"}
	for i, w := range want {
		if items[i].Name != w {
			t.Errorf("descending sort: items[%d].Name = %q; want %q", i, items[i].Name, w)
		}
	}
}
