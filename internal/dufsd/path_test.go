package dufsd

import "testing"

func TestResolvePath(t *testing.T) {
	cases := []struct {
		prefix, uri string
		wantRel     string
		wantOK      bool
	}{
		{"/", "/", "", true},
		{"/", "/a/b", "a/b", true},
		{"/", "/a%20b", "a b", true},
		{"/", "/a%zz", "", false},
		{"/files", "/files", "", true},
		{"/files", "/files/", "", true},
		{"/files/", "/files/a.txt", "a.txt", true},
		{"/files", "/other", "", false},
		{"/files", "/filesx", "", false},
	}
	for _, tc := range cases {
		rel, ok := ResolvePath(tc.prefix, tc.uri)
		if ok != tc.wantOK || (ok && rel != tc.wantRel) {
			t.Errorf("ResolvePath(%q, %q) = (%q, %v); want (%q, %v)",
				tc.prefix, tc.uri, rel, ok, tc.wantRel, tc.wantOK)
		}
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("/root", ""); got != "/root" {
		t.Errorf("JoinPath with empty relative = %q; want /root", got)
	}
	got := JoinPath("/root", "a/b")
	want := "/root/a/b"
	if got != want {
		t.Errorf("JoinPath(/root, a/b) = %q; want %q", got, want)
	}
}

func TestIsRootContained(t *testing.T) {
	if !IsRootContained("/srv/root", "/srv/root") {
		t.Error("root itself must be contained")
	}
	if !IsRootContained("/srv/root", "/srv/root/a/b") {
		t.Error("descendant must be contained")
	}
	if IsRootContained("/srv/root", "/srv/other") {
		t.Error("sibling must not be contained")
	}
	if IsRootContained("/srv/root", "/srv/rootless") {
		t.Error("prefix-sharing sibling must not be contained")
	}
	if IsRootContained("/srv/root", "/") {
		t.Error("ancestor must not be contained")
	}
}

func TestSingleFileURIs(t *testing.T) {
	uris := singleFileURIs("/", "a.txt")
	want := []string{"/", "/", "/a.txt"}
	for i, w := range want {
		if uris[i] != w {
			t.Errorf("singleFileURIs[%d] = %q; want %q", i, uris[i], w)
		}
	}

	uris = singleFileURIs("/dl", "a.txt")
	want = []string{"/dl", "/dl/", "/dl/a.txt"}
	for i, w := range want {
		if uris[i] != w {
			t.Errorf("singleFileURIs[%d] = %q; want %q", i, uris[i], w)
		}
	}
}
