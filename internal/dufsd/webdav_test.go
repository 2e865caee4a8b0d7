package dufsd

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseDepth(t *testing.T) {
	cases := []struct {
		header    string
		wantDepth int
		wantOK    bool
	}{
		{"", 1, true},
		{"0", 0, true},
		{"1", 1, true},
		{"infinity", 0, false},
	}
	for _, tc := range cases {
		depth, ok := ParseDepth(tc.header)
		if ok != tc.wantOK || depth != tc.wantDepth {
			t.Errorf("ParseDepth(%q) = (%d, %v); want (%d, %v)", tc.header, depth, ok, tc.wantDepth, tc.wantOK)
		}
	}
}

func TestPropfindFile(t *testing.T) {
	item := PathItem{PathType: PathTypeFile, Name: "a.txt", Size: ptr(5), MTime: time.Now()}
	body := PropfindFile("/files/", "sub/a.txt", item)
	if !strings.Contains(body, "<D:href>/files/sub/a.txt</D:href>") {
		t.Errorf("body missing expected href: %s", body)
	}
	if !strings.Contains(body, "<D:getcontentlength>5</D:getcontentlength>") {
		t.Errorf("body missing content length: %s", body)
	}
	if strings.Contains(body, "D:collection") {
		t.Error("a file's resourcetype must not be a collection")
	}
}

func TestPropfindDirDepth(t *testing.T) {
	self := PathItem{PathType: PathTypeDir, Name: "dir", MTime: time.Now()}
	child := PathItem{PathType: PathTypeFile, Name: "a.txt", Size: ptr(1), MTime: time.Now()}

	depth0 := PropfindDir("/files/", "sub/dir", self, []PathItem{child}, 0)
	if strings.Count(depth0, "<D:response>") != 1 {
		t.Error("Depth 0 must list only the directory itself")
	}
	if !strings.Contains(depth0, "<D:href>/files/sub/dir/</D:href>") {
		t.Errorf("self href must keep every path segment, got: %s", depth0)
	}

	depth1 := PropfindDir("/files/", "sub/dir", self, []PathItem{child}, 1)
	if strings.Count(depth1, "<D:response>") != 2 {
		t.Error("Depth 1 must list the directory plus its children")
	}
	if !strings.Contains(depth1, "D:collection") {
		t.Error("a directory's resourcetype must be a collection")
	}
	if !strings.Contains(depth1, "<D:href>/files/sub/dir/a.txt</D:href>") {
		t.Errorf("child href must be nested under the full self path, got: %s", depth1)
	}
}

func TestPropfindDirRootHref(t *testing.T) {
	self := PathItem{PathType: PathTypeDir, Name: "whatever-disk-basename-is", MTime: time.Now()}
	child := PathItem{PathType: PathTypeFile, Name: "a.txt", Size: ptr(1), MTime: time.Now()}

	body := PropfindDir("/", "", self, []PathItem{child}, 1)
	if !strings.Contains(body, "<D:href>/</D:href>") {
		t.Errorf("root PROPFIND must report href \"/\" regardless of the root dir's disk basename, got: %s", body)
	}
	if !strings.Contains(body, "<D:href>/a.txt</D:href>") {
		t.Errorf("root child href must not be prefixed by the root dir's disk basename, got: %s", body)
	}
}

func TestProppatchAlwaysForbidden(t *testing.T) {
	body := Proppatch([]string{"foo", "bar"})
	if strings.Count(body, "403 Forbidden") != 1 {
		t.Errorf("Proppatch must answer with a single fixed 403 stub: %s", body)
	}
	if !strings.Contains(body, "<D:foo/>") || !strings.Contains(body, "<D:bar/>") {
		t.Error("Proppatch must echo every requested property name")
	}
}

func TestLockToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	anon := LockToken(false, now)
	if anon != "1700000000" {
		t.Errorf("anonymous token = %q; want decimal unix seconds", anon)
	}
	authed := LockToken(true, now)
	if !strings.HasPrefix(authed, "opaquelocktoken:") {
		t.Errorf("authenticated token must be an opaquelocktoken, got %q", authed)
	}
}

func TestExtractDestination(t *testing.T) {
	uri, ok := ExtractDestination("http://example.com/files/dst.txt")
	if !ok || uri != "/files/dst.txt" {
		t.Errorf("ExtractDestination(absolute) = (%q, %v); want (/files/dst.txt, true)", uri, ok)
	}
	uri, ok = ExtractDestination("/files/dst.txt")
	if !ok || uri != "/files/dst.txt" {
		t.Errorf("ExtractDestination(relative) = (%q, %v); want (/files/dst.txt, true)", uri, ok)
	}
	if _, ok := ExtractDestination(""); ok {
		t.Error("empty Destination header must fail")
	}
}

func TestSetWebDAVHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetWebDAVHeaders(w)
	if w.Header().Get("DAV") != "1,2" {
		t.Error("DAV header must be set to 1,2")
	}
	if w.Header().Get("Allow") != WebDAVAllowHeader {
		t.Error("Allow header must be the fixed WebDAV method list")
	}
}
