package dufsd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewCacheHeadersETagFormat(t *testing.T) {
	mtime := time.UnixMilli(1700000000123).UTC()
	h := NewCacheHeaders(mtime, 42)
	want := `"1700000000123-42"`
	if h.ETag != want {
		t.Errorf("ETag = %q; want %q", h.ETag, want)
	}
}

func TestCacheHeadersNotModifiedByETag(t *testing.T) {
	h := NewCacheHeaders(time.Now(), 10)
	r := httptest.NewRequest(http.MethodGet, "/f", nil)
	r.Header.Set("If-None-Match", h.ETag)
	if !h.NotModified(r) {
		t.Error("matching If-None-Match must report not-modified")
	}

	r2 := httptest.NewRequest(http.MethodGet, "/f", nil)
	r2.Header.Set("If-None-Match", `"stale-etag"`)
	if h.NotModified(r2) {
		t.Error("mismatched If-None-Match must not report not-modified")
	}
}

func TestCacheHeadersNotModifiedByDate(t *testing.T) {
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	h := NewCacheHeaders(mtime, 10)
	r := httptest.NewRequest(http.MethodGet, "/f", nil)
	r.Header.Set("If-Modified-Since", mtime.Format(http.TimeFormat))
	if !h.NotModified(r) {
		t.Error("If-Modified-Since at exactly mtime must report not-modified")
	}
}

func TestCacheHeadersValidForRange(t *testing.T) {
	h := NewCacheHeaders(time.Now(), 10)
	r := httptest.NewRequest(http.MethodGet, "/f", nil)
	if !h.ValidForRange(r) {
		t.Error("absent If-Range must allow the range")
	}

	r.Header.Set("If-Range", h.ETag)
	if !h.ValidForRange(r) {
		t.Error("matching If-Range etag must allow the range")
	}

	r.Header.Set("If-Range", `"someone-else"`)
	if h.ValidForRange(r) {
		t.Error("mismatched If-Range etag must reject the range")
	}
}
