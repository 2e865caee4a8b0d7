package dufsd

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CacheHeaders is the (etag, last_modified) pair derived from a file's
// (mtime, size) (spec.md §3 invariant 5: ETag is exactly "<mtime_ms>-<size>"
// including the quotes).
type CacheHeaders struct {
	ETag         string
	LastModified time.Time
}

func NewCacheHeaders(mtime time.Time, size int64) CacheHeaders {
	mtimeMS := toTimestamp(mtime).UnixMilli()
	return CacheHeaders{
		ETag:         fmt.Sprintf("%q", fmt.Sprintf("%d-%d", mtimeMS, size)),
		LastModified: toTimestamp(mtime),
	}
}

// NotModified reports whether the request's conditional headers indicate
// the client already holds this representation (spec.md §4.3 step 3).
// If-None-Match takes precedence over If-Modified-Since, matching HTTP's
// own precedence rule.
func (h CacheHeaders) NotModified(r *http.Request) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		return etagMatchesAny(h.ETag, inm)
	}
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if t, err := http.ParseTime(ims); err == nil {
			return !h.LastModified.Truncate(time.Second).After(t)
		}
	}
	return false
}

// ValidForRange reports whether If-Range (when present) still matches this
// representation, i.e. Range should be honored (spec.md §4.3 step 5).
func (h CacheHeaders) ValidForRange(r *http.Request) bool {
	ifRange := r.Header.Get("If-Range")
	if ifRange == "" {
		return true
	}
	if strings.HasPrefix(ifRange, `"`) || strings.HasPrefix(ifRange, "W/") {
		return etagMatchesAny(h.ETag, ifRange)
	}
	t, err := http.ParseTime(ifRange)
	if err != nil {
		return false
	}
	return !h.LastModified.Truncate(time.Second).After(t)
}

// Apply writes ETag and Last-Modified onto the response.
func (h CacheHeaders) Apply(w http.ResponseWriter) {
	w.Header().Set("ETag", h.ETag)
	w.Header().Set("Last-Modified", h.LastModified.Format(http.TimeFormat))
}

func etagMatchesAny(etag, header string) bool {
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
