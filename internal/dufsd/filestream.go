package dufsd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/WJQSERVER-STUDIO/go-utils/iox"
)

// StreamFile answers the GET/HEAD header and body pipeline for a regular
// file (spec.md §4.3). name is used for Content-Disposition/content-type
// sniffing; it is usually the file's own base name.
func StreamFile(w http.ResponseWriter, r *http.Request, f *os.File, info os.FileInfo, name string) error {
	cache := NewCacheHeaders(info.ModTime(), info.Size())
	if cache.NotModified(r) {
		cache.Apply(w)
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	head := make([]byte, sniffLength)
	n, _ := f.ReadAt(head, 0)
	head = head[:n]

	cache.Apply(w)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", DetectContentType(name, head))
	setContentDisposition(w, name)

	size := uint64(info.Size())
	honorRange := cache.ValidForRange(r)
	rangeHeader := r.Header.Get("Range")

	if honorRange && rangeHeader != "" {
		rv, ok := ParseRange(rangeHeader)
		if ok {
			start, end, satisfiable := rv.Satisfiable(size)
			if !satisfiable {
				w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return nil
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
			w.Header().Set("Content-Length", strconv.FormatUint(end-start+1, 10))
			w.WriteHeader(http.StatusPartialContent)
			if r.Method == http.MethodHead {
				return nil
			}
			if _, err := f.Seek(int64(start), 0); err != nil {
				return err
			}
			_, err := iox.Copy(w, &io.LimitedReader{R: f, N: int64(end-start+1)})
			return err
		}
	}

	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	_, err := iox.Copy(w, f)
	return err
}

// setContentDisposition emits an inline Content-Disposition with both the
// plain ASCII filename parameter and, when name contains non-ASCII bytes,
// the RFC 5987 filename* parameter (spec.md §4.3 step 4).
func setContentDisposition(w http.ResponseWriter, name string) {
	v := fmt.Sprintf(`inline; filename="%s"`, strings.ReplaceAll(name, `"`, `\"`))
	if isASCII(name) {
		w.Header().Set("Content-Disposition", v)
		return
	}
	v += fmt.Sprintf(`; filename*=UTF-8''%s`, url.PathEscape(name))
	w.Header().Set("Content-Disposition", v)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
