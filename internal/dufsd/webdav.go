package dufsd

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PROPFIND/PROPPATCH/LOCK bodies are hand-templated rather than built with
// encoding/xml: the wire format dufs's clients expect is a handful of fixed
// elements per entry, and a literal template reproduces it byte-for-byte
// without fighting encoding/xml's struct-tag model for a namespace prefix
// it doesn't support natively.
const xmlHeader = `<?xml version="1.0" encoding="utf-8" ?>` + "\n"

// ParseDepth validates the PROPFIND Depth header (spec.md §4.8): default 1,
// only "0" or "1" are legal.
func ParseDepth(header string) (depth int, ok bool) {
	if header == "" {
		return 1, true
	}
	switch header {
	case "0":
		return 0, true
	case "1":
		return 1, true
	default:
		return 0, false
	}
}

// PropfindFile renders the single-entry multistatus body for a PROPFIND
// issued directly on a file. relPath is the request's resolved path
// (ResolvePath's output, slash-trimmed, root is ""), not the entry's disk
// basename, so the href reflects the full URL the client asked for.
func PropfindFile(uriPrefix, relPath string, item PathItem) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<D:multistatus xmlns:D="DAV:">`)
	writeDavResponse(&b, davHref(uriPrefix, relPath, false), item)
	b.WriteString(`</D:multistatus>`)
	return b.String()
}

// PropfindDir renders the multistatus body for a PROPFIND on a directory:
// one response for the directory itself plus one per visible immediate
// child when Depth is 1. relPath is the request's resolved path, so
// PROPFIND on the served root gets href "/" rather than the root
// directory's disk basename, and a multi-segment directory keeps every
// segment instead of collapsing to its last one.
func PropfindDir(uriPrefix, relPath string, self PathItem, children []PathItem, depth int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<D:multistatus xmlns:D="DAV:">`)
	selfHref := davHref(uriPrefix, relPath, true)
	writeDavResponse(&b, selfHref, self)
	if depth == 1 {
		for _, child := range children {
			childIsDir := child.PathType == PathTypeDir || child.PathType == PathTypeSymlinkDir
			childHref := selfHref + url.PathEscape(child.Name)
			if childIsDir {
				childHref += "/"
			}
			writeDavResponse(&b, childHref, child)
		}
	}
	b.WriteString(`</D:multistatus>`)
	return b.String()
}

// davHref joins uriPrefix (always slash-terminated) and a root-relative
// path into a percent-encoded href, escaping each segment independently so
// a literal "/" within a path component can't be mistaken for a separator.
func davHref(uriPrefix, relPath string, isDir bool) string {
	relPath = strings.Trim(relPath, "/")
	var b strings.Builder
	b.WriteString(uriPrefix)
	if relPath != "" {
		segments := strings.Split(relPath, "/")
		for i, seg := range segments {
			if i > 0 {
				b.WriteByte('/')
			}
			b.WriteString(url.PathEscape(seg))
		}
	}
	if isDir && b.String() != uriPrefix {
		b.WriteString("/")
	}
	return b.String()
}

func writeDavResponse(b *strings.Builder, href string, item PathItem) {
	isDir := item.PathType == PathTypeDir || item.PathType == PathTypeSymlinkDir
	displayName := item.Name
	if idx := strings.LastIndex(displayName, "/"); idx >= 0 {
		displayName = displayName[idx+1:]
	}

	b.WriteString(`<D:response>`)
	fmt.Fprintf(b, `<D:href>%s</D:href>`, href)
	b.WriteString(`<D:propstat><D:prop>`)
	fmt.Fprintf(b, `<D:displayname>%s</D:displayname>`, html.EscapeString(displayName))
	fmt.Fprintf(b, `<D:getlastmodified>%s</D:getlastmodified>`, item.MTime.Format(time.RFC1123Z))
	if isDir {
		b.WriteString(`<D:resourcetype><D:collection/></D:resourcetype>`)
	} else {
		b.WriteString(`<D:resourcetype></D:resourcetype>`)
		if item.Size != nil {
			fmt.Fprintf(b, `<D:getcontentlength>%d</D:getcontentlength>`, *item.Size)
		}
	}
	b.WriteString(`</D:prop><D:status>HTTP/1.1 200 OK</D:status></D:propstat>`)
	b.WriteString(`</D:response>`)
}

// Proppatch always answers with the fixed 403-per-prop stub (spec.md §4.8):
// no property is ever actually stored.
func Proppatch(requestedProps []string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<D:multistatus xmlns:D="DAV:"><D:response><D:propstat><D:prop>`)
	for _, p := range requestedProps {
		fmt.Fprintf(&b, `<D:%s/>`, p)
	}
	b.WriteString(`</D:prop><D:status>HTTP/1.1 403 Forbidden</D:status></D:propstat></D:response></D:multistatus>`)
	return b.String()
}

// LockToken derives the fake LOCK token (spec.md §4.8): a real UUID-based
// opaquelocktoken when the caller authenticated, otherwise a decimal Unix
// timestamp. No lock is ever actually held.
func LockToken(authenticated bool, now time.Time) string {
	if authenticated {
		return "opaquelocktoken:" + uuid.NewString()
	}
	return strconv.FormatInt(now.Unix(), 10)
}

// LockBody renders the <D:prop><D:lockdiscovery> activelock element carrying
// token.
func LockBody(token string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<D:prop xmlns:D="DAV:"><D:lockdiscovery><D:activelock>`)
	b.WriteString(`<D:locktype><D:write/></D:locktype>`)
	b.WriteString(`<D:lockscope><D:exclusive/></D:lockscope>`)
	b.WriteString(`<D:depth>infinity</D:depth>`)
	fmt.Fprintf(&b, `<D:locktoken><D:href>%s</D:href></D:locktoken>`, token)
	b.WriteString(`</D:activelock></D:lockdiscovery></D:prop>`)
	return b.String()
}

// ExtractDestination resolves the Destination header (an absolute or
// relative URI) into a raw URI path, for COPY/MOVE (spec.md §4.8).
func ExtractDestination(header string) (uriPath string, ok bool) {
	if header == "" {
		return "", false
	}
	u, err := url.Parse(header)
	if err != nil {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	return u.Path, true
}

// WebDAVAllowHeader is the fixed Allow value OPTIONS answers with
// (spec.md §4.8).
const WebDAVAllowHeader = "GET,HEAD,PUT,OPTIONS,DELETE,PROPFIND,COPY,MOVE"

// SetWebDAVHeaders writes the DAV/Allow headers an OPTIONS response needs.
func SetWebDAVHeaders(w http.ResponseWriter) {
	w.Header().Set("Allow", WebDAVAllowHeader)
	w.Header().Set("DAV", "1,2")
}
