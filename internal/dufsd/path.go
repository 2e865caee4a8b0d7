package dufsd

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ResolvePath translates a request URI path into the relative path it names
// beneath the served root (spec.md §4.2 resolve_path). It trims slashes,
// percent-decodes, and strips the configured path_prefix. A malformed
// percent-escape or a URI that doesn't fall under path_prefix both report ok
// == false, which the caller turns into a 403.
func ResolvePath(pathPrefix, uriPath string) (relative string, ok bool) {
	decoded, err := url.PathUnescape(uriPath)
	if err != nil {
		return "", false
	}
	trimmed := strings.Trim(decoded, "/")

	if pathPrefix == "" || pathPrefix == "/" {
		return trimmed, true
	}

	prefix := strings.Trim(pathPrefix, "/")
	if trimmed == prefix {
		return "", true
	}
	rest := strings.TrimPrefix(trimmed, prefix+"/")
	if rest == trimmed {
		return "", false
	}
	return rest, true
}

// JoinPath joins a resolved relative path onto root, converting the URL's
// forward slashes to the host's separator (spec.md §4.2 join_path).
func JoinPath(root, relative string) string {
	if relative == "" {
		return root
	}
	parts := strings.Split(relative, "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// IsRootContained reports whether the canonicalized absolute path abs still
// falls under the canonicalized root (spec.md §4.2 is_root_contained). It is
// the symlink-escape guard: callers resolve abs via filepath.EvalSymlinks
// before calling this so a symlink that jumps outside root is caught.
func IsRootContained(canonicalRoot, canonicalAbs string) bool {
	rel, err := filepath.Rel(canonicalRoot, canonicalAbs)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// singleFileURIs returns the three canonical URIs a single-file-mode server
// answers on: the bare prefix, the prefix with a trailing slash, and the
// prefix suffixed with the served file's own base name (spec.md's
// path-is-file Non-goal carve-out, supplemented from the original CLI mode
// where a lone file argument is served at all three).
func singleFileURIs(pathPrefix, fileName string) []string {
	base := strings.TrimSuffix(pathPrefix, "/")
	if base == "" {
		base = "/"
	}
	withSlash := base
	if !strings.HasSuffix(withSlash, "/") {
		withSlash += "/"
	}
	return []string{base, withSlash, path.Join(base, fileName)}
}
