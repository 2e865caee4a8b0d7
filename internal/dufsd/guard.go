package dufsd

import (
	"net/http"
)

// Guard is the permission collaborator spec.md names as an external
// consumer: given a relative path, the request method and the raw
// Authorization header value, it returns an optional authenticated user
// name and an optional AccessView. The dispatcher interprets the pairing:
//
//	(nil, nil)        no credential, path is protected -> 401
//	(user, nil)       authenticated but denied          -> 403
//	(user?, *view)    continue with the given capability
type Guard interface {
	Authorize(relPath, method, authorization string) (user *string, view *AccessView)
	// WWWAuthenticate returns the challenge value for the 401 response.
	WWWAuthenticate() string
	// Exists reports whether any credential is configured at all (used by
	// IndexData.Auth / EditData.Auth).
	Exists() bool
}

// OpenGuard is a Guard that grants Perm to every caller without checking
// credentials. Config.Guard uses it when no auth_user is configured.
type OpenGuard struct {
	Perm AccessPerm
}

func (g OpenGuard) Authorize(relPath, method, authorization string) (*string, *AccessView) {
	view := NewAccessView(g.Perm)
	return nil, &view
}

func (g OpenGuard) WWWAuthenticate() string { return `Basic realm="dufs"` }
func (g OpenGuard) Exists() bool            { return false }

// BasicAuthGuard enforces a single HTTP Basic credential pair (dufs's
// "--auth user:pass@path" shape, collapsed here to one rule covering the
// whole tree since per-path rule parsing is CLI-parsing territory and is
// explicitly named out of scope by spec.md §1).
type BasicAuthGuard struct {
	Username string
	Password string
	Perm     AccessPerm
}

func (g *BasicAuthGuard) Exists() bool { return true }

func (g *BasicAuthGuard) WWWAuthenticate() string { return `Basic realm="dufs"` }

func (g *BasicAuthGuard) Authorize(relPath, method, authorization string) (*string, *AccessView) {
	user, pass, ok := parseBasicAuth(authorization)
	if !ok {
		return nil, nil
	}
	if user != g.Username || pass != g.Password {
		u := user
		return &u, nil
	}
	view := NewAccessView(g.Perm)
	u := user
	return &u, &view
}

// parseBasicAuth mirrors net/http's (*Request).BasicAuth but operates on a
// bare header value, since the dispatcher only has the raw Authorization
// string available at the point guards are consulted (the same shape
// server.rs's guard() takes the raw header).
func parseBasicAuth(authorization string) (username, password string, ok bool) {
	req := &http.Request{Header: http.Header{"Authorization": []string{authorization}}}
	return req.BasicAuth()
}
