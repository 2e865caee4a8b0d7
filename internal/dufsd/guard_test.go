package dufsd

import (
	"encoding/base64"
	"testing"
)

func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestOpenGuardAlwaysGrants(t *testing.T) {
	g := OpenGuard{Perm: ReadWrite}
	user, view := g.Authorize("a/b", "GET", "")
	if user != nil {
		t.Error("OpenGuard must never name a user")
	}
	if view == nil || !view.ReadWrite() {
		t.Error("OpenGuard must grant the configured permission unconditionally")
	}
	if g.Exists() {
		t.Error("OpenGuard.Exists must be false")
	}
}

func TestBasicAuthGuardRejectsMissingCredential(t *testing.T) {
	g := &BasicAuthGuard{Username: "alice", Password: "secret", Perm: ReadOnly}
	user, view := g.Authorize("a/b", "GET", "")
	if user != nil || view != nil {
		t.Error("a missing credential must yield (nil, nil)")
	}
	if !g.Exists() {
		t.Error("BasicAuthGuard.Exists must be true")
	}
}

func TestBasicAuthGuardRejectsWrongCredential(t *testing.T) {
	g := &BasicAuthGuard{Username: "alice", Password: "secret", Perm: ReadOnly}
	user, view := g.Authorize("a/b", "GET", basicAuthHeader("alice", "wrong"))
	if user == nil || *user != "alice" {
		t.Error("a wrong password must still name the attempted user")
	}
	if view != nil {
		t.Error("a wrong credential must yield a nil view")
	}
}

func TestBasicAuthGuardAcceptsCorrectCredential(t *testing.T) {
	g := &BasicAuthGuard{Username: "alice", Password: "secret", Perm: ReadWrite}
	user, view := g.Authorize("a/b", "GET", basicAuthHeader("alice", "secret"))
	if user == nil || *user != "alice" {
		t.Error("a correct credential must name the user")
	}
	if view == nil || !view.ReadWrite() {
		t.Error("a correct credential must grant the configured permission")
	}
}
