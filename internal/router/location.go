// Package router keeps the active session and the navigable location in step.
//
// Locations use the same scheme as the web client: "/" is the new-chat
// screen and "/chat/{id}" is a session.
package router

import (
	"net/url"
	"strings"
)

const (
	RootPath   = "/"
	chatPrefix = "/chat/"
)

// SessionPath returns the location for a session id.
func SessionPath(id string) string {
	return chatPrefix + url.PathEscape(id)
}

// ParsePath reports the session id a location points at. ok is false for the
// root and for paths that do not match the scheme; routable reports whether
// the path is one of the two known shapes.
func ParsePath(path string) (id string, ok bool, routable bool) {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == RootPath {
		return "", false, true
	}
	if !strings.HasPrefix(path, chatPrefix) {
		return "", false, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(path, chatPrefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false, false
	}
	id, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", false, false
	}
	return id, true, true
}
