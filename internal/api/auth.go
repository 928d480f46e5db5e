package api

import (
	"net/http"
	"strings"
)

// PrincipalResolver turns a bearer token into a principal id. The real
// session provider lives outside this service; anything that can map
// tokens to principals plugs in here.
type PrincipalResolver interface {
	Resolve(token string) (string, bool)
}

// StaticTokens resolves principals from a fixed token map, standing in
// for a session provider in local and test setups.
type StaticTokens map[string]string

func (t StaticTokens) Resolve(token string) (string, bool) {
	id, ok := t[token]
	return id, ok
}

func (s *Server) principal(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return s.resolver.Resolve(strings.TrimPrefix(h, prefix))
}
