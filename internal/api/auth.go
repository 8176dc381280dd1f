package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorized checks the bearer token when AUTH_TOKEN is configured.
// Without a configured token every request is allowed (dev mode).
func (s *Server) authorized(r *http.Request) bool {
	if s.Cfg.AuthToken == "" {
		return true
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return false
	}
	tok := strings.TrimSpace(authz[len("Bearer "):])
	return subtle.ConstantTimeCompare([]byte(tok), []byte(s.Cfg.AuthToken)) == 1
}

// protected reports whether a request mutates state or touches admin
// surfaces and therefore requires the bearer token.
func protected(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/v1/admin/") || strings.HasPrefix(r.URL.Path, "/debug/") {
		return true
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
