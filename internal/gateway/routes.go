package gateway

import (
	"net/http"
	"path"
	"strings"

	"auth_gateway/internal/model"
)

// DefaultOpenRoutes are reachable without credentials. Paths match by whole-segment
// prefix, so "/" with OPTIONS lets every CORS preflight through.
func DefaultOpenRoutes(baseEndpoint string) []model.OpenRoute {
	base := strings.TrimRight(baseEndpoint, "/")
	return []model.OpenRoute{
		{Path: "/", Method: http.MethodOptions},
		{Path: "/health", Method: http.MethodGet},
		{Path: base + "/register", Method: http.MethodPost},
		{Path: base + "/login", Method: http.MethodPost},
		{Path: base + "/refresh", Method: http.MethodPost},
		{Path: base + "/docs", Method: http.MethodGet},
	}
}

// RouteAuthorizer matches forwarded requests against a fixed allowlist.
// It is never mutated after construction and is safe for concurrent use.
type RouteAuthorizer struct {
	routes []model.OpenRoute
}

// NewRouteAuthorizer copies routes into a new RouteAuthorizer
func NewRouteAuthorizer(routes []model.OpenRoute) *RouteAuthorizer {
	copied := make([]model.OpenRoute, len(routes))
	for i, r := range routes {
		copied[i] = model.OpenRoute{Path: cleanPath(r.Path), Method: strings.ToUpper(r.Method)}
	}
	return &RouteAuthorizer{routes: copied}
}

// IsPublic reports whether any entry has exactly this method and a path that is a
// segment prefix of the cleaned forwarded path. "/auth/login" covers "/auth/login"
// and "/auth/login/x" but not "/auth/loginx".
func (a *RouteAuthorizer) IsPublic(forwarded, method string) bool {
	p := cleanPath(forwarded)
	for _, r := range a.routes {
		if r.Method != method {
			continue
		}
		if p == r.Path || strings.HasPrefix(p, strings.TrimRight(r.Path, "/")+"/") {
			return true
		}
	}
	return false
}

// cleanPath resolves dot-segments and duplicate slashes so "/auth/login/../users"
// is matched as the "/users" a backend would serve.
func cleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
