package authz

import "strings"

// RouteTable maps a protected path (exact match) to the single permission
// required to enter it.
type RouteTable map[string]Permission

// DefaultRouteTable returns the route policy for the admin dashboard.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		"/orders":     {ActionRead, ResourceOrders},
		"/products":   {ActionRead, ResourceProducts},
		"/clients":    {ActionRead, ResourceClients},
		"/categories": {ActionRead, ResourceCategories},
	}
}

// DefaultPublicRoutes returns the path prefixes reachable without a
// session. Covers the login route and the one-time-token callback.
func DefaultPublicRoutes() []string {
	return []string{"/auth"}
}

// isPublic reports whether the path falls under any public prefix.
func isPublic(public []string, path string) bool {
	for _, prefix := range public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
