package cli

import "strings"

// Page is what the REPL renders for a path.
type Page string

const (
	PageHome      Page = "home"
	PageAuth      Page = "auth"
	PageDashboard Page = "dashboard"
	PageProfile   Page = "profile"
	PageNotFound  Page = "not-found"
)

// Route is a resolved path. Path is the final path after redirects; From is
// the requested path when a redirect happened.
type Route struct {
	Path    string
	Page    Page
	Section string
	From    string
}

// dashboardSections are the dashboard sub-paths that render the dashboard.
var dashboardSections = map[string]string{
	"/dashboard":                "",
	"/dashboard/properties":     "properties",
	"/dashboard/properties/new": "properties/new",
	"/dashboard/bookings":       "bookings",
	"/dashboard/invitations":    "invitations",
	"/dashboard/settings":       "settings",
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// Resolve maps a path to a page. Signed-out users are sent from dashboard
// pages to /auth and signed-in users from /auth to /dashboard. Unknown
// dashboard paths redirect to /dashboard; anything else is not found.
func Resolve(path string, signedIn bool) Route {
	p := normalizePath(path)
	r := resolve(p, signedIn)
	if r.Path != p {
		r.From = p
	}
	return r
}

func resolve(p string, signedIn bool) Route {
	switch {
	case p == "/":
		return Route{Path: p, Page: PageHome}

	case p == "/auth":
		if signedIn {
			return Route{Path: "/dashboard", Page: PageDashboard}
		}
		return Route{Path: p, Page: PageAuth}

	case p == "/dashboard" || strings.HasPrefix(p, "/dashboard/"):
		if !signedIn {
			return Route{Path: "/auth", Page: PageAuth}
		}
		if p == "/dashboard/profile" {
			return Route{Path: p, Page: PageProfile}
		}
		if section, ok := dashboardSections[p]; ok {
			return Route{Path: p, Page: PageDashboard, Section: section}
		}
		return Route{Path: "/dashboard", Page: PageDashboard}
	}
	return Route{Path: p, Page: PageNotFound}
}
