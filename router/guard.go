// Package router decides, from the session alone, what a requested path
// shows: a loading indicator, a redirect or a view.
package router

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/attendance-client/sessions"
	"github.com/jrsteele09/attendance-client/users"
)

// View names the screen a route renders.
type View string

const (
	ViewNone             View = ""
	ViewLogin            View = "login"
	ViewStudentDashboard View = "student-dashboard"
	ViewFacultyDashboard View = "faculty-dashboard"
	ViewAdminDashboard   View = "admin-dashboard"
)

// Route is an entry of the route table.
type Route struct {
	Path         string
	View         View
	RequiredRole users.RoleType // "" for routes open to any signed-in user
	Public       bool           // Reachable without signing in
}

var dashboards = users.ByRole[Route]{
	Route{Path: RouteStudentDashboard, View: ViewStudentDashboard, RequiredRole: users.RoleStudent},
	Route{Path: RouteFacultyDashboard, View: ViewFacultyDashboard, RequiredRole: users.RoleFaculty},
	Route{Path: RouteAdminDashboard, View: ViewAdminDashboard, RequiredRole: users.RoleAdmin},
}

var routeTable = func() map[string]Route {
	table := map[string]Route{
		RouteRoot:  {Path: RouteRoot},
		RouteLogin: {Path: RouteLogin, View: ViewLogin, Public: true},
	}
	for _, role := range users.Roles() {
		r, _ := dashboards.For(role)
		table[r.Path] = r
	}
	return table
}()

// Lookup finds the route for path, ignoring a query string and a trailing
// slash.
func Lookup(path string) (Route, bool) {
	r, ok := routeTable[Normalize(path)]
	return r, ok
}

// Normalize strips the query, fragment and any trailing slash from path.
func Normalize(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return RouteRoot
		}
	}
	return path
}

// HomePath is role's dashboard route. ok is false outside the closed role
// set.
func HomePath(role users.RoleType) (string, bool) {
	r, ok := dashboards.For(role)
	return r.Path, ok
}

type DecisionKind int

const (
	DecisionLoading DecisionKind = iota
	DecisionRedirect
	DecisionRender
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	}
	return "unknown"
}

// Decision is the guard's verdict for one request.
type Decision struct {
	Kind   DecisionKind
	Target string // Redirect destination
	Route  Route  // Rendered route
	Layout bool   // Render inside the signed-in layout
}

func loading() Decision {
	return Decision{Kind: DecisionLoading}
}

func redirect(target string) Decision {
	return Decision{Kind: DecisionRedirect, Target: target}
}

func render(r Route, layout bool) Decision {
	return Decision{Kind: DecisionRender, Route: r, Layout: layout}
}

// Resolve applies the access rules to path for session. It is a pure
// function: a role mismatch sends the user to their own dashboard, never to
// the login page.
func Resolve(session sessions.Session, path string) Decision {
	if session.State == sessions.StateChecking {
		return loading()
	}

	route, ok := Lookup(path)
	if !ok {
		return redirect(RouteRoot)
	}

	home, authenticated := "", session.IsAuthenticated()
	if authenticated {
		if home, ok = HomePath(session.User.Role); !ok {
			authenticated = false
		}
	}

	switch {
	case route.Path == RouteRoot && authenticated:
		return redirect(home)
	case route.Path == RouteRoot:
		return redirect(RouteLogin)
	case route.Public && authenticated:
		return redirect(home)
	case route.Public:
		return render(route, false)
	case !authenticated:
		return redirect(RouteLogin)
	case route.RequiredRole != "" && route.RequiredRole != session.User.Role:
		return redirect(home)
	}
	return render(route, true)
}
