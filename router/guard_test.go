package router_test

import (
	"testing"

	"github.com/jrsteele09/attendance-client/router"
	"github.com/jrsteele09/attendance-client/sessions"
	"github.com/jrsteele09/attendance-client/users"
	"github.com/stretchr/testify/require"
)

func signedIn(role users.RoleType) sessions.Session {
	return sessions.Session{State: sessions.StateAuthenticated, User: &users.User{ID: 1, Username: "u", Role: role}}
}

var (
	checking  = sessions.Session{State: sessions.StateChecking}
	anonymous = sessions.Session{State: sessions.StateAnonymous}
)

func TestResolveRedirects(t *testing.T) {
	tests := []struct {
		name    string
		session sessions.Session
		path    string
		target  string
	}{
		{"anonymous root", anonymous, "/", router.RouteLogin},
		{"anonymous dashboard", anonymous, router.RouteStudentDashboard, router.RouteLogin},
		{"anonymous admin", anonymous, router.RouteAdminDashboard, router.RouteLogin},
		{"student root", signedIn(users.RoleStudent), "/", router.RouteStudentDashboard},
		{"faculty root", signedIn(users.RoleFaculty), "/", router.RouteFacultyDashboard},
		{"admin login page", signedIn(users.RoleAdmin), router.RouteLogin, router.RouteAdminDashboard},
		{"faculty on admin dashboard", signedIn(users.RoleFaculty), router.RouteAdminDashboard, router.RouteFacultyDashboard},
		{"student on faculty dashboard", signedIn(users.RoleStudent), router.RouteFacultyDashboard, router.RouteStudentDashboard},
		{"admin on student dashboard", signedIn(users.RoleAdmin), router.RouteStudentDashboard, router.RouteAdminDashboard},
		{"unmatched signed in", signedIn(users.RoleAdmin), "/reports", router.RouteRoot},
		{"unmatched anonymous", anonymous, "/student/grades", router.RouteRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := router.Resolve(tt.session, tt.path)
			require.Equal(t, router.DecisionRedirect, d.Kind)
			require.Equal(t, tt.target, d.Target)
		})
	}
}

func TestResolveRenders(t *testing.T) {
	d := router.Resolve(signedIn(users.RoleFaculty), router.RouteFacultyDashboard)
	require.Equal(t, router.DecisionRender, d.Kind)
	require.Equal(t, router.ViewFacultyDashboard, d.Route.View)
	require.True(t, d.Layout)

	d = router.Resolve(anonymous, router.RouteLogin)
	require.Equal(t, router.DecisionRender, d.Kind)
	require.Equal(t, router.ViewLogin, d.Route.View)
	require.False(t, d.Layout)
}

func TestResolveChecking(t *testing.T) {
	for _, path := range []string{"/", router.RouteLogin, router.RouteAdminDashboard, "/nowhere"} {
		d := router.Resolve(checking, path)
		require.Equal(t, router.DecisionLoading, d.Kind, path)
		require.Empty(t, d.Target)
	}
}

func TestResolveNeverSendsSignedInUsersToLogin(t *testing.T) {
	paths := []string{"/", router.RouteLogin, router.RouteStudentDashboard, router.RouteFacultyDashboard, router.RouteAdminDashboard, "/x"}
	for _, role := range users.Roles() {
		for _, path := range paths {
			d := router.Resolve(signedIn(role), path)
			require.NotEqual(t, router.RouteLogin, d.Target, "%s %s", role, path)
		}
	}
}

func TestResolveAuthenticatedWithoutValidRole(t *testing.T) {
	s := sessions.Session{State: sessions.StateAuthenticated, User: &users.User{Username: "ghost", Role: "janitor"}}
	d := router.Resolve(s, router.RouteStudentDashboard)
	require.Equal(t, router.DecisionRedirect, d.Kind)
	require.Equal(t, router.RouteLogin, d.Target)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "/", router.Normalize(""))
	require.Equal(t, "/", router.Normalize("/"))
	require.Equal(t, "/login", router.Normalize("/login/"))
	require.Equal(t, "/login", router.Normalize("login"))
	require.Equal(t, "/admin/dashboard", router.Normalize("/admin/dashboard?tab=courses"))

	r, ok := router.Lookup("/student/dashboard/")
	require.True(t, ok)
	require.Equal(t, users.RoleStudent, r.RequiredRole)
}

func TestHomePath(t *testing.T) {
	for role, want := range map[users.RoleType]string{
		users.RoleStudent: router.RouteStudentDashboard,
		users.RoleFaculty: router.RouteFacultyDashboard,
		users.RoleAdmin:   router.RouteAdminDashboard,
	} {
		path, ok := router.HomePath(role)
		require.True(t, ok)
		require.Equal(t, want, path)
	}
	_, ok := router.HomePath("visitor")
	require.False(t, ok)
}
