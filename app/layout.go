package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/attendance-client/router"
	"github.com/jrsteele09/attendance-client/users"
)

// NavItem is a link in the signed-in layout.
type NavItem struct {
	Text string
	Path string
}

var navigation = users.ByRole[[]NavItem]{
	[]NavItem{
		{Text: "Student Dashboard", Path: router.RouteStudentDashboard},
	},
	[]NavItem{
		{Text: "Faculty Dashboard", Path: router.RouteFacultyDashboard},
		{Text: "Mark Attendance", Path: router.RouteFacultyDashboard},
	},
	[]NavItem{
		{Text: "Admin Dashboard", Path: router.RouteAdminDashboard},
		{Text: "Manage Faculty", Path: router.RouteAdminDashboard},
	},
}

// Navigation returns the layout links for role.
func Navigation(role users.RoleType) []NavItem {
	items, _ := navigation.For(role)
	return items
}

func renderHeader(w io.Writer, user *users.User, current string) {
	fmt.Fprintf(w, "CMS - %s\n", strings.ToUpper(string(user.Role)))
	fmt.Fprintf(w, "%s | %s Portal\n", user.DisplayName(), user.Role.Title())

	var links []string
	for _, item := range Navigation(user.Role) {
		link := item.Text
		if item.Path == current {
			link = "*" + link
		}
		links = append(links, "["+link+"]")
	}
	fmt.Fprintln(w, strings.Join(links, " "))
	fmt.Fprintln(w, strings.Repeat("-", 60))
}
