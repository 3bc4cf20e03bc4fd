package router

// Route path constants
const (
	RouteRoot  = "/"
	RouteLogin = "/login"

	RouteStudentDashboard = "/student/dashboard"
	RouteFacultyDashboard = "/faculty/dashboard"
	RouteAdminDashboard   = "/admin/dashboard"
)
