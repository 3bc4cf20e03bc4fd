package apiclient

import (
	"fmt"
	"strings"
)

// Endpoint paths, relative to the API base URL.
const (
	EndpointLogin            = "/auth/login/"
	EndpointRefresh          = "/token/refresh/"
	EndpointStudentDashboard = "/student/dashboard/"
	EndpointFacultyRoster    = "/faculty/students-for-class/"
	EndpointMarkAttendance   = "/faculty/mark-attendance/"
	EndpointFaculty          = "/faculty/"
	EndpointCourses          = "/courses/"
)

// Login and refresh never carry the bearer token and never trigger a refresh.
var unauthenticatedEndpoints = map[string]bool{
	EndpointLogin:   true,
	EndpointRefresh: true,
}

func facultyPath(id int64) string {
	return fmt.Sprintf("%s%d/", EndpointFaculty, id)
}

func coursePath(id int64) string {
	return fmt.Sprintf("%s%d/", EndpointCourses, id)
}

func joinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
