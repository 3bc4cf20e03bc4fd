package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/attendance-client/users"
)

// AttendanceAggregate is the overall attended/total count. Either side may
// be missing from the payload.
type AttendanceAggregate struct {
	AttendedClasses *int `json:"attendedClasses"`
	TotalClasses    *int `json:"totalClasses"`
}

// CourseAttendance is one row of a student's per-course attendance.
type CourseAttendance struct {
	CourseID         int64  `json:"course_id"`
	Subject          string `json:"subject"`
	Faculty          string `json:"faculty"`
	TotalClassesHeld *int   `json:"total_classes_held"`
	AttendedClasses  *int   `json:"attended_classes"`
}

type StudentDashboard struct {
	User               users.User          `json:"user"`
	RollNumber         string              `json:"roll_number"`
	CourseOfStudy      string              `json:"course_of_study"`
	EnrolledCourses    []int64             `json:"enrolled_courses"`
	Overall            AttendanceAggregate `json:"overall"`
	DetailedAttendance []CourseAttendance  `json:"detailedAttendance"`
}

func (c *Client) StudentDashboard(ctx context.Context) (*StudentDashboard, error) {
	var d StudentDashboard
	if err := c.Do(ctx, http.MethodGet, EndpointStudentDashboard, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
