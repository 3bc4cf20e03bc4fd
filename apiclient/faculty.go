package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/attendance-client/users"
)

// DateLayout is the backend's attendance date format.
const DateLayout = "2006-01-02"

// StudentProfile is a roster entry.
type StudentProfile struct {
	User            users.User `json:"user"`
	RollNumber      string     `json:"roll_number"`
	CourseOfStudy   string     `json:"course_of_study"`
	EnrolledCourses []int64    `json:"enrolled_courses"`
}

// EnrolledIn reports whether the student takes courseID.
func (p StudentProfile) EnrolledIn(courseID int64) bool {
	for _, id := range p.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "P"
	StatusAbsent  AttendanceStatus = "A"
)

// Toggle flips Present and Absent.
func (s AttendanceStatus) Toggle() AttendanceStatus {
	if s == StatusPresent {
		return StatusAbsent
	}
	return StatusPresent
}

func (s AttendanceStatus) Label() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	}
	return string(s)
}

// AttendanceMark is one record of a bulk marking request.
type AttendanceMark struct {
	CourseID  int64            `json:"course_id"`
	StudentID int64            `json:"student_id"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
}

func NewAttendanceMark(courseID, studentID int64, date time.Time, status AttendanceStatus) AttendanceMark {
	return AttendanceMark{CourseID: courseID, StudentID: studentID, Date: date.Format(DateLayout), Status: status}
}

// MarkResult is the outcome of a bulk marking request. Partial is set when
// the backend answered 207 and Errors lists the rejected records.
type MarkResult struct {
	Message string        `json:"message"`
	Errors  []RecordError `json:"errors,omitempty"`
}

func (r *MarkResult) Partial() bool {
	return len(r.Errors) > 0
}

// FacultyRoster returns the students enrolled in the caller's courses.
func (c *Client) FacultyRoster(ctx context.Context) ([]StudentProfile, error) {
	var roster []StudentProfile
	if err := c.Do(ctx, http.MethodGet, EndpointFacultyRoster, nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// MarkAttendance submits marks in one request. Rejected records do not fail
// the call; they come back in MarkResult.Errors.
func (c *Client) MarkAttendance(ctx context.Context, marks []AttendanceMark) (*MarkResult, error) {
	if len(marks) == 0 {
		return nil, fmt.Errorf("[apiclient MarkAttendance] no attendance records to submit")
	}
	var result MarkResult
	if err := c.Do(ctx, http.MethodPost, EndpointMarkAttendance, marks, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
