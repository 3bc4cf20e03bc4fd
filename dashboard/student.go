package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/attendance-client/apiclient"
)

type StudentAPI interface {
	StudentDashboard(ctx context.Context) (*apiclient.StudentDashboard, error)
}

// CourseRow is one course of the student's report.
type CourseRow struct {
	CourseID   int64
	Subject    string
	Faculty    string
	Held       *int
	Attended   *int
	Percentage float64
	Low        bool // Below LowAttendanceThreshold
}

type StudentDashboard struct {
	Name          string
	RollNumber    string
	CourseOfStudy string
	TotalClasses  *int
	Attended      *int
	Overall       float64
	Courses       []CourseRow
}

func LoadStudent(ctx context.Context, api StudentAPI) (*StudentDashboard, error) {
	data, err := api.StudentDashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("[dashboard LoadStudent] %w", err)
	}

	d := &StudentDashboard{
		Name:          data.User.DisplayName(),
		RollNumber:    data.RollNumber,
		CourseOfStudy: data.CourseOfStudy,
		TotalClasses:  data.Overall.TotalClasses,
		Attended:      data.Overall.AttendedClasses,
		Overall:       CalculatePercentage(data.Overall.AttendedClasses, data.Overall.TotalClasses),
	}
	for _, c := range data.DetailedAttendance {
		pct := CalculatePercentage(c.AttendedClasses, c.TotalClassesHeld)
		d.Courses = append(d.Courses, CourseRow{
			CourseID:   c.CourseID,
			Subject:    c.Subject,
			Faculty:    c.Faculty,
			Held:       c.TotalClassesHeld,
			Attended:   c.AttendedClasses,
			Percentage: pct,
			Low:        pct < LowAttendanceThreshold,
		})
	}
	return d, nil
}

// LowCourses lists the courses below the attendance threshold.
func (d *StudentDashboard) LowCourses() []CourseRow {
	var low []CourseRow
	for _, c := range d.Courses {
		if c.Low {
			low = append(low, c)
		}
	}
	return low
}

func (d *StudentDashboard) Render(w io.Writer) error {
	heading(w, d.Name+"'s Dashboard")
	fmt.Fprintf(w, "Roll No: %s | Course: %s\n\n", d.RollNumber, d.CourseOfStudy)
	fmt.Fprintf(w, "Total Classes:      %s\n", formatCount(d.TotalClasses))
	fmt.Fprintf(w, "Classes Attended:   %s\n", formatCount(d.Attended))
	fmt.Fprintf(w, "Overall Attendance: %s (%s, required minimum: %.0f%%)\n", formatPercent(d.Overall), Standing(d.Overall), LowAttendanceThreshold)

	section(w, "Subject-wise Report")
	if len(d.Courses) == 0 {
		fmt.Fprintln(w, "No enrolled courses.")
		return nil
	}
	t := newTable(w, "SUBJECT", "FACULTY", "TOTAL CLASSES", "ATTENDED", "PERCENTAGE", "STATUS")
	for _, c := range d.Courses {
		status := "OK"
		if c.Low {
			status = "LOW"
		}
		t.row(c.Subject, c.Faculty, formatCount(c.Held), formatCount(c.Attended), formatPercent(c.Percentage), status)
	}
	return t.flush()
}
