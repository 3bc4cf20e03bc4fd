package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/attendance-client/apiclient"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/internal/utils"
	"github.com/jrsteele09/attendance-client/users"
)

type AdminAPI interface {
	ListFaculty(ctx context.Context) ([]users.User, error)
	ListCourses(ctx context.Context) ([]apiclient.Course, error)
	CreateFaculty(ctx context.Context, f apiclient.NewFaculty) (*users.User, error)
	CreateCourse(ctx context.Context, c apiclient.NewCourse) (*apiclient.Course, error)
	DeleteFaculty(ctx context.Context, id int64) error
	DeleteCourse(ctx context.Context, id int64) error
}

// AdminDashboard holds the faculty and course tables. Every change is made
// on the server and followed by a reload.
type AdminDashboard struct {
	api     AdminAPI
	Faculty []users.User
	Courses []apiclient.Course
}

// AdminSummary is the row of counts at the top of the admin view.
type AdminSummary struct {
	Faculty           int
	Courses           int
	UnassignedCourses int
	ClassesHeld       int
}

func LoadAdmin(ctx context.Context, api AdminAPI) (*AdminDashboard, error) {
	d := &AdminDashboard{api: api}
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *AdminDashboard) Reload(ctx context.Context) error {
	faculty, err := d.api.ListFaculty(ctx)
	if err != nil {
		return fmt.Errorf("[dashboard AdminDashboard.Reload] listing faculty: %w", err)
	}
	courses, err := d.api.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("[dashboard AdminDashboard.Reload] listing courses: %w", err)
	}
	d.Faculty, d.Courses = faculty, courses
	return nil
}

func (d *AdminDashboard) Summary() AdminSummary {
	s := AdminSummary{Faculty: len(d.Faculty), Courses: len(d.Courses)}
	for _, c := range d.Courses {
		if c.Faculty == nil {
			s.UnassignedCourses++
		}
		s.ClassesHeld += c.TotalClasses
	}
	return s
}

// ClassesAssigned counts the courses taught by facultyID.
func (d *AdminDashboard) ClassesAssigned(facultyID int64) int {
	n := 0
	for _, c := range d.Courses {
		if utils.ValueOr(c.Faculty, 0) == facultyID {
			n++
		}
	}
	return n
}

func (d *AdminDashboard) CreateFaculty(ctx context.Context, f apiclient.NewFaculty) (*users.User, error) {
	if strings.TrimSpace(f.Username) == "" {
		return nil, apperrors.NewUserError(apperrors.ErrValidation, "A username is required.")
	}
	u, err := d.api.CreateFaculty(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("[dashboard CreateFaculty] %w", err)
	}
	return u, d.Reload(ctx)
}

func (d *AdminDashboard) CreateCourse(ctx context.Context, c apiclient.NewCourse) (*apiclient.Course, error) {
	if strings.TrimSpace(c.CourseCode) == "" || strings.TrimSpace(c.Title) == "" {
		return nil, apperrors.NewUserError(apperrors.ErrValidation, "A course code and title are required.")
	}
	course, err := d.api.CreateCourse(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("[dashboard CreateCourse] %w", err)
	}
	return course, d.Reload(ctx)
}

func (d *AdminDashboard) DeleteFaculty(ctx context.Context, id int64) error {
	if err := d.api.DeleteFaculty(ctx, id); err != nil {
		return fmt.Errorf("[dashboard DeleteFaculty] %w", err)
	}
	return d.Reload(ctx)
}

func (d *AdminDashboard) DeleteCourse(ctx context.Context, id int64) error {
	if err := d.api.DeleteCourse(ctx, id); err != nil {
		return fmt.Errorf("[dashboard DeleteCourse] %w", err)
	}
	return d.Reload(ctx)
}

func (d *AdminDashboard) Render(w io.Writer) error {
	heading(w, "Admin Dashboard")
	s := d.Summary()
	fmt.Fprintf(w, "Total Faculty: %d | Total Courses: %d | Unassigned Courses: %d | Classes Held: %d\n",
		s.Faculty, s.Courses, s.UnassignedCourses, s.ClassesHeld)

	section(w, "Manage Faculty Records")
	if len(d.Faculty) == 0 {
		fmt.Fprintln(w, "No faculty records.")
	} else {
		t := newTable(w, "ID", "NAME", "USERNAME", "DEPARTMENT", "CLASSES ASSIGNED")
		for _, f := range d.Faculty {
			t.row(fmt.Sprint(f.ID), f.DisplayName(), f.Username, orDash(f.Department), fmt.Sprint(d.ClassesAssigned(f.ID)))
		}
		if err := t.flush(); err != nil {
			return err
		}
	}

	section(w, "Courses")
	if len(d.Courses) == 0 {
		fmt.Fprintln(w, "No courses.")
		return nil
	}
	t := newTable(w, "ID", "CODE", "TITLE", "FACULTY", "CLASSES HELD")
	for _, c := range d.Courses {
		t.row(fmt.Sprint(c.ID), c.CourseCode, c.Title, orDash(c.FacultyName), fmt.Sprint(c.TotalClasses))
	}
	return t.flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
