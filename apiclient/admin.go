package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/attendance-client/users"
)

// Course is an admin course record. Faculty is nil when no one teaches it.
type Course struct {
	ID           int64  `json:"id"`
	CourseCode   string `json:"course_code"`
	Title        string `json:"title"`
	Faculty      *int64 `json:"faculty"`
	FacultyName  string `json:"faculty_name"`
	TotalClasses int    `json:"total_classes"`
}

type NewFaculty struct {
	Username   string `json:"username"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
}

type NewCourse struct {
	CourseCode string `json:"course_code"`
	Title      string `json:"title"`
	Faculty    *int64 `json:"faculty,omitempty"`
}

func (c *Client) ListFaculty(ctx context.Context) ([]users.User, error) {
	var list []users.User
	if err := c.Do(ctx, http.MethodGet, EndpointFaculty, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetFaculty(ctx context.Context, id int64) (*users.User, error) {
	var u users.User
	if err := c.Do(ctx, http.MethodGet, facultyPath(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateFaculty(ctx context.Context, f NewFaculty) (*users.User, error) {
	var u users.User
	if err := c.Do(ctx, http.MethodPost, EndpointFaculty, f, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteFaculty(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, facultyPath(id), nil, nil)
}

func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	var list []Course
	if err := c.Do(ctx, http.MethodGet, EndpointCourses, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetCourse(ctx context.Context, id int64) (*Course, error) {
	var course Course
	if err := c.Do(ctx, http.MethodGet, coursePath(id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) CreateCourse(ctx context.Context, nc NewCourse) (*Course, error) {
	var course Course
	if err := c.Do(ctx, http.MethodPost, EndpointCourses, nc, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, coursePath(id), nil, nil)
}
