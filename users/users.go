package users

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RoleType is the closed set of roles a college user can hold.
type RoleType string

const (
	RoleStudent RoleType = "student"
	RoleFaculty RoleType = "faculty"
	RoleAdmin   RoleType = "admin"
)

// Roles lists every role in display order.
func Roles() []RoleType {
	return []RoleType{RoleStudent, RoleFaculty, RoleAdmin}
}

// ParseRole accepts the backend's role strings, case-insensitively.
func ParseRole(s string) (RoleType, error) {
	r := RoleType(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r RoleType) Valid() bool {
	_, ok := ByRole[struct{}]{}.For(r)
	return ok
}

// Title returns the role capitalised for headings, e.g. "Faculty".
func (r RoleType) Title() string {
	return cases.Title(language.English).String(string(r))
}

func (r *RoleType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ByRole holds one value per role. Build it with an unkeyed literal so that
// adding a role breaks every table that forgets it.
type ByRole[T any] struct {
	Student T
	Faculty T
	Admin   T
}

// For returns the value for r. ok is false for a role outside the closed set.
func (b ByRole[T]) For(r RoleType) (value T, ok bool) {
	switch r {
	case RoleStudent:
		return b.Student, true
	case RoleFaculty:
		return b.Faculty, true
	case RoleAdmin:
		return b.Admin, true
	}
	return value, false
}

// User is the client's cached, read-only copy of the backend user profile.
type User struct {
	ID            int64    `json:"id"`                        // Backend primary key
	Username      string   `json:"username"`                  // Login name
	Role          RoleType `json:"role"`                      // Fixed for the session once set by login
	FirstName     string   `json:"first_name,omitempty"`      // First name of the user
	LastName      string   `json:"last_name,omitempty"`       // Last name of the user
	Email         string   `json:"email,omitempty"`           // User's email address
	Department    string   `json:"department,omitempty"`      // Department, faculty and admin users
	RollNumber    string   `json:"roll_number,omitempty"`     // Student profile only
	CourseOfStudy string   `json:"course_of_study,omitempty"` // Student profile only
}

// DisplayName is the full name when the backend sent one, else the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

func (u *User) HasRole(role RoleType) bool {
	return u != nil && u.Role == role
}

// Validate checks the fields every cached profile must carry.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.Username == "" && u.ID == 0 {
		return fmt.Errorf("user has no identity")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user %q has invalid role %q", u.Username, u.Role)
	}
	return nil
}
