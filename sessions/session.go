package sessions

import "github.com/jrsteele09/attendance-client/users"

// State is the authentication state of the running client.
type State int

const (
	StateChecking State = iota // Stored token not validated yet
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "CHECKING"
	case StateAnonymous:
		return "ANONYMOUS"
	case StateAuthenticated:
		return "AUTHENTICATED"
	}
	return "UNKNOWN"
}

// Session is an in-memory snapshot of who is signed in. It is rebuilt at
// boot from the token store and reset on logout.
type Session struct {
	State State
	User  *users.User // Set only when State is StateAuthenticated
}

func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// Role returns the signed-in user's role, "" when anonymous.
func (s Session) Role() users.RoleType {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.User.Role
}

// HasRole reports whether the session is signed in as role.
func (s Session) HasRole(role users.RoleType) bool {
	return s.IsAuthenticated() && s.User.HasRole(role)
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
