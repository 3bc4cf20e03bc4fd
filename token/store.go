package token

import "github.com/jrsteele09/attendance-client/users"

// Fixed storage keys. All three are written and cleared together.
const (
	KeyAccess  = "access_token"
	KeyRefresh = "refresh_token"
	KeyUser    = "user"
)

// Store persists the live TokenPair and the cached user profile for one
// origin. Calls are synchronous. A missing value is not an error: getters
// return the zero value. Errors mean the storage itself is unavailable and
// callers treat that as "no stored session".
type Store interface {
	// Save overwrites the stored pair
	Save(pair TokenPair) error

	// GetAccess returns the stored access token
	GetAccess() (string, error)

	// GetRefresh returns the stored refresh token
	GetRefresh() (string, error)

	// Clear removes the tokens and the cached user
	Clear() error

	// SaveUser caches the user profile returned by login
	SaveUser(user *users.User) error

	// GetUser returns the cached profile, nil when none is stored
	GetUser() (*users.User, error)
}
