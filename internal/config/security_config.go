package config

import "time"

const (
	jwksURLVar   = "ATTENDANCE_JWKS_URL"
	clockSkewVar = "ATTENDANCE_CLOCK_SKEW"
)

type SecurityConfig interface {
	GetJWKSURL() string
	GetClockSkew() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetJWKSURL returns the key set used to verify stored access tokens at
// startup. Empty skips signature verification and only the expiry is checked.
func (Security) GetJWKSURL() string {
	return GetEnv(jwksURLVar, "")
}

func (Security) GetClockSkew() time.Duration {
	return GetEnvAsDuration(clockSkewVar, 0)
}
