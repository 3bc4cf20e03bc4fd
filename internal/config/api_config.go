package config

import (
	"strings"
	"time"
)

const (
	baseURLVar = "ATTENDANCE_API_URL"
	timeoutVar = "ATTENDANCE_TIMEOUT"

	DefaultBaseURL = "http://127.0.0.1:8000/api"
)

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the API root every endpoint path is appended to, without
// a trailing slash.
func (API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, DefaultBaseURL), "/")
}

func (API) GetRequestTimeout() time.Duration {
	return GetEnvAsDuration(timeoutVar, 10*time.Second)
}
