package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	metricsFileVar = "ATTENDANCE_METRICS_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Attendance")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

func (EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, "info"))
}

// GetMetricsFile returns the textfile-collector path client metrics are
// written to on exit. Empty disables the dump.
func (EnvVars) GetMetricsFile() string {
	return GetEnv(metricsFileVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
