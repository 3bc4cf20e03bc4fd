package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	SecurityConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetMetricsFile() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Security
}

// New loads an optional .env file from the working directory and returns a
// Config that reads the process environment on every call.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
