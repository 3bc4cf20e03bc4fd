package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

type StoreDriver string

const (
	StoreFile   StoreDriver = "file"
	StoreRedis  StoreDriver = "redis"
	StoreMemory StoreDriver = "memory"
)

const (
	storeDriverVar   = "ATTENDANCE_STORE"
	dataFolderVar    = "ATTENDANCE_DATA_FOLDER"
	storeKeyVar      = "ATTENDANCE_STORE_KEY"
	redisAddrVar     = "ATTENDANCE_REDIS_ADDR"
	redisPasswordVar = "ATTENDANCE_REDIS_PASSWORD"
	redisDBVar       = "ATTENDANCE_REDIS_DB"
	redisTimeoutVar  = "ATTENDANCE_REDIS_TIMEOUT"
)

type StorageConfig interface {
	GetStoreDriver() StoreDriver
	GetDataFolder() string
	GetStoreKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisTimeout() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStoreDriver falls back to the file store for unknown values.
func (Storage) GetStoreDriver() StoreDriver {
	switch d := StoreDriver(strings.ToLower(GetEnv(storeDriverVar, string(StoreFile)))); d {
	case StoreFile, StoreRedis, StoreMemory:
		return d
	default:
		return StoreFile
	}
}

func (Storage) GetDataFolder() string {
	if folder := GetEnv(dataFolderVar, ""); folder != "" {
		return folder
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "attendance")
}

// GetStoreKey returns the passphrase used to encrypt the file store. Empty
// means tokens are stored in plain JSON.
func (Storage) GetStoreKey() string {
	return GetEnv(storeKeyVar, "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Storage) GetRedisDB() int {
	return GetEnvAsInt(redisDBVar, 0)
}

func (Storage) GetRedisTimeout() time.Duration {
	return GetEnvAsDuration(redisTimeoutVar, 2*time.Second)
}
