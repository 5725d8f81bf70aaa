package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDevPort() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetUserAgent() string
}

type StorageConfig interface {
	GetStoreDriver() StoreDriver
	GetStorePath() string
	GetRedisURL() string
	GetStoreNamespace() string
}

type mainConfig struct {
	EnvVars
	API
	Storage
}

// New returns the environment backed configuration. A .env file in the working
// directory is loaded first when present; variables already set win.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
