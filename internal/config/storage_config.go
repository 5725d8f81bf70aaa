package config

import (
	"os"
	"path/filepath"
	"strings"
)

// StoreDriver selects where the credential pair and preferences are persisted.
type StoreDriver string

const (
	StoreDriverFile   StoreDriver = "file"
	StoreDriverRedis  StoreDriver = "redis"
	StoreDriverMemory StoreDriver = "memory"
)

const (
	storeDriverVar    = "STORE_DRIVER"
	storePathVar      = "STORE_PATH"
	redisURLVar       = "REDIS_URL"
	storeNamespaceVar = "STORE_NAMESPACE"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStoreDriver() StoreDriver {
	switch StoreDriver(strings.ToLower(GetEnv(storeDriverVar, string(StoreDriverFile)))) {
	case StoreDriverRedis:
		return StoreDriverRedis
	case StoreDriverMemory:
		return StoreDriverMemory
	default:
		return StoreDriverFile
	}
}

func (Storage) GetStorePath() string {
	if path := GetEnv(storePathVar, ""); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".partner-portal", "state.json")
	}
	return filepath.Join(home, ".partner-portal", "state.json")
}

func (Storage) GetRedisURL() string {
	return GetEnv(redisURLVar, "redis://localhost:6379/0")
}

// GetStoreNamespace separates several portal identities sharing one redis.
func (Storage) GetStoreNamespace() string {
	return GetEnv(storeNamespaceVar, "default")
}
