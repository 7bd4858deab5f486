// Package config loads runtime tuning knobs from the environment,
// grounded on the teacher's internal/config/config.go getEnv/getEnvInt
// pattern.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
)

// Config holds the tuning knobs shared by every cmd/osmdb-* entry
// point.
type Config struct {
	Cache CacheConfig
	Store StoreConfig
}

// CacheConfig holds the object cache sizing of spec §4.B.
type CacheConfig struct {
	BudgetBytes int
	NThreads    int
}

// StoreConfig holds the store's snapshot directory. The store database
// path itself is a positional argument of each CLI, not a config knob.
type StoreConfig struct {
	SnapshotDir string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		Cache: CacheConfig{
			BudgetBytes: getEnvInt("OSMDB_CACHE_BYTES", int(cache.DefaultCacheBytes)),
			NThreads:    getEnvInt("OSMDB_NTHREADS", 4),
		},
		Store: StoreConfig{
			SnapshotDir: getEnv("OSMDB_SNAPSHOT_DIR", "."),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("config: invalid integer value for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}
