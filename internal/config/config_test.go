package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
)

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("OSMDB_CACHE_BYTES", "")
	t.Setenv("OSMDB_NTHREADS", "")
	t.Setenv("OSMDB_SNAPSHOT_DIR", "")

	cfg := Load()

	assert.Equal(t, int(cache.DefaultCacheBytes), cfg.Cache.BudgetBytes)
	assert.Equal(t, 4, cfg.Cache.NThreads)
	assert.Equal(t, ".", cfg.Store.SnapshotDir)
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	t.Setenv("OSMDB_CACHE_BYTES", "128")
	t.Setenv("OSMDB_NTHREADS", "8")
	t.Setenv("OSMDB_SNAPSHOT_DIR", "/var/osmdb")

	cfg := Load()

	assert.Equal(t, 128, cfg.Cache.BudgetBytes)
	assert.Equal(t, 8, cfg.Cache.NThreads)
	assert.Equal(t, "/var/osmdb", cfg.Store.SnapshotDir)
}

func TestLoadFallsBackOnInvalidInteger(t *testing.T) {
	t.Setenv("OSMDB_CACHE_BYTES", "not-a-number")

	cfg := Load()

	assert.Equal(t, int(cache.DefaultCacheBytes), cfg.Cache.BudgetBytes)
}
