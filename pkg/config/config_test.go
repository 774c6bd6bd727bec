package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears variables that would otherwise leak from the developer's shell.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	unsetEnv(t, "PGHOST", "PGPORT", "PGDATABASE", "CACHE_ENABLED", "SEQUENCE_BACKEND", "REDIS_HOST")

	path := writeConfig(t, `
env: "test"
database:
  host: "db.example.com"
  port: 5433
  user: "tester"
  database: "guide_test"
cache:
  enabled: false
`)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PGPASSWORD", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env, "env var should override yaml")
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, SequenceBackendPostgres, cfg.Sequence.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	unsetEnv(t, "ENVIRONMENT", "PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "CACHE_ENABLED",
		"SEQUENCE_BACKEND", "SEQUENCE_KEY_PREFIX", "PGAUTO_MIGRATE")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "guideresto", cfg.Database.Database)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "guideresto:seq:", cfg.Sequence.KeyPrefix)
}

func TestLoad_YAMLCanDisableBooleans(t *testing.T) {
	unsetEnv(t, "CACHE_ENABLED", "PGAUTO_MIGRATE", "SEQUENCE_BACKEND", "REDIS_HOST")
	path := writeConfig(t, `
database:
  auto_migrate: false
cache:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Database.AutoMigrate, "database.auto_migrate")
	assert.False(t, cfg.Cache.Enabled, "cache.enabled")
}

func TestLoad_YAMLWithoutBooleansKeepsDefaults(t *testing.T) {
	unsetEnv(t, "CACHE_ENABLED", "PGAUTO_MIGRATE", "SEQUENCE_BACKEND", "REDIS_HOST",
		"PGMAX_CONN_LIFETIME", "PGMAX_CONN_IDLE_TIME")
	path := writeConfig(t, `
database:
  host: "db.example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnIdleTime)
}

func TestLoad_EnvDisablesCache(t *testing.T) {
	unsetEnv(t, "SEQUENCE_BACKEND", "REDIS_HOST")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_RedisBackendRequiresHost(t *testing.T) {
	unsetEnv(t, "REDIS_HOST")
	path := writeConfig(t, `
sequence:
  backend: "Redis"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires redis.host")
}

func TestLoad_UnknownBackend(t *testing.T) {
	unsetEnv(t, "SEQUENCE_BACKEND")
	path := writeConfig(t, `
sequence:
  backend: "oracle"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sequence backend")
}

func TestDatabaseConfig_ConnectionURL(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "guide",
		Password: "p@ss word",
		Database: "guideresto",
		SSLMode:  "disable",
	}

	got := cfg.ConnectionURL()
	assert.True(t, strings.HasPrefix(got, "postgres://guide:"), got)
	assert.Contains(t, got, "@db.example.com:5432/guideresto?sslmode=disable")
	assert.NotContains(t, got, "p@ss word", "password must be escaped")
}

func TestResolveHostForDocker_LeavesRemoteHosts(t *testing.T) {
	assert.Equal(t, "db.example.com", ResolveHostForDocker("db.example.com"))
}
