package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config.yaml"

// Sequence backends.
const (
	SequenceBackendPostgres = "postgres"
	SequenceBackendRedis    = "redis"
)

// Config holds all configuration for the guide persistence layer.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""` // empty: derived from Env

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Sequence SequenceConfig `yaml:"sequence"`

	// SeedFile is an optional YAML catalog loaded at startup.
	SeedFile string `yaml:"seed_file" env:"SEED_FILE" env-default:""`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"guideresto"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"guideresto"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"PGMAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"PGMAX_CONN_IDLE_TIME" env-default:"30m"`
	// AutoMigrate applies pending schema migrations at startup. Defaults to true (see Load).
	AutoMigrate bool `yaml:"auto_migrate" env:"PGAUTO_MIGRATE"`
}

// RedisConfig holds Redis configuration. Redis is only used as an
// alternative identifier source; an empty host disables it.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
}

// CacheConfig controls the identity caches of the restaurant and restaurant type mappers.
type CacheConfig struct {
	// Enabled defaults to true (see Load).
	Enabled bool `yaml:"enabled" env:"CACHE_ENABLED"`
}

// SequenceConfig selects where new identifiers come from.
type SequenceConfig struct {
	Backend   string `yaml:"backend" env:"SEQUENCE_BACKEND" env-default:"postgres"`
	KeyPrefix string `yaml:"key_prefix" env:"SEQUENCE_KEY_PREFIX" env-default:"guideresto:seq:"`
}

// Load reads configuration from path (DefaultPath when empty) with environment variable overrides.
// A missing file is not an error: defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// cleanenv applies env-default to any zero field, so boolean defaults of true
	// are set here instead; an explicit false in YAML or env then survives.
	cfg := &Config{
		Database: DatabaseConfig{AutoMigrate: true},
		Cache:    CacheConfig{Enabled: true},
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Sequence.Backend = strings.ToLower(strings.TrimSpace(c.Sequence.Backend))
	switch c.Sequence.Backend {
	case SequenceBackendPostgres:
	case SequenceBackendRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("sequence backend %q requires redis.host", SequenceBackendRedis)
		}
	default:
		return fmt.Errorf("unknown sequence backend %q", c.Sequence.Backend)
	}

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port %d out of range", c.Database.Port)
	}
	return nil
}

// IsProduction reports whether the environment is production-like.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ConnectionURL returns a postgres:// URL usable by both pgxpool and database/sql.
func (c *DatabaseConfig) ConnectionURL() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   ResolveHostForDocker(c.Host) + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when running in a container.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
