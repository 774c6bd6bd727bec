package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearc-ig/guideresto/pkg/config"
	"github.com/hearc-ig/guideresto/pkg/retry"
)

// ApplicationName is reported to Postgres (pg_stat_activity.application_name).
const ApplicationName = "guideresto"

// Pool fallbacks for zero Config fields.
const (
	fallbackMaxConns        = 10
	fallbackMaxConnLifetime = time.Hour
	fallbackMaxConnIdleTime = 30 * time.Minute
)

// DB wraps the pgxpool connection pool that hands out session connections.
type DB struct {
	*pgxpool.Pool
}

// Config holds pool settings. Zero fields use the fallbacks above.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	// Retry controls how often the initial ping is attempted. Nil uses retry.DefaultConfig.
	Retry *retry.Config
}

// ConfigFrom builds pool settings from the database section of the configuration.
func ConfigFrom(c *config.DatabaseConfig) *Config {
	return &Config{
		URL:             c.ConnectionURL(),
		MaxConnections:  c.MaxConnections,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}

func (c *Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pc.MaxConns = fallbackMaxConns
	if c.MaxConnections > 0 {
		pc.MaxConns = c.MaxConnections
	}
	pc.MaxConnLifetime = fallbackMaxConnLifetime
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	pc.MaxConnIdleTime = fallbackMaxConnIdleTime
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}

	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return pc, nil
}

// NewConnection opens the pool. The first ping is retried so the process can
// start alongside a database that is still booting.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := retry.DoIfRetryable(ctx, cfg.Retry, func() error { return pool.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
