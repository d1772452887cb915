// Package db provides PostgreSQL connection management and schema migrations.
package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"bet-tracker-bot/internal/config"
)

// applicationName tags the bot's sessions in pg_stat_activity.
const applicationName = "bet-tracker-bot"

// Pool defaults used when the configuration leaves a value unset.
const (
	defaultConnectTimeout  = 10 * time.Second
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
	healthCheckPeriod      = 30 * time.Second
)

// requiredTables must exist for the bot to serve; they are created by
// the embedded migrations.
var requiredTables = []string{"picks", "counters"}

// ErrSchemaMissing is returned by HealthCheck when the database answers
// but a table created by the migrations is absent.
var ErrSchemaMissing = errors.New("database schema missing")

// Pool wraps pgxpool.Pool with additional functionality.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int32("max_conns", poolConfig.MaxConns).
		Dur("query_timeout", cfg.QueryTimeout).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	return &Pool{Pool: pool}, nil
}

// buildPoolConfig turns the database settings into a pgxpool config.
// MinConns is a quarter of PoolSize, at least one.
func buildPoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = max(int32(cfg.PoolSize/4), 1)
	poolConfig.MaxConns = max(int32(cfg.PoolSize), poolConfig.MinConns)

	poolConfig.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, defaultConnectTimeout)
	poolConfig.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, defaultMaxConnLifetime)
	poolConfig.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultMaxConnIdleTime)
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	// Enforced server side, in milliseconds.
	if cfg.QueryTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.QueryTimeout.Milliseconds(), 10)
	}

	return poolConfig, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// Close logs the pool's lifetime counters and closes it.
func (p *Pool) Close() {
	if p.Pool == nil {
		return
	}
	stat := p.Pool.Stat()
	log.Info().
		Int64("acquires", stat.AcquireCount()).
		Int64("canceled_acquires", stat.CanceledAcquireCount()).
		Dur("acquire_wait", stat.AcquireDuration()).
		Int32("open_conns", stat.TotalConns()).
		Msg("Closing PostgreSQL connection pool")
	p.Pool.Close()
}

// HealthCheck pings the database and checks that the pick store's tables
// exist. A reachable but unmigrated database fails with ErrSchemaMissing.
func (p *Pool) HealthCheck(ctx context.Context) error {
	if err := p.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var missing []string
	err := p.Pool.QueryRow(ctx, `
		SELECT COALESCE(array_agg(t), '{}')
		FROM unnest($1::text[]) AS t
		WHERE to_regclass('public.' || t) IS NULL
	`, requiredTables).Scan(&missing)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrSchemaMissing, missing)
	}
	return nil
}
