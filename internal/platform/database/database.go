// Package database opens the PostgreSQL pool behind the postgres progress
// store and the tutor event log, and owns their schema.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConnLifetime = 30 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// Tables lists the tables created by Migrate.
var Tables = []string{"student_progress", "tutor_events"}

const schema = `
CREATE TABLE IF NOT EXISTS student_progress (
	student_id TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tutor_events (
	id         BIGSERIAL PRIMARY KEY,
	student_id TEXT NOT NULL,
	session_id TEXT,
	event_type TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS tutor_events_student_idx ON tutor_events (student_id, created_at);
`

// DB holds the shared pgx pool.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL builds a pool config from url with the given connection bounds.
func ParseURL(url string, maxConns, minConns int) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	if maxConns < 1 {
		return nil, fmt.Errorf("max conns must be at least 1, got %d", maxConns)
	}
	if minConns < 0 || minConns > maxConns {
		return nil, fmt.Errorf("min conns must be between 0 and %d, got %d", maxConns, minConns)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime
	return cfg, nil
}

// New opens the pool and fails fast if the server does not answer a ping.
func New(ctx context.Context, url string, maxConns, minConns int) (*DB, error) {
	cfg, err := ParseURL(url, maxConns, minConns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.ConnConfig.Host, err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate creates any missing tables. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck is used by the readiness probe.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}
