package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Postgres driver registration.
	_ "github.com/lib/pq"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	pingTimeout            = 5 * time.Second
)

// DB wraps a sql.DB connection pool.
type DB struct {
	*sql.DB
}

// New opens a Postgres connection pool and verifies connectivity.
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not already exist.
func (d *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chat_history (
			id UUID PRIMARY KEY,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_created_at
			ON chat_history (created_at)`,
		`CREATE TABLE IF NOT EXISTS cors_config (
			config_key TEXT PRIMARY KEY,
			allowed_origins TEXT NOT NULL,
			allow_credentials BOOLEAN NOT NULL DEFAULT false,
			max_age INTEGER NOT NULL DEFAULT 300,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ratelimit_config (
			config_key TEXT PRIMARY KEY,
			rate TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
