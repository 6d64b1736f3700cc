package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/voiceboard/voiceboard/internal/models"
)

// ratePattern is the ulule/limiter rate format: count dash period, e.g.
// "5-S", "100-M", "1000-H".
var ratePattern = regexp.MustCompile(`^\d+-[SMH]$`)

const defaultRatelimitConfigKey = "default"

// RatelimitConfigRepository persists the assistant-route rate limit so it
// survives restarts and can be tuned at runtime via the configure CLI.
type RatelimitConfigRepository struct {
	db *DB
}

func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get returns the stored rate limit, or nil when none has been set and the
// server should fall back to its built-in default.
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config WHERE config_key = $1
	`, defaultRatelimitConfigKey)
	c := &models.RatelimitConfig{}
	err := row.Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return c, nil
}

// Set upserts the rate limit. The rate must be in ulule/limiter notation;
// a malformed value is rejected here rather than at the next reload.
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	rate := strings.TrimSpace(c.Rate)
	if !ratePattern.MatchString(rate) {
		return fmt.Errorf("invalid rate %q: expected <count>-<S|M|H>, e.g. 100-M", rate)
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`, defaultRatelimitConfigKey, rate, now, now)
	if err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
