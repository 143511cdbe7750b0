// Package session keeps anonymous session tokens in Postgres so every API instance can
// resolve them without Redis.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"printshop-commerce/internal/db"
)

type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}
}

// Save stores token until now+ttl. Saving a known token extends it.
func (r *Postgres) Save(ctx context.Context, token string, ttl time.Duration) error {
	const q = `
INSERT INTO anonymous_sessions (token, expires_at)
VALUES ($1, now() + make_interval(secs => $2))
ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at
`
	if _, err := r.pool.Exec(ctx, q, token, ttl.Seconds()); err != nil {
		return fmt.Errorf("save session: %w", db.Translate(err))
	}
	return nil
}

func (r *Postgres) Exists(ctx context.Context, token string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM anonymous_sessions WHERE token = $1 AND expires_at > now())`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, token).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup session: %w", db.Translate(err))
	}
	return ok, nil
}

func (r *Postgres) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Purge deletes expired sessions and reports how many were removed.
func (r *Postgres) Purge(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM anonymous_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", db.Translate(err))
	}
	if n := cmd.RowsAffected(); n > 0 {
		r.logger.Info("session: purged expired", zap.Int64("count", n))
	}
	return cmd.RowsAffected(), nil
}
