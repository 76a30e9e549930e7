// Package pg is the pgx/v5-backed implementation of store.Gateway.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
)

// Open parses databaseURL, builds a pool capped at maxConns, and waits
// for it to accept connections before returning — retrying with
// exponential backoff up to connectTimeout. This absorbs the ordinary
// race between the orchestrator process and a database container that
// is still booting; it is not used anywhere else in this package,
// because business-level sync failures must surface immediately rather
// than retry silently.
func Open(ctx context.Context, databaseURL string, maxConns int32, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse connection string: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	b := backoff.WithContext(backoff.NewExponentialBackOff(), waitCtx)
	ping := func() error {
		conn, err := pool.Acquire(waitCtx)
		if err != nil {
			logging.WarnCF("store", "waiting for database", logging.Fields{"error": err.Error()})
			return err
		}
		defer conn.Release()
		return conn.Ping(waitCtx)
	}

	if err := backoff.Retry(ping, b); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: database not reachable after %s: %w", connectTimeout, err)
	}

	logging.InfoC("store", "database pool ready")
	return pool, nil
}
