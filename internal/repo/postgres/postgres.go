package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/ordersync/pkg/retry"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool — создаёт пул соединений к Postgres на базе DSN.
// maxConns > 0 переопределяет размер пула.
// Ping повторяется с backoff, пока база не ответит или не истечёт startupTimeout
// (база может подниматься одновременно с сервисом); при startupTimeout <= 0 попытка одна.
func NewPool(ctx context.Context, dsn string, maxConns int32, startupTimeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	// Жизненный цикл соединений.
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if connErr := retry.UntilTimeout(ctx, startupTimeout, pool.Ping); connErr != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", connErr)
	}

	return pool, nil
}
