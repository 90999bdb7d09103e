// Package database implements store.Store on Postgres via pgx.
package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres wraps a pgx pool and implements store.Store.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Connect builds the pool from environment variables (POSTGRES_USER,
// POSTGRES_PASSWORD, PG_HOST, PG_PORT, PG_DATABASE) and verifies the
// connection with a bounded ping.
func Connect(ctx context.Context) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.Pool.Close()
}
