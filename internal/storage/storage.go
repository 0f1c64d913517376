// Package storage provides the PostgreSQL connection layer shared by all
// stores, together with the error taxonomy the stores translate database
// failures into.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a pgx connection pool from a DSN or postgres:// URL and
// verifies the connection with a ping.
//
// The pool is safe for concurrent use by many request-handling workers; no
// in-process locking is layered on top of it. Consistency relies entirely on
// the database's row-level locking and foreign-key cascades.
func Open(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
