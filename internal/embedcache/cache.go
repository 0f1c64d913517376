// Package embedcache implements the content-addressable embedding cache.
//
// The cache is global: it deduplicates embedding computation across tenants
// and across time, keyed by (model, content category, content hash). It is
// append-only and non-deduplicating at the storage level. A well-behaved
// caller does Lookup first and only Stores on a miss; two workers racing on
// the same miss may both insert, leaving duplicate rows with identical
// vectors. That is tolerated: for a deterministic embedding model the hash
// guarantees vector equivalence, so duplicates waste space without breaking
// correctness, and any Lookup answer is valid.
//
// There is no eviction; the cache grows monotonically.
package embedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/stratumhq/stratum/internal/storage"
)

// VectorDimension is the platform-wide embedding dimensionality. Every
// stored vector, cached or denormalized onto a chunk, has exactly this
// length.
const VectorDimension = 1024

// Embedding is one cache row.
type Embedding struct {
	ID          int64
	Model       string
	ContentType string
	ContentHash string
	Vector      []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store provides cache lookups and appends over PostgreSQL + pgvector.
// Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a cache Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Lookup returns the most recently stored vector for an exact key match.
// A miss returns (nil, false, nil); it is an expected outcome, not an error.
// The query walks the composite (content_type, model, content_hash) index
// and takes no locks.
func (s *Store) Lookup(ctx context.Context, model, contentType, contentHash string) ([]float32, bool, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT embedding
		 FROM embeddings
		 WHERE content_type = $1 AND model = $2 AND content_hash = $3
		 ORDER BY id DESC
		 LIMIT 1`,
		contentType, model, contentHash,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup (%s, %s): %w", model, contentType, err)
	}

	return vec.Slice(), true, nil
}

// Store appends a cache row. It never updates or replaces existing rows and
// enforces no uniqueness: concurrent writers for the same key both succeed.
// A vector whose length differs from VectorDimension fails with
// storage.ErrSchemaViolation before any I/O.
func (s *Store) Store(ctx context.Context, model, contentType, contentHash string, vector []float32) (*Embedding, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("cache store: vector has %d dimensions, want %d: %w",
			len(vector), VectorDimension, storage.ErrSchemaViolation)
	}

	e := Embedding{
		Model:       model,
		ContentType: contentType,
		ContentHash: contentHash,
		Vector:      vector,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO embeddings (model, content_type, content_hash, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		model, contentType, contentHash, pgvector.NewVector(vector),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("cache store (%s, %s): %w", model, contentType, storage.MapError(err))
	}

	s.logger.Debug("stored embedding", "id", e.ID, "model", model, "content_type", contentType)
	return &e, nil
}

// Count returns the total number of cache rows, duplicates included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return count, nil
}
