package graph

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/stratumhq/stratum/internal/embedcache"
	"github.com/stratumhq/stratum/internal/storage"
)

// CreateChunk stores a chunk together with its resolved embedding vector.
// The vector is a denormalized copy of a cache entry; the two writes are
// independent by design so hot-path chunk reads never join the cache.
// A vector of the wrong length fails with storage.ErrSchemaViolation before
// any I/O.
func (s *Store) CreateChunk(ctx context.Context, p CreateChunkParams) (*Chunk, error) {
	if len(p.Embedding) != embedcache.VectorDimension {
		return nil, fmt.Errorf("create chunk: vector has %d dimensions, want %d: %w",
			len(p.Embedding), embedcache.VectorDimension, storage.ErrSchemaViolation)
	}
	if p.ContentSize == 0 {
		p.ContentSize = int64(len(p.Content))
	}

	c := Chunk{
		OrganizationID: p.OrganizationID,
		DatasourceID:   p.DatasourceID,
		DocumentID:     p.DocumentID,
		Type:           p.Type,
		Content:        p.Content,
		ContentSize:    p.ContentSize,
		ContentTokens:  p.ContentTokens,
		Embedding:      p.Embedding,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chunks
		   (organization_id, datasource_id, document_id, chunk_type, content,
		    content_size, content_tokens, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.DatasourceID, p.DocumentID, p.Type, p.Content,
		p.ContentSize, p.ContentTokens, pgvector.NewVector(p.Embedding),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chunk for document %d: %w", p.DocumentID, storage.MapError(err))
	}

	s.logger.Debug("created chunk", "id", c.ID, "document_id", c.DocumentID, "tokens", c.ContentTokens)
	return &c, nil
}

// ListChunks returns a document's chunks in insertion order.
func (s *Store) ListChunks(ctx context.Context, orgID, documentID int64) ([]Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, datasource_id, document_id, chunk_type, content,
		        content_size, content_tokens, embedding, created_at, updated_at
		 FROM chunks
		 WHERE organization_id = $1 AND document_id = $2
		 ORDER BY id`,
		orgID, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chunks for document %d: %w", documentID, storage.MapError(err))
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chunks for document %d: %w", documentID, err)
	}
	return chunks, nil
}

// DeleteChunk removes a chunk; relations referencing it as origin or target
// cascade with it.
func (s *Store) DeleteChunk(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chunks WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete chunk %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete chunk %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted chunk", "id", id, "organization_id", orgID)
	return nil
}

// NearestChunks returns up to limit chunks of a datasource ordered by cosine
// distance to the query vector. This is the storage-level query retrieval
// ranking builds on; ranking itself lives elsewhere.
func (s *Store) NearestChunks(ctx context.Context, orgID, datasourceID int64, query []float32, limit int32) ([]ChunkMatch, error) {
	if len(query) != embedcache.VectorDimension {
		return nil, fmt.Errorf("nearest chunks: vector has %d dimensions, want %d: %w",
			len(query), embedcache.VectorDimension, storage.ErrSchemaViolation)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, datasource_id, document_id, chunk_type, content,
		        content_size, content_tokens, embedding, created_at, updated_at,
		        embedding <=> $3 AS distance
		 FROM chunks
		 WHERE organization_id = $1 AND datasource_id = $2
		 ORDER BY distance
		 LIMIT $4`,
		orgID, datasourceID, pgvector.NewVector(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest chunks for datasource %d: %w", datasourceID, storage.MapError(err))
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var (
			c        Chunk
			vec      pgvector.Vector
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.DatasourceID, &c.DocumentID, &c.Type,
			&c.Content, &c.ContentSize, &c.ContentTokens, &vec, &c.CreatedAt, &c.UpdatedAt,
			&distance); err != nil {
			return nil, fmt.Errorf("scan chunk match: %w", err)
		}
		c.Embedding = vec.Slice()
		matches = append(matches, ChunkMatch{Chunk: c, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest chunks for datasource %d: %w", datasourceID, err)
	}
	return matches, nil
}

// scanChunk scans a chunk row including its vector column.
func scanChunk(row interface {
	Scan(dest ...any) error
}) (Chunk, error) {
	var (
		c   Chunk
		vec pgvector.Vector
	)
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.DatasourceID, &c.DocumentID, &c.Type,
		&c.Content, &c.ContentSize, &c.ContentTokens, &vec, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Chunk{}, fmt.Errorf("scan chunk: %w", err)
	}
	c.Embedding = vec.Slice()
	return c, nil
}
