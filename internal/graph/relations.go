package graph

import (
	"context"
	"fmt"

	"github.com/stratumhq/stratum/internal/storage"
)

// CreateRelation records a directed edge between two chunks. Both endpoints
// must exist under the given organization; the check happens here at the
// write boundary because the schema's tenant-scoped foreign keys alone do
// not prevent an edge from reaching into another tenant's chunk. Self-loops
// and duplicate edges are permitted.
func (s *Store) CreateRelation(ctx context.Context, p CreateRelationParams) (*Relation, error) {
	ids := []int64{p.ChunkID}
	if p.TargetChunkID != p.ChunkID {
		ids = append(ids, p.TargetChunkID)
	}

	var owned int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE organization_id = $1 AND id = ANY($2)`,
		p.OrganizationID, ids,
	).Scan(&owned)
	if err != nil {
		return nil, fmt.Errorf("create relation: verify endpoints: %w", storage.MapError(err))
	}
	if owned != len(ids) {
		return nil, fmt.Errorf("create relation %d -> %d: endpoint not in organization %d: %w",
			p.ChunkID, p.TargetChunkID, p.OrganizationID, storage.ErrNotFound)
	}

	r := Relation{
		OrganizationID: p.OrganizationID,
		DatasourceID:   p.DatasourceID,
		ChunkID:        p.ChunkID,
		TargetChunkID:  p.TargetChunkID,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO relations (organization_id, datasource_id, chunk_id, target_chunk_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.DatasourceID, p.ChunkID, p.TargetChunkID,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create relation %d -> %d: %w", p.ChunkID, p.TargetChunkID, storage.MapError(err))
	}

	s.logger.Debug("created relation", "id", r.ID, "chunk_id", r.ChunkID, "target_chunk_id", r.TargetChunkID)
	return &r, nil
}

// ListRelations returns every edge touching the chunk, as origin or target,
// in insertion order.
func (s *Store) ListRelations(ctx context.Context, orgID, chunkID int64) ([]Relation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, datasource_id, chunk_id, target_chunk_id, created_at, updated_at
		 FROM relations
		 WHERE organization_id = $1 AND (chunk_id = $2 OR target_chunk_id = $2)
		 ORDER BY id`,
		orgID, chunkID,
	)
	if err != nil {
		return nil, fmt.Errorf("list relations for chunk %d: %w", chunkID, storage.MapError(err))
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.DatasourceID, &r.ChunkID, &r.TargetChunkID,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relations for chunk %d: %w", chunkID, err)
	}
	return relations, nil
}
