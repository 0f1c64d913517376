// Package graph maintains the per-tenant ingestion graph: datasources,
// documents, chunks with their denormalized embeddings, directed chunk
// relations, connectors and agents.
//
// Every operation is parameterized by an organization id and every query
// filters by it; there is no cross-tenant read path here. Deletion relies on
// the database's foreign-key cascades: removing an organization sweeps its
// datasources, then documents, connectors, chunks and relations before the
// delete commits; removing a document sweeps its chunks and, transitively,
// any relation touching them.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratumhq/stratum/internal/storage"
)

// Store persists the knowledge graph. Safe for concurrent use; each
// operation is individually atomic but not composed into larger transactions
// internally. Callers needing multi-entity atomicity wrap operations in
// their own transaction.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a graph Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// CreateDatasource creates a datasource under a tenant, optionally scoped to
// a conversation.
func (s *Store) CreateDatasource(ctx context.Context, p CreateDatasourceParams) (*Datasource, error) {
	if p.ResID == "" {
		return nil, fmt.Errorf("create datasource: res_id is required: %w", storage.ErrSchemaViolation)
	}

	ds := Datasource{
		OrganizationID: p.OrganizationID,
		ConversationID: p.ConversationID,
		ResID:          p.ResID,
		Name:           p.Name,
		Purpose:        p.Purpose,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO datasources (organization_id, conversation_id, res_id, name, purpose)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.ConversationID, p.ResID, p.Name, p.Purpose,
	).Scan(&ds.ID, &ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create datasource %q: %w", p.ResID, storage.MapError(err))
	}

	s.logger.Debug("created datasource", "id", ds.ID, "organization_id", ds.OrganizationID, "res_id", ds.ResID)
	return &ds, nil
}

// GetDatasource looks up a datasource by handle within a tenant. If several
// share a handle the most recent wins.
func (s *Store) GetDatasource(ctx context.Context, orgID int64, resID string) (*Datasource, error) {
	var ds Datasource
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, conversation_id, res_id, name, purpose, created_at, updated_at
		 FROM datasources
		 WHERE organization_id = $1 AND res_id = $2
		 ORDER BY id DESC
		 LIMIT 1`,
		orgID, resID,
	).Scan(&ds.ID, &ds.OrganizationID, &ds.ConversationID, &ds.ResID, &ds.Name, &ds.Purpose, &ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get datasource %q: %w", resID, storage.MapError(err))
	}
	return &ds, nil
}

// DeleteDatasource removes a datasource and cascades through its documents,
// chunks, relations and connectors.
func (s *Store) DeleteDatasource(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM datasources WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete datasource %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete datasource %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted datasource", "id", id, "organization_id", orgID)
	return nil
}

// CreateDocument records an ingested document. Returns storage.ErrConflict
// if the (organization, datasource, res_id) triple already exists.
func (s *Store) CreateDocument(ctx context.Context, p CreateDocumentParams) (*Document, error) {
	if p.ResID == "" {
		return nil, fmt.Errorf("create document: res_id is required: %w", storage.ErrSchemaViolation)
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	metadata := p.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	doc := Document{
		OrganizationID: p.OrganizationID,
		DatasourceID:   p.DatasourceID,
		ResID:          p.ResID,
		Name:           p.Name,
		Content:        p.Content,
		ContentType:    p.ContentType,
		ContentHash:    p.ContentHash,
		ContentSize:    p.ContentSize,
		IndexCostUSD:   p.IndexCostUSD,
		Metadata:       metadata,
		Status:         p.Status,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents
		   (organization_id, datasource_id, res_id, name, content, content_type,
		    content_hash, content_size, index_cost_usd, metadata, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.DatasourceID, p.ResID, p.Name, p.Content, p.ContentType,
		p.ContentHash, p.ContentSize, p.IndexCostUSD, metadata, p.Status,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document %q: %w", p.ResID, storage.MapError(err))
	}

	s.logger.Debug("created document", "id", doc.ID, "datasource_id", doc.DatasourceID, "res_id", doc.ResID)
	return &doc, nil
}

// GetDocument looks up a document by handle within a datasource.
func (s *Store) GetDocument(ctx context.Context, orgID, datasourceID int64, resID string) (*Document, error) {
	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, datasource_id, res_id, name, content, content_type,
		        content_hash, content_size, index_cost_usd, metadata, status, created_at, updated_at
		 FROM documents
		 WHERE organization_id = $1 AND datasource_id = $2 AND res_id = $3`,
		orgID, datasourceID, resID,
	).Scan(&doc.ID, &doc.OrganizationID, &doc.DatasourceID, &doc.ResID, &doc.Name, &doc.Content,
		&doc.ContentType, &doc.ContentHash, &doc.ContentSize, &doc.IndexCostUSD, &doc.Metadata,
		&doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", resID, storage.MapError(err))
	}
	return &doc, nil
}

// UpdateDocumentStatus moves a document through its ingestion state machine
// and refreshes updated_at.
func (s *Store) UpdateDocumentStatus(ctx context.Context, orgID, id int64, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = now()
		 WHERE id = $2 AND organization_id = $3`,
		status, id, orgID,
	)
	if err != nil {
		return fmt.Errorf("update document %d status: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document %d status: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListDocuments returns a datasource's documents in insertion order.
func (s *Store) ListDocuments(ctx context.Context, orgID, datasourceID int64) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, datasource_id, res_id, name, content, content_type,
		        content_hash, content_size, index_cost_usd, metadata, status, created_at, updated_at
		 FROM documents
		 WHERE organization_id = $1 AND datasource_id = $2
		 ORDER BY id`,
		orgID, datasourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents for datasource %d: %w", datasourceID, storage.MapError(err))
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.OrganizationID, &doc.DatasourceID, &doc.ResID, &doc.Name,
			&doc.Content, &doc.ContentType, &doc.ContentHash, &doc.ContentSize, &doc.IndexCostUSD,
			&doc.Metadata, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents for datasource %d: %w", datasourceID, err)
	}
	return docs, nil
}

// DeleteDocument removes a document and cascades its chunks; relations on
// those chunks cascade transitively.
func (s *Store) DeleteDocument(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete document %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted document", "id", id, "organization_id", orgID)
	return nil
}
