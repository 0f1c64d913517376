// Package tenant manages organizations and their API keys: the identity and
// tenancy root of the stratum store.
package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratumhq/stratum/internal/storage"
)

// Store persists organizations and API keys.
//
// Store is safe for concurrent use by multiple goroutines; all consistency
// relies on the database's row-level locking.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a tenant Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// CreateOrganization creates a new tenant with the given external handle.
// Returns storage.ErrConflict if the handle is already taken.
func (s *Store) CreateOrganization(ctx context.Context, resID string) (*Organization, error) {
	if resID == "" {
		return nil, fmt.Errorf("create organization: res_id is required: %w", storage.ErrSchemaViolation)
	}

	var org Organization
	err := s.pool.QueryRow(ctx,
		`INSERT INTO organizations (res_id)
		 VALUES ($1)
		 RETURNING id, res_id, created_at, updated_at`,
		resID,
	).Scan(&org.ID, &org.ResID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create organization %q: %w", resID, storage.MapError(err))
	}

	s.logger.Debug("created organization", "id", org.ID, "res_id", org.ResID)
	return &org, nil
}

// GetOrganization looks up a tenant by its external handle.
func (s *Store) GetOrganization(ctx context.Context, resID string) (*Organization, error) {
	var org Organization
	err := s.pool.QueryRow(ctx,
		`SELECT id, res_id, created_at, updated_at
		 FROM organizations
		 WHERE res_id = $1`,
		resID,
	).Scan(&org.ID, &org.ResID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get organization %q: %w", resID, storage.MapError(err))
	}
	return &org, nil
}

// DeleteOrganization removes a tenant and, through foreign-key cascades,
// everything it owns: datasources, documents, chunks, relations, connectors,
// agents, conversations, turns, cost logs and rag logs. Audit log rows
// survive with their organization reference nulled out.
//
// The cascade runs synchronously inside the deleting transaction, so latency
// is proportional to the tenant's data volume.
func (s *Store) DeleteOrganization(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete organization %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted organization", "id", id)
	return nil
}

// CreateAPIKey stores a new hashed credential for a tenant.
// Returns storage.ErrConflict if the token hash already exists anywhere in
// the system: the hash is the global lookup key for authentication.
func (s *Store) CreateAPIKey(ctx context.Context, p CreateAPIKeyParams) (*APIKey, error) {
	if p.TokenHash == "" {
		return nil, fmt.Errorf("create api key: token_hash is required: %w", storage.ErrSchemaViolation)
	}
	if p.Scopes == nil {
		p.Scopes = []string{}
	}

	var key APIKey
	err := s.pool.QueryRow(ctx,
		`INSERT INTO api_keys (organization_id, token_hash, name, scopes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, organization_id, token_hash, name, scopes, created_at, updated_at`,
		p.OrganizationID, p.TokenHash, p.Name, p.Scopes,
	).Scan(&key.ID, &key.OrganizationID, &key.TokenHash, &key.Name, &key.Scopes, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create api key for organization %d: %w", p.OrganizationID, storage.MapError(err))
	}

	s.logger.Debug("created api key", "id", key.ID, "organization_id", key.OrganizationID, "name", key.Name)
	return &key, nil
}

// Authenticate performs an exact-match lookup on the indexed token hash.
// Returns storage.ErrNotFound on a miss.
func (s *Store) Authenticate(ctx context.Context, tokenHash string) (*APIKey, error) {
	var key APIKey
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, token_hash, name, scopes, created_at, updated_at
		 FROM api_keys
		 WHERE token_hash = $1`,
		tokenHash,
	).Scan(&key.ID, &key.OrganizationID, &key.TokenHash, &key.Name, &key.Scopes, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", storage.MapError(err))
	}
	return &key, nil
}

// ListAPIKeys returns all keys for a tenant in creation order.
func (s *Store) ListAPIKeys(ctx context.Context, orgID int64) ([]APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, token_hash, name, scopes, created_at, updated_at
		 FROM api_keys
		 WHERE organization_id = $1
		 ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys for organization %d: %w", orgID, storage.MapError(err))
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(&key.ID, &key.OrganizationID, &key.TokenHash, &key.Name, &key.Scopes, &key.CreatedAt, &key.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list api keys for organization %d: %w", orgID, err)
	}
	return keys, nil
}

// DeleteAPIKey removes one key, scoped to its owning tenant.
func (s *Store) DeleteAPIKey(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete api key %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete api key %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted api key", "id", id, "organization_id", orgID)
	return nil
}
