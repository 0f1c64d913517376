// Package convo persists conversations and their normalized turn rows.
//
// An earlier schema kept the whole transcript as a mutable history blob on
// the conversation; that column only exists inside migration history now.
// Turns are the sole supported shape.
package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratumhq/stratum/internal/storage"
)

// Store persists conversations and turns. Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a conversation Store. A nil logger falls back to
// slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// CreateConversation starts a new conversation. Returns storage.ErrConflict
// if the res_id is already used within the tenant.
func (s *Store) CreateConversation(ctx context.Context, p CreateConversationParams) (*Conversation, error) {
	if p.ResID == "" {
		return nil, fmt.Errorf("create conversation: res_id is required: %w", storage.ErrSchemaViolation)
	}

	c := Conversation{
		OrganizationID: p.OrganizationID,
		APIKeyID:       p.APIKeyID,
		ResID:          p.ResID,
		Title:          p.Title,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (organization_id, api_key_id, res_id, title)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.APIKeyID, p.ResID, p.Title,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation %q: %w", p.ResID, storage.MapError(err))
	}

	s.logger.Debug("created conversation", "id", c.ID, "organization_id", c.OrganizationID, "res_id", c.ResID)
	return &c, nil
}

// GetConversation looks up a conversation by handle within a tenant.
func (s *Store) GetConversation(ctx context.Context, orgID int64, resID string) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, api_key_id, res_id, title, created_at, updated_at
		 FROM conversations
		 WHERE organization_id = $1 AND res_id = $2`,
		orgID, resID,
	).Scan(&c.ID, &c.OrganizationID, &c.APIKeyID, &c.ResID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get conversation %q: %w", resID, storage.MapError(err))
	}
	return &c, nil
}

// ListConversations returns a tenant's conversations, most recently updated
// first.
func (s *Store) ListConversations(ctx context.Context, orgID int64, limit, offset int32) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, api_key_id, res_id, title, created_at, updated_at
		 FROM conversations
		 WHERE organization_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations for organization %d: %w", orgID, storage.MapError(err))
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.APIKeyID, &c.ResID, &c.Title,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations for organization %d: %w", orgID, err)
	}
	return conversations, nil
}

// DeleteConversation removes a conversation and cascades its turns and any
// conversation-scoped datasources.
func (s *Store) DeleteConversation(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete conversation %d: %w", id, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete conversation %d: %w", id, storage.ErrNotFound)
	}

	s.logger.Debug("deleted conversation", "id", id, "organization_id", orgID)
	return nil
}

// AppendTurn adds a turn to a conversation and refreshes the conversation's
// updated_at. Returns storage.ErrConflict if the turn's res_id has ever been
// used anywhere in the system, even under a different tenant.
func (s *Store) AppendTurn(ctx context.Context, p AppendTurnParams) (*Turn, error) {
	if p.ResID == "" {
		return nil, fmt.Errorf("append turn: res_id is required: %w", storage.ErrSchemaViolation)
	}
	payload := p.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	metadata := p.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	t := Turn{
		OrganizationID: p.OrganizationID,
		APIKeyID:       p.APIKeyID,
		ConversationID: p.ConversationID,
		ResID:          p.ResID,
		Payload:        payload,
		Metadata:       metadata,
		Tokens:         p.Tokens,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO turns (organization_id, api_key_id, conversation_id, res_id, payload, metadata, tokens)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.APIKeyID, p.ConversationID, p.ResID, payload, metadata, p.Tokens,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("append turn %q: %w", p.ResID, storage.MapError(err))
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1 AND organization_id = $2`,
		p.ConversationID, p.OrganizationID,
	); err != nil {
		s.logger.Warn("failed to touch conversation after turn", "conversation_id", p.ConversationID, "error", err)
	}

	s.logger.Debug("appended turn", "id", t.ID, "conversation_id", t.ConversationID, "tokens", t.Tokens)
	return &t, nil
}

// ListTurns returns a conversation's turns in insertion order.
func (s *Store) ListTurns(ctx context.Context, orgID, conversationID int64) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, api_key_id, conversation_id, res_id, payload, metadata, tokens,
		        created_at, updated_at
		 FROM turns
		 WHERE organization_id = $1 AND conversation_id = $2
		 ORDER BY id`,
		orgID, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns for conversation %d: %w", conversationID, storage.MapError(err))
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.APIKeyID, &t.ConversationID, &t.ResID,
			&t.Payload, &t.Metadata, &t.Tokens, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list turns for conversation %d: %w", conversationID, err)
	}
	return turns, nil
}
