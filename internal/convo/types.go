package convo

import (
	"encoding/json"
	"time"
)

// Conversation is a per-tenant, per-API-key thread of turns.
type Conversation struct {
	ID             int64
	OrganizationID int64
	APIKeyID       int64
	ResID          string
	Title          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Turn is one request/response exchange within a conversation, carrying its
// own payload, metadata and token accounting.
type Turn struct {
	ID             int64
	OrganizationID int64
	APIKeyID       int64
	ConversationID int64
	ResID          string
	Payload        json.RawMessage
	Metadata       json.RawMessage
	Tokens         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateConversationParams carries the fields for a new conversation.
type CreateConversationParams struct {
	OrganizationID int64
	APIKeyID       int64
	ResID          string
	Title          string
}

// AppendTurnParams carries the fields for a new turn. ResID must be unique
// across the whole system, not just the tenant.
type AppendTurnParams struct {
	OrganizationID int64
	APIKeyID       int64
	ConversationID int64
	ResID          string
	Payload        json.RawMessage
	Metadata       json.RawMessage
	Tokens         int64
}
