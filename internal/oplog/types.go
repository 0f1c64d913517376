package oplog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records an administrative action. Its tenant references are
// nullable: when an organization or API key is deleted the row survives
// with the reference set to null, preserving the forensic trail.
type AuditLog struct {
	ID             int64
	OrganizationID *int64
	APIKeyID       *int64
	IPAddress      string
	TransactionID  string
	Action         string
	Status         string
	Details        json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CostLog attributes a USD cost figure, reported by the inference provider,
// to a tenant and API key.
type CostLog struct {
	ID                int64
	OrganizationID    int64
	APIKeyID          int64
	TransactionID     string
	TransactionAction string
	CostUSD           float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RagLog stores a raw transaction log, pre-compressed by the caller, along
// with both byte sizes so compression-ratio analytics never need to
// decompress.
type RagLog struct {
	ID               int64
	OrganizationID   int64
	APIKeyID         int64
	TransactionID    string
	CompressedLog    []byte
	CompressedSize   int64
	UncompressedSize int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AuditEntry carries the fields for a new audit record.
type AuditEntry struct {
	OrganizationID *int64
	APIKeyID       *int64
	IPAddress      string
	TransactionID  string
	Action         string
	Status         string
	Details        json.RawMessage
}

// CostEntry carries the fields for a new cost record.
type CostEntry struct {
	OrganizationID    int64
	APIKeyID          int64
	TransactionID     string
	TransactionAction string
	CostUSD           float64
}

// RagEntry carries the fields for a new raw-log record.
type RagEntry struct {
	OrganizationID   int64
	APIKeyID         int64
	TransactionID    string
	CompressedLog    []byte
	CompressedSize   int64
	UncompressedSize int64
}

// CompressionStats sums the stored sizes for a tenant's rag logs.
type CompressionStats struct {
	Entries           int64
	CompressedBytes   int64
	UncompressedBytes int64
}

// NewTransactionID generates a fresh transaction identifier for log writers
// that do not receive one from upstream.
func NewTransactionID() string {
	return uuid.NewString()
}
