// Package oplog is the append-only operational log store: audit records,
// USD cost attribution and compressed raw transaction logs.
//
// The package issues no UPDATE or DELETE against its tables; rows exist
// purely as a durable, queryable trail.
package oplog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratumhq/stratum/internal/storage"
)

// Store appends and queries operational logs. Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates an oplog Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// RecordAudit appends an audit record. Organization and API key references
// may be nil for system-level actions.
func (s *Store) RecordAudit(ctx context.Context, e AuditEntry) (*AuditLog, error) {
	details := e.Details
	if details == nil {
		details = json.RawMessage(`{}`)
	}

	a := AuditLog{
		OrganizationID: e.OrganizationID,
		APIKeyID:       e.APIKeyID,
		IPAddress:      e.IPAddress,
		TransactionID:  e.TransactionID,
		Action:         e.Action,
		Status:         e.Status,
		Details:        details,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_logs (organization_id, api_key_id, ip_address, transaction_id, action, status, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		e.OrganizationID, e.APIKeyID, e.IPAddress, e.TransactionID, e.Action, e.Status, details,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("record audit %q: %w", e.Action, storage.MapError(err))
	}

	s.logger.Debug("recorded audit", "id", a.ID, "action", a.Action, "status", a.Status)
	return &a, nil
}

// RecordCost appends a cost record.
func (s *Store) RecordCost(ctx context.Context, e CostEntry) (*CostLog, error) {
	c := CostLog{
		OrganizationID:    e.OrganizationID,
		APIKeyID:          e.APIKeyID,
		TransactionID:     e.TransactionID,
		TransactionAction: e.TransactionAction,
		CostUSD:           e.CostUSD,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cost_logs (organization_id, api_key_id, transaction_id, transaction_action, cost_usd)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		e.OrganizationID, e.APIKeyID, e.TransactionID, e.TransactionAction, e.CostUSD,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("record cost %q: %w", e.TransactionID, storage.MapError(err))
	}

	s.logger.Debug("recorded cost", "id", c.ID, "transaction_id", c.TransactionID, "cost_usd", c.CostUSD)
	return &c, nil
}

// RecordRagLog appends a raw-log record. The payload arrives pre-compressed;
// if the caller leaves the sizes at zero the compressed size is derived from
// the payload length.
func (s *Store) RecordRagLog(ctx context.Context, e RagEntry) (*RagLog, error) {
	if e.CompressedSize == 0 {
		e.CompressedSize = int64(len(e.CompressedLog))
	}

	r := RagLog{
		OrganizationID:   e.OrganizationID,
		APIKeyID:         e.APIKeyID,
		TransactionID:    e.TransactionID,
		CompressedLog:    e.CompressedLog,
		CompressedSize:   e.CompressedSize,
		UncompressedSize: e.UncompressedSize,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO rag_logs (organization_id, api_key_id, transaction_id, compressed_log, compressed_size, uncompressed_size)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		e.OrganizationID, e.APIKeyID, e.TransactionID, e.CompressedLog, e.CompressedSize, e.UncompressedSize,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("record rag log %q: %w", e.TransactionID, storage.MapError(err))
	}

	s.logger.Debug("recorded rag log", "id", r.ID, "transaction_id", r.TransactionID,
		"compressed_size", r.CompressedSize, "uncompressed_size", r.UncompressedSize)
	return &r, nil
}

// ListAuditLogs returns audit records newest first. A nil orgID selects the
// forensic remainder: rows whose tenant has since been deleted.
func (s *Store) ListAuditLogs(ctx context.Context, orgID *int64, limit int32) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var query string
	args := []any{limit}
	if orgID != nil {
		query = `SELECT id, organization_id, api_key_id, ip_address, transaction_id, action, status, details,
		                created_at, updated_at
		         FROM audit_logs
		         WHERE organization_id = $2
		         ORDER BY id DESC
		         LIMIT $1`
		args = append(args, *orgID)
	} else {
		query = `SELECT id, organization_id, api_key_id, ip_address, transaction_id, action, status, details,
		                created_at, updated_at
		         FROM audit_logs
		         WHERE organization_id IS NULL
		         ORDER BY id DESC
		         LIMIT $1`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", storage.MapError(err))
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.APIKeyID, &a.IPAddress, &a.TransactionID,
			&a.Action, &a.Status, &a.Details, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// TotalCost sums a tenant's recorded USD cost.
func (s *Store) TotalCost(ctx context.Context, orgID int64) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM cost_logs WHERE organization_id = $1`,
		orgID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total cost for organization %d: %w", orgID, err)
	}
	return total, nil
}

// Compression returns the summed stored sizes of a tenant's rag logs,
// enabling ratio analytics without decompressing anything.
func (s *Store) Compression(ctx context.Context, orgID int64) (CompressionStats, error) {
	var stats CompressionStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(compressed_size), 0), COALESCE(SUM(uncompressed_size), 0)
		 FROM rag_logs
		 WHERE organization_id = $1`,
		orgID,
	).Scan(&stats.Entries, &stats.CompressedBytes, &stats.UncompressedBytes)
	if err != nil {
		return CompressionStats{}, fmt.Errorf("compression stats for organization %d: %w", orgID, err)
	}
	return stats, nil
}
