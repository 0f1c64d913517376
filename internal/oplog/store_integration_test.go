package oplog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumhq/stratum/internal/oplog"
	"github.com/stratumhq/stratum/internal/tenant"
	"github.com/stratumhq/stratum/internal/testutil"
)

func setup(t *testing.T, handle string) (*oplog.Store, *tenant.Organization, *tenant.APIKey, func()) {
	t.Helper()

	tdb, cleanup := testutil.SetupTestDB(t)
	ctx := context.Background()
	logger := testutil.QuietLogger()

	tenants := tenant.New(tdb.Pool, logger)
	org, err := tenants.CreateOrganization(ctx, handle)
	require.NoError(t, err)
	key, err := tenants.CreateAPIKey(ctx, tenant.CreateAPIKeyParams{
		OrganizationID: org.ID,
		TokenHash:      "sha256:" + handle,
	})
	require.NoError(t, err)

	return oplog.New(tdb.Pool, logger), org, key, cleanup
}

func TestRecordAudit_ListNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	logs, org, key, cleanup := setup(t, "org_audit")
	defer cleanup()
	ctx := context.Background()

	txn := oplog.NewTransactionID()
	for _, action := range []string{"document.create", "document.index", "document.delete"} {
		_, err := logs.RecordAudit(ctx, oplog.AuditEntry{
			OrganizationID: &org.ID,
			APIKeyID:       &key.ID,
			IPAddress:      "192.0.2.10",
			TransactionID:  txn,
			Action:         action,
			Status:         "success",
			Details:        json.RawMessage(`{"source":"test"}`),
		})
		require.NoError(t, err)
	}

	got, err := logs.ListAuditLogs(ctx, &org.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "document.delete", got[0].Action)
	assert.Equal(t, "document.create", got[2].Action)
	require.NotNil(t, got[0].OrganizationID)
	assert.Equal(t, org.ID, *got[0].OrganizationID)

	// No orphaned rows exist yet, so the forensic view is empty.
	orphans, err := logs.ListAuditLogs(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestTotalCost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	logs, org, key, cleanup := setup(t, "org_cost")
	defer cleanup()
	ctx := context.Background()

	for _, cost := range []float64{0.0125, 0.03, 0.0075} {
		_, err := logs.RecordCost(ctx, oplog.CostEntry{
			OrganizationID:    org.ID,
			APIKeyID:          key.ID,
			TransactionID:     oplog.NewTransactionID(),
			TransactionAction: "chat.completion",
			CostUSD:           cost,
		})
		require.NoError(t, err)
	}

	total, err := logs.TotalCost(ctx, org.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, total, 1e-9)

	// Unknown tenants sum to zero rather than erroring.
	total, err = logs.TotalCost(ctx, org.ID+1000)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRagLogCompressionStats(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	logs, org, key, cleanup := setup(t, "org_raglog")
	defer cleanup()
	ctx := context.Background()

	raw := make([]byte, 4096)
	for i := range raw {
		raw[i] = byte('a' + i%4)
	}
	compressed, compressedSize, uncompressedSize, err := oplog.CompressLog(raw)
	require.NoError(t, err)

	stored, err := logs.RecordRagLog(ctx, oplog.RagEntry{
		OrganizationID:   org.ID,
		APIKeyID:         key.ID,
		TransactionID:    oplog.NewTransactionID(),
		CompressedLog:    compressed,
		CompressedSize:   compressedSize,
		UncompressedSize: uncompressedSize,
	})
	require.NoError(t, err)

	back, err := oplog.DecompressLog(stored.CompressedLog)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	stats, err := logs.Compression(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, compressedSize, stats.CompressedBytes)
	assert.Equal(t, uncompressedSize, stats.UncompressedBytes)
}
