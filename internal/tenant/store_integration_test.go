package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumhq/stratum/internal/convo"
	"github.com/stratumhq/stratum/internal/embedcache"
	"github.com/stratumhq/stratum/internal/graph"
	"github.com/stratumhq/stratum/internal/oplog"
	"github.com/stratumhq/stratum/internal/storage"
	"github.com/stratumhq/stratum/internal/tenant"
	"github.com/stratumhq/stratum/internal/testutil"
)

func TestOrganizationLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := tenant.New(tdb.Pool, testutil.QuietLogger())

	org, err := store.CreateOrganization(ctx, "org_a")
	require.NoError(t, err)
	assert.NotZero(t, org.ID)
	assert.Equal(t, "org_a", org.ResID)
	assert.False(t, org.CreatedAt.IsZero())

	// A second tenant with the same handle must conflict.
	_, err = store.CreateOrganization(ctx, "org_a")
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := store.GetOrganization(ctx, "org_a")
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = store.GetOrganization(ctx, "org_missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := tenant.New(tdb.Pool, testutil.QuietLogger())

	org, err := store.CreateOrganization(ctx, "org_auth")
	require.NoError(t, err)

	key, err := store.CreateAPIKey(ctx, tenant.CreateAPIKeyParams{
		OrganizationID: org.ID,
		TokenHash:      "sha256:abcdef",
		Name:           "ingest",
		Scopes:         []string{"read", "write"},
	})
	require.NoError(t, err)

	got, err := store.Authenticate(ctx, "sha256:abcdef")
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, org.ID, got.OrganizationID)
	assert.Equal(t, []string{"read", "write"}, got.Scopes)

	_, err = store.Authenticate(ctx, "sha256:unknown")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Token hashes are globally unique, even across tenants.
	other, err := store.CreateOrganization(ctx, "org_other")
	require.NoError(t, err)
	_, err = store.CreateAPIKey(ctx, tenant.CreateAPIKeyParams{
		OrganizationID: other.ID,
		TokenHash:      "sha256:abcdef",
	})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

// TestDeleteOrganization_Cascades builds a tenant with one of everything,
// deletes it, and verifies every tenant-scoped table is swept while audit
// rows survive with a nulled organization reference.
func TestDeleteOrganization_Cascades(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := testutil.QuietLogger()

	tenants := tenant.New(tdb.Pool, logger)
	graphs := graph.New(tdb.Pool, logger)
	convos := convo.New(tdb.Pool, logger)
	logs := oplog.New(tdb.Pool, logger)

	org, err := tenants.CreateOrganization(ctx, "org_a")
	require.NoError(t, err)

	key, err := tenants.CreateAPIKey(ctx, tenant.CreateAPIKeyParams{
		OrganizationID: org.ID,
		TokenHash:      "sha256:org_a",
	})
	require.NoError(t, err)

	ds, err := graphs.CreateDatasource(ctx, graph.CreateDatasourceParams{
		OrganizationID: org.ID,
		ResID:          "ds_1",
		Name:           "primary",
	})
	require.NoError(t, err)

	doc, err := graphs.CreateDocument(ctx, graph.CreateDocumentParams{
		OrganizationID: org.ID,
		DatasourceID:   ds.ID,
		ResID:          "doc_1",
		Content:        "hello world",
		ContentHash:    "h1",
	})
	require.NoError(t, err)

	chunk, err := graphs.CreateChunk(ctx, graph.CreateChunkParams{
		OrganizationID: org.ID,
		DatasourceID:   ds.ID,
		DocumentID:     doc.ID,
		Content:        "hello world",
		Embedding:      make([]float32, embedcache.VectorDimension),
	})
	require.NoError(t, err)

	// Self-loop relation, explicitly permitted.
	_, err = graphs.CreateRelation(ctx, graph.CreateRelationParams{
		OrganizationID: org.ID,
		DatasourceID:   ds.ID,
		ChunkID:        chunk.ID,
		TargetChunkID:  chunk.ID,
	})
	require.NoError(t, err)

	_, err = graphs.CreateConnector(ctx, graph.CreateConnectorParams{
		OrganizationID: org.ID,
		DatasourceID:   ds.ID,
		ResID:          "conn_1",
	})
	require.NoError(t, err)

	agent, err := graphs.CreateAgent(ctx, org.ID, "agent_1", "helper", "")
	require.NoError(t, err)
	_, err = graphs.AttachDatasource(ctx, org.ID, agent.ID, ds.ID)
	require.NoError(t, err)

	conv, err := convos.CreateConversation(ctx, convo.CreateConversationParams{
		OrganizationID: org.ID,
		APIKeyID:       key.ID,
		ResID:          "conv_1",
	})
	require.NoError(t, err)
	_, err = convos.AppendTurn(ctx, convo.AppendTurnParams{
		OrganizationID: org.ID,
		APIKeyID:       key.ID,
		ConversationID: conv.ID,
		ResID:          "turn_1",
	})
	require.NoError(t, err)

	_, err = logs.RecordCost(ctx, oplog.CostEntry{
		OrganizationID: org.ID,
		APIKeyID:       key.ID,
		TransactionID:  "tx_1",
		CostUSD:        0.0125,
	})
	require.NoError(t, err)
	_, err = logs.RecordRagLog(ctx, oplog.RagEntry{
		OrganizationID: org.ID,
		APIKeyID:       key.ID,
		TransactionID:  "tx_1",
		CompressedLog:  []byte{0x1f, 0x8b},
	})
	require.NoError(t, err)
	_, err = logs.RecordAudit(ctx, oplog.AuditEntry{
		OrganizationID: &org.ID,
		APIKeyID:       &key.ID,
		TransactionID:  "tx_1",
		Action:         "seed",
		Status:         "success",
	})
	require.NoError(t, err)

	require.NoError(t, tenants.DeleteOrganization(ctx, org.ID))

	tables := []string{
		"api_keys", "datasources", "documents", "chunks", "relations",
		"connectors", "agents", "agent_datasources", "conversations", "turns",
		"cost_logs", "rag_logs",
	}
	for _, table := range tables {
		var count int
		err := tdb.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count, "table %s should be empty after cascade", table)
	}

	// The forensic trail survives with nulled references.
	audits, err := logs.ListAuditLogs(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Nil(t, audits[0].OrganizationID)
	assert.Nil(t, audits[0].APIKeyID)
	assert.Equal(t, "seed", audits[0].Action)

	require.ErrorIs(t, tenants.DeleteOrganization(ctx, org.ID), storage.ErrNotFound)
}
