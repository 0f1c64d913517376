package graph

import (
	"encoding/json"
	"time"
)

// Datasource groups ingested content under a tenant. A datasource may be
// ephemeral: scoped to a conversation and removed when it ends.
type Datasource struct {
	ID             int64
	OrganizationID int64
	ConversationID *int64
	ResID          string
	Name           string
	Purpose        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document is one ingested unit of content within a datasource.
type Document struct {
	ID             int64
	OrganizationID int64
	DatasourceID   int64
	ResID          string
	Name           string
	Content        string
	ContentType    string
	ContentHash    string
	ContentSize    int64
	IndexCostUSD   float64
	Metadata       json.RawMessage
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Chunk is a retrievable fragment of a document. It carries its own copy of
// the embedding vector so retrieval reads never join against the cache.
type Chunk struct {
	ID             int64
	OrganizationID int64
	DatasourceID   int64
	DocumentID     int64
	Type           string
	Content        string
	ContentSize    int64
	ContentTokens  int64
	Embedding      []float32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Relation is a directed edge between two chunks, independent of their
// hierarchical containment. It is a pure adjacency record: self-loops,
// cycles and duplicate edges are all permitted; traversal logic handles
// them.
type Relation struct {
	ID             int64
	OrganizationID int64
	DatasourceID   int64
	ChunkID        int64
	TargetChunkID  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Connector describes an external endpoint attached to a datasource.
type Connector struct {
	ID             int64
	OrganizationID int64
	DatasourceID   int64
	ResID          string
	Name           string
	Purpose        string
	Endpoint       string
	Method         string
	Function       string
	Payload        json.RawMessage
	Metadata       json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Agent is a tenant-scoped consumer of datasources.
type Agent struct {
	ID             int64
	OrganizationID int64
	ResID          string
	Name           string
	Purpose        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AgentDatasource is the explicit association row behind the
// agent <-> datasource many-to-many. It has its own identity and dies with
// either referenced side.
type AgentDatasource struct {
	ID           int64
	AgentID      int64
	DatasourceID int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChunkMatch is a chunk paired with its distance to a query vector.
type ChunkMatch struct {
	Chunk    Chunk
	Distance float64
}

// CreateDatasourceParams carries the fields for a new datasource.
type CreateDatasourceParams struct {
	OrganizationID int64
	ConversationID *int64
	ResID          string
	Name           string
	Purpose        string
}

// CreateDocumentParams carries the fields for a new document. ContentHash is
// computed externally by the ingestion pipeline.
type CreateDocumentParams struct {
	OrganizationID int64
	DatasourceID   int64
	ResID          string
	Name           string
	Content        string
	ContentType    string
	ContentHash    string
	ContentSize    int64
	IndexCostUSD   float64
	Metadata       json.RawMessage
	Status         string
}

// CreateChunkParams carries the fields for a new chunk. Embedding is the
// resolved vector, already looked up from or stored into the cache by the
// caller.
type CreateChunkParams struct {
	OrganizationID int64
	DatasourceID   int64
	DocumentID     int64
	Type           string
	Content        string
	ContentSize    int64
	ContentTokens  int64
	Embedding      []float32
}

// CreateRelationParams carries the endpoints of a new directed edge.
type CreateRelationParams struct {
	OrganizationID int64
	DatasourceID   int64
	ChunkID        int64
	TargetChunkID  int64
}

// CreateConnectorParams carries the fields for a new connector.
type CreateConnectorParams struct {
	OrganizationID int64
	DatasourceID   int64
	ResID          string
	Name           string
	Purpose        string
	Endpoint       string
	Method         string
	Function       string
	Payload        json.RawMessage
	Metadata       json.RawMessage
}
