package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stratumhq/stratum/internal/storage"
)

// CreateAgent creates a tenant-scoped agent.
func (s *Store) CreateAgent(ctx context.Context, orgID int64, resID, name, purpose string) (*Agent, error) {
	if resID == "" {
		return nil, fmt.Errorf("create agent: res_id is required: %w", storage.ErrSchemaViolation)
	}

	a := Agent{
		OrganizationID: orgID,
		ResID:          resID,
		Name:           name,
		Purpose:        purpose,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO agents (organization_id, res_id, name, purpose)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		orgID, resID, name, purpose,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create agent %q: %w", resID, storage.MapError(err))
	}

	s.logger.Debug("created agent", "id", a.ID, "organization_id", orgID, "res_id", resID)
	return &a, nil
}

// AttachDatasource creates the association row linking an agent to a
// datasource. Both sides must belong to the same organization.
func (s *Store) AttachDatasource(ctx context.Context, orgID, agentID, datasourceID int64) (*AgentDatasource, error) {
	ad := AgentDatasource{AgentID: agentID, DatasourceID: datasourceID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO agent_datasources (agent_id, datasource_id)
		 SELECT a.id, d.id
		 FROM agents a, datasources d
		 WHERE a.id = $1 AND a.organization_id = $3
		   AND d.id = $2 AND d.organization_id = $3
		 RETURNING id, created_at, updated_at`,
		agentID, datasourceID, orgID,
	).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("attach datasource %d to agent %d: %w", datasourceID, agentID, storage.MapError(err))
	}

	s.logger.Debug("attached datasource", "agent_id", agentID, "datasource_id", datasourceID)
	return &ad, nil
}

// DetachDatasource removes the association row between an agent and a
// datasource.
func (s *Store) DetachDatasource(ctx context.Context, orgID, agentID, datasourceID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM agent_datasources ad
		 USING agents a
		 WHERE ad.agent_id = a.id
		   AND ad.agent_id = $1 AND ad.datasource_id = $2
		   AND a.organization_id = $3`,
		agentID, datasourceID, orgID,
	)
	if err != nil {
		return fmt.Errorf("detach datasource %d from agent %d: %w", datasourceID, agentID, storage.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("detach datasource %d from agent %d: %w", datasourceID, agentID, storage.ErrNotFound)
	}
	return nil
}

// ListAgentDatasources returns the datasources attached to an agent in
// attachment order.
func (s *Store) ListAgentDatasources(ctx context.Context, orgID, agentID int64) ([]Datasource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.organization_id, d.conversation_id, d.res_id, d.name, d.purpose,
		        d.created_at, d.updated_at
		 FROM datasources d
		 JOIN agent_datasources ad ON ad.datasource_id = d.id
		 JOIN agents a ON a.id = ad.agent_id
		 WHERE a.id = $1 AND a.organization_id = $2
		 ORDER BY ad.id`,
		agentID, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list datasources for agent %d: %w", agentID, storage.MapError(err))
	}
	defer rows.Close()

	var datasources []Datasource
	for rows.Next() {
		var ds Datasource
		if err := rows.Scan(&ds.ID, &ds.OrganizationID, &ds.ConversationID, &ds.ResID, &ds.Name,
			&ds.Purpose, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan datasource: %w", err)
		}
		datasources = append(datasources, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list datasources for agent %d: %w", agentID, err)
	}
	return datasources, nil
}

// CreateConnector attaches an external endpoint description to a datasource.
// Returns storage.ErrConflict if the (organization, datasource, res_id)
// triple already exists.
func (s *Store) CreateConnector(ctx context.Context, p CreateConnectorParams) (*Connector, error) {
	if p.ResID == "" {
		return nil, fmt.Errorf("create connector: res_id is required: %w", storage.ErrSchemaViolation)
	}
	payload := p.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	metadata := p.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	c := Connector{
		OrganizationID: p.OrganizationID,
		DatasourceID:   p.DatasourceID,
		ResID:          p.ResID,
		Name:           p.Name,
		Purpose:        p.Purpose,
		Endpoint:       p.Endpoint,
		Method:         p.Method,
		Function:       p.Function,
		Payload:        payload,
		Metadata:       metadata,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO connectors
		   (organization_id, datasource_id, res_id, name, purpose, endpoint, method, function, payload, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.DatasourceID, p.ResID, p.Name, p.Purpose, p.Endpoint,
		p.Method, p.Function, payload, metadata,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create connector %q: %w", p.ResID, storage.MapError(err))
	}

	s.logger.Debug("created connector", "id", c.ID, "datasource_id", c.DatasourceID, "res_id", c.ResID)
	return &c, nil
}
