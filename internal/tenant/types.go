package tenant

import "time"

// Organization is the root of all ownership. Every tenant-scoped entity in
// the store is transitively owned by exactly one Organization, and deleting
// one cascades through everything it owns.
type Organization struct {
	ID        int64
	ResID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// APIKey is a hashed credential scoped to one Organization. The raw
// credential never reaches the store; callers hash it before lookup.
type APIKey struct {
	ID             int64
	OrganizationID int64
	TokenHash      string
	Name           string
	Scopes         []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateAPIKeyParams carries the fields for a new API key.
type CreateAPIKeyParams struct {
	OrganizationID int64
	TokenHash      string
	Name           string
	Scopes         []string
}
