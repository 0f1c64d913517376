package storage

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors forming the store's public error taxonomy. Callers check
// them with errors.Is(); stores wrap them with operation context via
// fmt.Errorf("...: %w", ...).
var (
	// ErrConflict indicates a uniqueness violation: duplicate organization
	// res_id, api-key token_hash, document/connector res_id triple, or turn
	// res_id.
	ErrConflict = errors.New("conflict: resource already exists")

	// ErrNotFound indicates a lookup miss on a required reference.
	ErrNotFound = errors.New("not found")

	// ErrSchemaViolation indicates a write that cannot be represented in the
	// schema, such as a vector of the wrong dimensionality or a missing
	// required field.
	ErrSchemaViolation = errors.New("schema violation")
)

// MapError translates low-level pgx errors into the sentinel taxonomy.
// Errors that match no category are returned unchanged so the caller sees
// the raw database failure.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrConflict
		case pgerrcode.ForeignKeyViolation:
			// A dangling parent reference surfaces as a missing resource,
			// not as a raw constraint failure.
			return ErrNotFound
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation, pgerrcode.DataException:
			return ErrSchemaViolation
		}
	}

	return err
}
