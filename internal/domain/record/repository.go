package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

// Repository persists scan records in a single shared table. Every method
// takes the owner and scopes its query with a mandatory owner predicate;
// there is no way to read or touch another owner's records through it.
type Repository interface {
	// Create persists a new record under the owner.
	Create(ctx context.Context, owner tenant.Owner, r *ScanRecord) error

	// GetByID retrieves one record. Returns ErrRecordNotFound when the id
	// does not exist under this owner, including ids that exist under a
	// different owner.
	GetByID(ctx context.Context, owner tenant.Owner, id uuid.UUID) (*ScanRecord, error)

	// List returns all records for the owner sorted by creation time
	// descending. An empty slice is a valid result, not an error.
	List(ctx context.Context, owner tenant.Owner) ([]*ScanRecord, error)

	// Update applies the patch to the mutable fields of an existing record
	// and returns the updated row. Returns ErrRecordNotFound when absent.
	Update(ctx context.Context, owner tenant.Owner, id uuid.UUID, cmd *UpdateRecordCommand) (*ScanRecord, error)

	// Delete permanently removes the record. Returns ErrRecordNotFound when
	// absent, so a second delete of the same id fails the same way.
	Delete(ctx context.Context, owner tenant.Owner, id uuid.UUID) error
}
