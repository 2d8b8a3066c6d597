package dunning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// SequenceFilter defines filtering options for dunning sequence queries
type SequenceFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	MemberID  *uuid.UUID
	Status    *SequenceStatus
}

// SequenceRepository defines the interface for dunning sequence persistence
type SequenceRepository interface {
	// FindByID finds a sequence by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DunningSequence, error)

	// FindByIDForTenant finds a sequence by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*DunningSequence, error)

	// FindNonTerminalByInvoice finds the open sequence for an invoice, if any.
	// Backs the at-most-one-per-invoice invariant together with a partial
	// unique index on (invoice_id) where status is non-terminal.
	FindNonTerminalByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*DunningSequence, error)

	// FindDue finds ACTIVE sequences with next_action_at at or before the given time
	FindDue(ctx context.Context, now time.Time, limit int) ([]DunningSequence, error)

	// FindAllForTenant finds all sequences for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SequenceFilter) ([]DunningSequence, error)

	// Save creates or updates a sequence
	Save(ctx context.Context, sequence *DunningSequence) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, sequence *DunningSequence) error
}
