package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// TaxSubmissionFilter defines filtering options for submission queries
type TaxSubmissionFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	Status    *SubmissionStatus
}

// TaxSubmissionRepository defines the interface for tax submission persistence
type TaxSubmissionRepository interface {
	// FindByID finds a submission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TaxSubmission, error)

	// FindByIDForTenant finds a submission by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TaxSubmission, error)

	// FindByInvoice finds all submission records for an invoice, newest first
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]TaxSubmission, error)

	// FindPending finds submissions awaiting a submit attempt
	FindPending(ctx context.Context, limit int) ([]TaxSubmission, error)

	// FindRetryable finds FAILED submissions below the retry budget whose
	// backoff window has elapsed at the given time
	FindRetryable(ctx context.Context, now time.Time, maxRetries int, limit int) ([]TaxSubmission, error)

	// FindAllForTenant finds all submissions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter TaxSubmissionFilter) ([]TaxSubmission, error)

	// Save creates or updates a submission
	Save(ctx context.Context, submission *TaxSubmission) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, submission *TaxSubmission) error
}
