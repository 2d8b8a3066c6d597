package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	MemberID       *uuid.UUID
	SubscriptionID *uuid.UUID
	Status         *InvoiceStatus
	IssuedFrom     *time.Time
	IssuedTo       *time.Time
	DueBefore      *time.Time
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForTenant finds an invoice by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number within a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindByMember finds invoices for a member
	FindByMember(ctx context.Context, tenantID, memberID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindBySubscriptionAndPeriod finds the invoice generated for a subscription
	// billing period, the idempotency lookup for invoice generation
	FindBySubscriptionAndPeriod(ctx context.Context, tenantID, subscriptionID uuid.UUID, periodStart time.Time) (*Invoice, error)

	// FindOverdueCandidates finds non-terminal invoices past their due date
	// with a balance outstanding at the given time
	FindOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]Invoice, error)

	// NextInvoiceNumber allocates the next number in the tenant's sequence
	NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)
}
