package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceCreatedEvent is raised when a new draft invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	InvoiceNumber  string     `json:"invoice_number"`
	MemberID       uuid.UUID  `json:"member_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		MemberID:        inv.MemberID,
		SubscriptionID:  inv.SubscriptionID,
	}
}

// InvoiceIssuedEvent is raised when a draft invoice is issued. Listeners
// enqueue the tax submission off this event.
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	MemberID       uuid.UUID       `json:"member_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	DueDate        time.Time       `json:"due_date"`
	SubmissionHash string          `json:"submission_hash"`
}

// EventType returns the event type name
func (e *InvoiceIssuedEvent) EventType() string {
	return "InvoiceIssued"
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceIssued", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		MemberID:        inv.MemberID,
		TotalAmount:     inv.TotalAmount,
		VATAmount:       inv.VATAmount,
		DueDate:         *inv.DueDate,
		SubmissionHash:  inv.SubmissionHash,
	}
}

// InvoicePaidEvent is raised when an invoice is fully settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	MemberID      uuid.UUID       `json:"member_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAt        time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		MemberID:        inv.MemberID,
		TotalAmount:     inv.TotalAmount,
		PaidAt:          *inv.PaidAt,
	}
}

// InvoicePartiallyPaidEvent is raised when a payment leaves a balance outstanding
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// EventType returns the event type name
func (e *InvoicePartiallyPaidEvent) EventType() string {
	return "InvoicePartiallyPaid"
}

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(inv *Invoice, paymentAmount decimal.Decimal) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InvoicePartiallyPaid", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:        inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		PaymentAmount:    paymentAmount,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance(),
	}
}

// InvoiceOverdueEvent is raised when the sweep first observes an invoice past due
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	MemberID         uuid.UUID       `json:"member_id"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	DueDate          time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *InvoiceOverdueEvent) EventType() string {
	return "InvoiceOverdue"
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InvoiceOverdue", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:        inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		MemberID:         inv.MemberID,
		RemainingBalance: inv.RemainingBalance(),
		DueDate:          *inv.DueDate,
	}
}

// InvoiceCancelledEvent is raised when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Reason        string    `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          inv.CancelReason,
	}
}
