package compliance

import (
	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// TaxSubmissionCreatedEvent is raised when a submission is enqueued for an invoice
type TaxSubmissionCreatedEvent struct {
	shared.BaseDomainEvent
	SubmissionID   uuid.UUID `json:"submission_id"`
	InvoiceID      uuid.UUID `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	SubmissionHash string    `json:"submission_hash"`
}

// EventType returns the event type name
func (e *TaxSubmissionCreatedEvent) EventType() string {
	return "TaxSubmissionCreated"
}

// NewTaxSubmissionCreatedEvent creates a new TaxSubmissionCreatedEvent
func NewTaxSubmissionCreatedEvent(ts *TaxSubmission) *TaxSubmissionCreatedEvent {
	return &TaxSubmissionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TaxSubmissionCreated", "TaxSubmission", ts.ID, ts.TenantID),
		SubmissionID:    ts.ID,
		InvoiceID:       ts.InvoiceID,
		InvoiceNumber:   ts.InvoiceNumber,
		SubmissionHash:  ts.SubmissionHash,
	}
}

// TaxSubmissionAcceptedEvent is raised when the authority accepts the submission
type TaxSubmissionAcceptedEvent struct {
	shared.BaseDomainEvent
	SubmissionID uuid.UUID `json:"submission_id"`
	InvoiceID    uuid.UUID `json:"invoice_id"`
	ResponseCode string    `json:"response_code"`
}

// EventType returns the event type name
func (e *TaxSubmissionAcceptedEvent) EventType() string {
	return "TaxSubmissionAccepted"
}

// NewTaxSubmissionAcceptedEvent creates a new TaxSubmissionAcceptedEvent
func NewTaxSubmissionAcceptedEvent(ts *TaxSubmission) *TaxSubmissionAcceptedEvent {
	return &TaxSubmissionAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TaxSubmissionAccepted", "TaxSubmission", ts.ID, ts.TenantID),
		SubmissionID:    ts.ID,
		InvoiceID:       ts.InvoiceID,
		ResponseCode:    ts.ResponseCode,
	}
}

// TaxSubmissionRejectedEvent is raised when the authority rejects the submission
type TaxSubmissionRejectedEvent struct {
	shared.BaseDomainEvent
	SubmissionID    uuid.UUID `json:"submission_id"`
	InvoiceID       uuid.UUID `json:"invoice_id"`
	ResponseCode    string    `json:"response_code"`
	ResponseMessage string    `json:"response_message"`
}

// EventType returns the event type name
func (e *TaxSubmissionRejectedEvent) EventType() string {
	return "TaxSubmissionRejected"
}

// NewTaxSubmissionRejectedEvent creates a new TaxSubmissionRejectedEvent
func NewTaxSubmissionRejectedEvent(ts *TaxSubmission) *TaxSubmissionRejectedEvent {
	return &TaxSubmissionRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TaxSubmissionRejected", "TaxSubmission", ts.ID, ts.TenantID),
		SubmissionID:    ts.ID,
		InvoiceID:       ts.InvoiceID,
		ResponseCode:    ts.ResponseCode,
		ResponseMessage: ts.ResponseMessage,
	}
}

// TaxSubmissionFailedEvent is raised on a transport failure
type TaxSubmissionFailedEvent struct {
	shared.BaseDomainEvent
	SubmissionID uuid.UUID `json:"submission_id"`
	InvoiceID    uuid.UUID `json:"invoice_id"`
	RetryCount   int       `json:"retry_count"`
	Message      string    `json:"message"`
}

// EventType returns the event type name
func (e *TaxSubmissionFailedEvent) EventType() string {
	return "TaxSubmissionFailed"
}

// NewTaxSubmissionFailedEvent creates a new TaxSubmissionFailedEvent
func NewTaxSubmissionFailedEvent(ts *TaxSubmission) *TaxSubmissionFailedEvent {
	return &TaxSubmissionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TaxSubmissionFailed", "TaxSubmission", ts.ID, ts.TenantID),
		SubmissionID:    ts.ID,
		InvoiceID:       ts.InvoiceID,
		RetryCount:      ts.RetryCount,
		Message:         ts.ResponseMessage,
	}
}

// TaxSubmissionRetriedEvent is raised when a failed submission re-enters PENDING
type TaxSubmissionRetriedEvent struct {
	shared.BaseDomainEvent
	SubmissionID uuid.UUID `json:"submission_id"`
	InvoiceID    uuid.UUID `json:"invoice_id"`
	RetryCount   int       `json:"retry_count"`
}

// EventType returns the event type name
func (e *TaxSubmissionRetriedEvent) EventType() string {
	return "TaxSubmissionRetried"
}

// NewTaxSubmissionRetriedEvent creates a new TaxSubmissionRetriedEvent
func NewTaxSubmissionRetriedEvent(ts *TaxSubmission) *TaxSubmissionRetriedEvent {
	return &TaxSubmissionRetriedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TaxSubmissionRetried", "TaxSubmission", ts.ID, ts.TenantID),
		SubmissionID:    ts.ID,
		InvoiceID:       ts.InvoiceID,
		RetryCount:      ts.RetryCount,
	}
}
