package compliance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// SubmissionStatus represents the lifecycle state of a tax submission.
// A REJECTED submission is terminal for its lineage; correcting the invoice
// produces a new submission record, never a retry of the rejected one.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "PENDING"
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusAccepted  SubmissionStatus = "ACCEPTED"
	SubmissionStatusRejected  SubmissionStatus = "REJECTED"
	SubmissionStatusFailed    SubmissionStatus = "FAILED"
)

// IsValid checks if the status is a valid SubmissionStatus
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusSubmitted,
		SubmissionStatusAccepted, SubmissionStatusRejected, SubmissionStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of SubmissionStatus
func (s SubmissionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusAccepted || s == SubmissionStatusRejected
}

// CanFail returns true if a transport failure can be recorded in this status
func (s SubmissionStatus) CanFail() bool {
	return s == SubmissionStatusPending || s == SubmissionStatusSubmitted
}

// SubmissionAttempt is an append-only record of one attempt against the tax
// authority, stored as JSONB. Per-attempt detail survives retries.
type SubmissionAttempt struct {
	Attempt         int              `json:"attempt"`
	At              time.Time        `json:"at"`
	Status          SubmissionStatus `json:"status"`
	ResponseCode    string           `json:"response_code,omitempty"`
	ResponseMessage string           `json:"response_message,omitempty"`
}

// SubmissionAttempts is a slice of SubmissionAttempt that implements GORM Scanner/Valuer for JSONB storage
type SubmissionAttempts []SubmissionAttempt

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a SubmissionAttempts) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *SubmissionAttempts) Scan(value interface{}) error {
	if value == nil {
		*a = SubmissionAttempts{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SubmissionAttempts: unsupported type")
	}

	if len(bytes) == 0 {
		*a = SubmissionAttempts{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// TaxSubmission represents one submission lineage of an issued invoice to the
// tax authority. Retry policy (backoff, max retries) lives in the application
// service; the aggregate is retry-count-aware but policy-agnostic.
type TaxSubmission struct {
	shared.TenantAggregateRoot
	InvoiceID      uuid.UUID        `json:"invoice_id"`
	InvoiceNumber  string           `json:"invoice_number"`
	Status         SubmissionStatus `json:"status"`
	SubmissionHash string           `json:"submission_hash"`

	RetryCount  int        `json:"retry_count"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`

	ResponseCode    string `json:"response_code,omitempty"`
	ResponseMessage string `json:"response_message,omitempty"`

	Attempts SubmissionAttempts `json:"attempts"`
}

// NewTaxSubmission creates a pending submission for an issued invoice
func NewTaxSubmission(tenantID, invoiceID uuid.UUID, invoiceNumber, submissionHash string) (*TaxSubmission, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if submissionHash == "" {
		return nil, shared.NewDomainError("INVALID_SUBMISSION_HASH", "Submission hash cannot be empty")
	}

	ts := &TaxSubmission{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		InvoiceNumber:       invoiceNumber,
		Status:              SubmissionStatusPending,
		SubmissionHash:      submissionHash,
		Attempts:            SubmissionAttempts{},
	}

	ts.AddDomainEvent(NewTaxSubmissionCreatedEvent(ts))

	return ts, nil
}

func (ts *TaxSubmission) recordAttempt(at time.Time, status SubmissionStatus, code, message string) {
	ts.Attempts = append(ts.Attempts, SubmissionAttempt{
		Attempt:         ts.RetryCount + 1,
		At:              at,
		Status:          status,
		ResponseCode:    code,
		ResponseMessage: message,
	})
}

// MarkSubmitted records that the payload was handed to the tax authority
func (ts *TaxSubmission) MarkSubmitted(now time.Time) error {
	if ts.Status != SubmissionStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark submitted from %s status", ts.Status))
	}

	ts.Status = SubmissionStatusSubmitted
	ts.SubmittedAt = &now
	ts.recordAttempt(now, SubmissionStatusSubmitted, "", "")
	ts.UpdatedAt = now
	ts.IncrementVersion()

	return nil
}

// MarkAccepted records authority acceptance. Terminal.
func (ts *TaxSubmission) MarkAccepted(code, message string) error {
	if ts.Status != SubmissionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark accepted from %s status", ts.Status))
	}

	now := time.Now()
	ts.Status = SubmissionStatusAccepted
	ts.ResponseCode = code
	ts.ResponseMessage = message
	ts.ResolvedAt = &now
	ts.recordAttempt(now, SubmissionStatusAccepted, code, message)
	ts.UpdatedAt = now
	ts.IncrementVersion()

	ts.AddDomainEvent(NewTaxSubmissionAcceptedEvent(ts))

	return nil
}

// MarkRejected records authority rejection. Terminal for this lineage; a
// corrected invoice gets a new submission record.
func (ts *TaxSubmission) MarkRejected(code, message string) error {
	if ts.Status != SubmissionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark rejected from %s status", ts.Status))
	}

	now := time.Now()
	ts.Status = SubmissionStatusRejected
	ts.ResponseCode = code
	ts.ResponseMessage = message
	ts.ResolvedAt = &now
	ts.recordAttempt(now, SubmissionStatusRejected, code, message)
	ts.UpdatedAt = now
	ts.IncrementVersion()

	ts.AddDomainEvent(NewTaxSubmissionRejectedEvent(ts))

	return nil
}

// MarkFailed records a transport or timeout failure. Does not consume the
// retry budget; only Retry does.
func (ts *TaxSubmission) MarkFailed(message string) error {
	if !ts.Status.CanFail() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark failed from %s status", ts.Status))
	}

	now := time.Now()
	ts.Status = SubmissionStatusFailed
	ts.ResponseMessage = message
	ts.recordAttempt(now, SubmissionStatusFailed, "", message)
	ts.UpdatedAt = now
	ts.IncrementVersion()

	ts.AddDomainEvent(NewTaxSubmissionFailedEvent(ts))

	return nil
}

// Retry returns a FAILED submission to PENDING. The retry count only ever
// increases; backoff and max-retry enforcement are the caller's concern.
func (ts *TaxSubmission) Retry(now time.Time) error {
	if ts.Status != SubmissionStatusFailed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot retry from %s status", ts.Status))
	}

	ts.Status = SubmissionStatusPending
	ts.RetryCount++
	ts.LastRetryAt = &now
	ts.ResponseCode = ""
	ts.ResponseMessage = ""
	ts.UpdatedAt = now
	ts.IncrementVersion()

	ts.AddDomainEvent(NewTaxSubmissionRetriedEvent(ts))

	return nil
}

// Helper methods

// IsResolved returns true once the authority gave a final answer
func (ts *TaxSubmission) IsResolved() bool {
	return ts.Status.IsTerminal()
}

// IsRetryable returns true if the submission sits in FAILED awaiting a retry decision
func (ts *TaxSubmission) IsRetryable() bool {
	return ts.Status == SubmissionStatusFailed
}

// NextRetryAt computes when the next retry becomes eligible given a backoff
// policy of min(2^retryCount * baseDelay, cap), anchored at the last failure.
func (ts *TaxSubmission) NextRetryAt(baseDelay, maxDelay time.Duration) time.Time {
	anchor := ts.UpdatedAt
	if ts.LastRetryAt != nil && ts.LastRetryAt.After(anchor) {
		anchor = *ts.LastRetryAt
	}
	delay := baseDelay
	for i := 0; i < ts.RetryCount && delay < maxDelay; i++ {
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return anchor.Add(delay)
}

// AttemptCount returns the number of recorded attempts
func (ts *TaxSubmission) AttemptCount() int {
	return len(ts.Attempts)
}
