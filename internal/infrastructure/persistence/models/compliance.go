package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/compliance"
)

// TaxSubmissionModel is the persistence model for the TaxSubmission aggregate root.
type TaxSubmissionModel struct {
	TenantAggregateModel
	InvoiceID      uuid.UUID                   `gorm:"type:uuid;not null;index"`
	InvoiceNumber  string                      `gorm:"type:varchar(50);not null;index"`
	Status         compliance.SubmissionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SubmissionHash string                      `gorm:"type:varchar(64);not null"`
	RetryCount     int                         `gorm:"not null;default:0"`
	LastRetryAt    *time.Time
	SubmittedAt    *time.Time
	ResolvedAt     *time.Time
	ResponseCode    string                        `gorm:"type:varchar(50)"`
	ResponseMessage string                        `gorm:"type:varchar(1000)"`
	Attempts        compliance.SubmissionAttempts `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (TaxSubmissionModel) TableName() string {
	return "tax_submissions"
}

// ToDomain converts the persistence model to a domain TaxSubmission entity.
func (m *TaxSubmissionModel) ToDomain() *compliance.TaxSubmission {
	sub := &compliance.TaxSubmission{
		InvoiceID:       m.InvoiceID,
		InvoiceNumber:   m.InvoiceNumber,
		Status:          m.Status,
		SubmissionHash:  m.SubmissionHash,
		RetryCount:      m.RetryCount,
		LastRetryAt:     m.LastRetryAt,
		SubmittedAt:     m.SubmittedAt,
		ResolvedAt:      m.ResolvedAt,
		ResponseCode:    m.ResponseCode,
		ResponseMessage: m.ResponseMessage,
		Attempts:        m.Attempts,
	}
	m.PopulateTenantAggregateRoot(&sub.TenantAggregateRoot)
	return sub
}

// FromDomain populates the persistence model from a domain TaxSubmission entity.
func (m *TaxSubmissionModel) FromDomain(sub *compliance.TaxSubmission) {
	m.FromDomainTenantAggregateRoot(sub.TenantAggregateRoot)
	m.InvoiceID = sub.InvoiceID
	m.InvoiceNumber = sub.InvoiceNumber
	m.Status = sub.Status
	m.SubmissionHash = sub.SubmissionHash
	m.RetryCount = sub.RetryCount
	m.LastRetryAt = sub.LastRetryAt
	m.SubmittedAt = sub.SubmittedAt
	m.ResolvedAt = sub.ResolvedAt
	m.ResponseCode = sub.ResponseCode
	m.ResponseMessage = sub.ResponseMessage
	m.Attempts = sub.Attempts
}

// TaxSubmissionModelFromDomain creates a new persistence model from a domain TaxSubmission.
func TaxSubmissionModelFromDomain(sub *compliance.TaxSubmission) *TaxSubmissionModel {
	m := &TaxSubmissionModel{}
	m.FromDomain(sub)
	return m
}
