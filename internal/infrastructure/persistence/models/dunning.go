package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/dunning"
)

// DunningSequenceModel is the persistence model for the DunningSequence
// aggregate root. The template snapshot and executed steps are JSONB.
type DunningSequenceModel struct {
	TenantAggregateModel
	InvoiceID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	SubscriptionID *uuid.UUID            `gorm:"type:uuid;index"`
	MemberID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status         dunning.SequenceStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Template       dunning.StepTemplate   `gorm:"type:jsonb;default:'[]'"`
	Steps          dunning.DunningSteps   `gorm:"type:jsonb;default:'[]'"`
	CurrentStepIndex int                  `gorm:"not null;default:0"`
	NextActionAt     *time.Time           `gorm:"index"`
	InvoiceDueDate   time.Time            `gorm:"not null"`
	PausedAt         *time.Time
	PauseReason      string `gorm:"type:varchar(500)"`
	EscalatedAt      *time.Time
	EscalatedTo      string `gorm:"type:varchar(200)"`
	EscalationNote   string `gorm:"type:varchar(1000)"`
	RecoveredAt      *time.Time
	RecoveryMethod   string `gorm:"type:varchar(50)"`
	RecoveryNote     string `gorm:"type:varchar(1000)"`
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
	ExhaustedAt      *time.Time
}

// TableName returns the table name for GORM
func (DunningSequenceModel) TableName() string {
	return "dunning_sequences"
}

// ToDomain converts the persistence model to a domain DunningSequence entity.
func (m *DunningSequenceModel) ToDomain() *dunning.DunningSequence {
	seq := &dunning.DunningSequence{
		InvoiceID:        m.InvoiceID,
		SubscriptionID:   m.SubscriptionID,
		MemberID:         m.MemberID,
		Status:           m.Status,
		Template:         m.Template,
		Steps:            m.Steps,
		CurrentStepIndex: m.CurrentStepIndex,
		NextActionAt:     m.NextActionAt,
		InvoiceDueDate:   m.InvoiceDueDate,
		PausedAt:         m.PausedAt,
		PauseReason:      m.PauseReason,
		EscalatedAt:      m.EscalatedAt,
		EscalatedTo:      m.EscalatedTo,
		EscalationNote:   m.EscalationNote,
		RecoveredAt:      m.RecoveredAt,
		RecoveryMethod:   m.RecoveryMethod,
		RecoveryNote:     m.RecoveryNote,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		ExhaustedAt:      m.ExhaustedAt,
	}
	m.PopulateTenantAggregateRoot(&seq.TenantAggregateRoot)
	return seq
}

// FromDomain populates the persistence model from a domain DunningSequence entity.
func (m *DunningSequenceModel) FromDomain(seq *dunning.DunningSequence) {
	m.FromDomainTenantAggregateRoot(seq.TenantAggregateRoot)
	m.InvoiceID = seq.InvoiceID
	m.SubscriptionID = seq.SubscriptionID
	m.MemberID = seq.MemberID
	m.Status = seq.Status
	m.Template = seq.Template
	m.Steps = seq.Steps
	m.CurrentStepIndex = seq.CurrentStepIndex
	m.NextActionAt = seq.NextActionAt
	m.InvoiceDueDate = seq.InvoiceDueDate
	m.PausedAt = seq.PausedAt
	m.PauseReason = seq.PauseReason
	m.EscalatedAt = seq.EscalatedAt
	m.EscalatedTo = seq.EscalatedTo
	m.EscalationNote = seq.EscalationNote
	m.RecoveredAt = seq.RecoveredAt
	m.RecoveryMethod = seq.RecoveryMethod
	m.RecoveryNote = seq.RecoveryNote
	m.CancelledAt = seq.CancelledAt
	m.CancelReason = seq.CancelReason
	m.ExhaustedAt = seq.ExhaustedAt
}

// DunningSequenceModelFromDomain creates a new persistence model from a domain DunningSequence.
func DunningSequenceModelFromDomain(seq *dunning.DunningSequence) *DunningSequenceModel {
	m := &DunningSequenceModel{}
	m.FromDomain(seq)
	return m
}
