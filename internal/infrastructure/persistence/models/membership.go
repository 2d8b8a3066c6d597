package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SubscriptionModel is the persistence model for the Subscription aggregate root.
type SubscriptionModel struct {
	TenantAggregateModel
	MemberID             uuid.UUID                     `gorm:"type:uuid;not null;index"`
	PlanID               uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Status               membership.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'PENDING_PAYMENT';index"`
	StartDate            time.Time                     `gorm:"not null"`
	EndDate              time.Time                     `gorm:"not null;index"`
	AutoRenew            bool                          `gorm:"not null;default:false"`
	PaidAmount           decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	Currency             valueobject.Currency          `gorm:"type:varchar(3);not null;default:'SAR'"`
	FreezeDaysAllowed    int                           `gorm:"not null;default:0"`
	FreezeDaysUsed       int                           `gorm:"not null;default:0"`
	FrozenAt             *time.Time
	FreezeReason         string `gorm:"type:varchar(500)"`
	ClassesRemaining     *int
	GuestPassesRemaining int        `gorm:"not null;default:0"`
	ContractID           *uuid.UUID `gorm:"type:uuid;index"`
	BillingPeriodStart   *time.Time
	BillingPeriodEnd     *time.Time
	CancelReason         string `gorm:"type:varchar(500)"`
	CancelledAt          *time.Time
	CancellationEffectiveAt *time.Time               `gorm:"index"`
	Notes                   string                   `gorm:"type:text"`
	History                 membership.StatusChanges `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription entity.
func (m *SubscriptionModel) ToDomain() *membership.Subscription {
	sub := &membership.Subscription{
		MemberID:                m.MemberID,
		PlanID:                  m.PlanID,
		Status:                  m.Status,
		StartDate:               m.StartDate,
		EndDate:                 m.EndDate,
		AutoRenew:               m.AutoRenew,
		PaidAmount:              m.PaidAmount,
		Currency:                m.Currency,
		FreezeDaysAllowed:       m.FreezeDaysAllowed,
		FreezeDaysUsed:          m.FreezeDaysUsed,
		FrozenAt:                m.FrozenAt,
		FreezeReason:            m.FreezeReason,
		ClassesRemaining:        m.ClassesRemaining,
		GuestPassesRemaining:    m.GuestPassesRemaining,
		ContractID:              m.ContractID,
		BillingPeriodStart:      m.BillingPeriodStart,
		BillingPeriodEnd:        m.BillingPeriodEnd,
		CancelReason:            m.CancelReason,
		CancelledAt:             m.CancelledAt,
		CancellationEffectiveAt: m.CancellationEffectiveAt,
		Notes:                   m.Notes,
		History:                 m.History,
	}
	m.PopulateTenantAggregateRoot(&sub.TenantAggregateRoot)
	return sub
}

// FromDomain populates the persistence model from a domain Subscription entity.
func (m *SubscriptionModel) FromDomain(sub *membership.Subscription) {
	m.FromDomainTenantAggregateRoot(sub.TenantAggregateRoot)
	m.MemberID = sub.MemberID
	m.PlanID = sub.PlanID
	m.Status = sub.Status
	m.StartDate = sub.StartDate
	m.EndDate = sub.EndDate
	m.AutoRenew = sub.AutoRenew
	m.PaidAmount = sub.PaidAmount
	m.Currency = sub.Currency
	m.FreezeDaysAllowed = sub.FreezeDaysAllowed
	m.FreezeDaysUsed = sub.FreezeDaysUsed
	m.FrozenAt = sub.FrozenAt
	m.FreezeReason = sub.FreezeReason
	m.ClassesRemaining = sub.ClassesRemaining
	m.GuestPassesRemaining = sub.GuestPassesRemaining
	m.ContractID = sub.ContractID
	m.BillingPeriodStart = sub.BillingPeriodStart
	m.BillingPeriodEnd = sub.BillingPeriodEnd
	m.CancelReason = sub.CancelReason
	m.CancelledAt = sub.CancelledAt
	m.CancellationEffectiveAt = sub.CancellationEffectiveAt
	m.Notes = sub.Notes
	m.History = sub.History
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription.
func SubscriptionModelFromDomain(sub *membership.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(sub)
	return m
}

// MembershipContractModel is the persistence model for the MembershipContract aggregate root.
// The locked fee value object is flattened into its components.
type MembershipContractModel struct {
	TenantAggregateModel
	ContractNumber    string                        `gorm:"type:varchar(50);not null;uniqueIndex:idx_contract_tenant_number,priority:2"`
	MemberID          uuid.UUID                     `gorm:"type:uuid;not null;index"`
	PlanID            uuid.UUID                     `gorm:"type:uuid;not null;index"`
	SubscriptionID    *uuid.UUID                    `gorm:"type:uuid;index"`
	Status            membership.ContractStatus     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	StartDate         time.Time                     `gorm:"not null"`
	EndDate           time.Time                     `gorm:"not null"`
	CommitmentMonths  int                           `gorm:"not null;default:0"`
	CommitmentEndDate *time.Time
	NoticePeriodDays  int                           `gorm:"not null;default:0"`
	MonthlyFeeAmount  decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	FeeCurrency       valueobject.Currency          `gorm:"type:varchar(3);not null;default:'SAR'"`
	FeeTaxRate        decimal.Decimal               `gorm:"type:decimal(8,6);not null"`
	TerminationFeeType  membership.TerminationFeeType `gorm:"type:varchar(20);not null;default:'NONE'"`
	TerminationFeeValue decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	SentAt            *time.Time
	SignedAt          *time.Time
	SignatureRef      string `gorm:"type:varchar(200)"`
	TerminatedAt      *time.Time
	TerminationReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (MembershipContractModel) TableName() string {
	return "membership_contracts"
}

// ToDomain converts the persistence model to a domain MembershipContract entity.
func (m *MembershipContractModel) ToDomain() *membership.MembershipContract {
	fee, _ := valueobject.NewTaxableFee(m.MonthlyFeeAmount, m.FeeCurrency, m.FeeTaxRate)
	contract := &membership.MembershipContract{
		ContractNumber:      m.ContractNumber,
		MemberID:            m.MemberID,
		PlanID:              m.PlanID,
		SubscriptionID:      m.SubscriptionID,
		Status:              m.Status,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		CommitmentMonths:    m.CommitmentMonths,
		CommitmentEndDate:   m.CommitmentEndDate,
		NoticePeriodDays:    m.NoticePeriodDays,
		LockedMembershipFee: fee,
		TerminationFeeType:  m.TerminationFeeType,
		TerminationFeeValue: m.TerminationFeeValue,
		SentAt:              m.SentAt,
		SignedAt:            m.SignedAt,
		SignatureRef:        m.SignatureRef,
		TerminatedAt:        m.TerminatedAt,
		TerminationReason:   m.TerminationReason,
	}
	m.PopulateTenantAggregateRoot(&contract.TenantAggregateRoot)
	return contract
}

// FromDomain populates the persistence model from a domain MembershipContract entity.
func (m *MembershipContractModel) FromDomain(c *membership.MembershipContract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.MemberID = c.MemberID
	m.PlanID = c.PlanID
	m.SubscriptionID = c.SubscriptionID
	m.Status = c.Status
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.CommitmentMonths = c.CommitmentMonths
	m.CommitmentEndDate = c.CommitmentEndDate
	m.NoticePeriodDays = c.NoticePeriodDays
	m.MonthlyFeeAmount = c.LockedMembershipFee.Amount()
	m.FeeCurrency = c.LockedMembershipFee.Currency()
	m.FeeTaxRate = c.LockedMembershipFee.TaxRate()
	m.TerminationFeeType = c.TerminationFeeType
	m.TerminationFeeValue = c.TerminationFeeValue
	m.SentAt = c.SentAt
	m.SignedAt = c.SignedAt
	m.SignatureRef = c.SignatureRef
	m.TerminatedAt = c.TerminatedAt
	m.TerminationReason = c.TerminationReason
}

// MembershipContractModelFromDomain creates a new persistence model from a domain MembershipContract.
func MembershipContractModelFromDomain(c *membership.MembershipContract) *MembershipContractModel {
	m := &MembershipContractModel{}
	m.FromDomain(c)
	return m
}
