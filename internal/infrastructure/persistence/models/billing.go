package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Line items and payment records are stored as JSONB collections.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	MemberID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	SubscriptionID *uuid.UUID            `gorm:"type:uuid;index:idx_invoice_subscription_period,priority:1"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Items          billing.LineItems     `gorm:"type:jsonb;default:'[]'"`
	Currency       valueobject.Currency  `gorm:"type:varchar(3);not null;default:'SAR'"`
	Subtotal       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	VATAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentRecords billing.Payments      `gorm:"type:jsonb;default:'[]'"`
	IssueDate      *time.Time
	DueDate        *time.Time `gorm:"index"`
	PaidAt         *time.Time
	BillingPeriodStart *time.Time `gorm:"index:idx_invoice_subscription_period,priority:2"`
	BillingPeriodEnd   *time.Time
	SubmissionHash     string     `gorm:"type:varchar(64)"`
	CancelledAt        *time.Time
	CancelReason       string `gorm:"type:varchar(500)"`
	Notes              string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:      m.InvoiceNumber,
		MemberID:           m.MemberID,
		SubscriptionID:     m.SubscriptionID,
		Status:             m.Status,
		Items:              m.Items,
		Currency:           m.Currency,
		Subtotal:           m.Subtotal,
		VATAmount:          m.VATAmount,
		TotalAmount:        m.TotalAmount,
		PaidAmount:         m.PaidAmount,
		PaymentRecords:     m.PaymentRecords,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		PaidAt:             m.PaidAt,
		BillingPeriodStart: m.BillingPeriodStart,
		BillingPeriodEnd:   m.BillingPeriodEnd,
		SubmissionHash:     m.SubmissionHash,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
		Notes:              m.Notes,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.MemberID = inv.MemberID
	m.SubscriptionID = inv.SubscriptionID
	m.Status = inv.Status
	m.Items = inv.Items
	m.Currency = inv.Currency
	m.Subtotal = inv.Subtotal
	m.VATAmount = inv.VATAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.PaymentRecords = inv.PaymentRecords
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.PaidAt = inv.PaidAt
	m.BillingPeriodStart = inv.BillingPeriodStart
	m.BillingPeriodEnd = inv.BillingPeriodEnd
	m.SubmissionHash = inv.SubmissionHash
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Notes = inv.Notes
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
