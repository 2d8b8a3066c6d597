package billing

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the stored status of an invoice.
// OVERDUE is derived from (paidAmount, totalAmount, now, dueDate) whenever the
// status is read; the stored value is refreshed opportunistically by the sweep
// but is never the source of truth for overdueness.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice can receive no further payments
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanRecordPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanRecordPayment() bool {
	return s == InvoiceStatusIssued || s == InvoiceStatusPartiallyPaid || s == InvoiceStatusOverdue
}

// LineItemType categorises a line item
type LineItemType string

const (
	LineItemTypeSubscription   LineItemType = "SUBSCRIPTION"
	LineItemTypeJoinFee        LineItemType = "JOIN_FEE"
	LineItemTypeAdminFee       LineItemType = "ADMIN_FEE"
	LineItemTypeTerminationFee LineItemType = "TERMINATION_FEE"
	LineItemTypeOther          LineItemType = "OTHER"
)

// IsValid checks if the line item type is valid
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemTypeSubscription, LineItemTypeJoinFee, LineItemTypeAdminFee,
		LineItemTypeTerminationFee, LineItemTypeOther:
		return true
	}
	return false
}

// LineItem is a value object within the Invoice aggregate, stored as JSONB.
// Items are mutable only while the invoice is DRAFT.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ItemType    LineItemType    `json:"item_type"`
	SortOrder   int             `json:"sort_order"`
}

// NetAmount returns quantity * unit price
func (li LineItem) NetAmount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// TaxAmount returns the derived tax portion of the line
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.NetAmount().Mul(li.TaxRate)
}

// GrossAmount returns the tax-inclusive line total
func (li LineItem) GrossAmount() decimal.Decimal {
	return li.NetAmount().Add(li.TaxAmount())
}

// LineItems is a slice of LineItem that implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Payment is an append-only record of money received against the invoice,
// stored as JSONB within the aggregate.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Payments is a slice of Payment that implements GORM Scanner/Valuer for JSONB storage
type Payments []Payment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *Payments) Scan(value interface{}) error {
	if value == nil {
		*p = Payments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Payments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = Payments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Invoice represents an invoice aggregate root.
// Totals are derived from line items at issuance time and frozen thereafter.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string        `json:"invoice_number"`
	MemberID       uuid.UUID     `json:"member_id"`
	SubscriptionID *uuid.UUID    `json:"subscription_id,omitempty"`
	Status         InvoiceStatus `json:"status"`
	Items          LineItems     `json:"items"`
	Currency       valueobject.Currency `json:"currency"`

	// Frozen at issuance; zero while DRAFT.
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentRecords Payments        `json:"payment_records"`

	IssueDate *time.Time `json:"issue_date,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	// Billing period for subscription-generated invoices; together with the
	// subscription id it keys idempotent invoice generation.
	BillingPeriodStart *time.Time `json:"billing_period_start,omitempty"`
	BillingPeriodEnd   *time.Time `json:"billing_period_end,omitempty"`

	// Content hash of the issued payload, used as the tax-authority
	// idempotency key.
	SubmissionHash string `json:"submission_hash,omitempty"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// NewInvoice creates a new invoice in DRAFT
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	memberID uuid.UUID,
	subscriptionID *uuid.UUID,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		MemberID:            memberID,
		SubscriptionID:      subscriptionID,
		Status:              InvoiceStatusDraft,
		Items:               LineItems{},
		Currency:            valueobject.DefaultCurrency,
		Subtotal:            decimal.Zero,
		VATAmount:           decimal.Zero,
		TotalAmount:         decimal.Zero,
		PaidAmount:          decimal.Zero,
		PaymentRecords:      Payments{},
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// SetBillingPeriod records the subscription billing period this invoice covers
func (inv *Invoice) SetBillingPeriod(period valueobject.DateRange) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Billing period can only be set while draft")
	}
	start := period.Start()
	end := period.End()
	inv.BillingPeriodStart = &start
	inv.BillingPeriodEnd = &end
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// AddLineItem appends a line item. Permitted only while DRAFT.
func (inv *Invoice) AddLineItem(description string, quantity int, unitPrice valueobject.Money, taxRate decimal.Decimal, itemType LineItemType) (uuid.UUID, error) {
	if inv.Status != InvoiceStatusDraft {
		return uuid.Nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify line items of an invoice in %s status", inv.Status))
	}
	if description == "" {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Line item description cannot be empty")
	}
	if quantity <= 0 {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Line item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Line item unit price cannot be negative")
	}
	if unitPrice.Currency() != inv.Currency && len(inv.Items) > 0 {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Line item currency %s does not match invoice currency %s", unitPrice.Currency(), inv.Currency))
	}
	if taxRate.IsNegative() {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Line item tax rate cannot be negative")
	}
	if !itemType.IsValid() {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Line item type is not valid")
	}

	if len(inv.Items) == 0 {
		inv.Currency = unitPrice.Currency()
	}
	item := LineItem{
		ID:          uuid.New(),
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		TaxRate:     taxRate,
		ItemType:    itemType,
		SortOrder:   len(inv.Items),
	}
	inv.Items = append(inv.Items, item)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return item.ID, nil
}

// RemoveLineItem removes a line item by ID. Permitted only while DRAFT.
func (inv *Invoice) RemoveLineItem(itemID uuid.UUID) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify line items of an invoice in %s status", inv.Status))
	}

	for i, item := range inv.Items {
		if item.ID == itemID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			for j := range inv.Items {
				inv.Items[j].SortOrder = j
			}
			inv.UpdatedAt = time.Now()
			inv.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Line item not found")
}

// Issue locks the invoice: totals are computed from the line items and frozen,
// issue/due dates are set, and the submission hash for tax reporting is fixed.
func (inv *Invoice) Issue(now time.Time, paymentTermsDays int) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue invoice in %s status", inv.Status))
	}
	if len(inv.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot issue an invoice with no line items")
	}
	if paymentTermsDays < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Payment terms days cannot be negative")
	}

	subtotal := decimal.Zero
	vat := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.NetAmount())
		vat = vat.Add(item.TaxAmount())
	}

	dueDate := now.AddDate(0, 0, paymentTermsDays)
	inv.Subtotal = subtotal
	inv.VATAmount = vat
	inv.TotalAmount = subtotal.Add(vat)
	inv.IssueDate = &now
	inv.DueDate = &dueDate
	inv.Status = InvoiceStatusIssued
	inv.SubmissionHash = inv.computeSubmissionHash()
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// computeSubmissionHash produces a stable content hash of the issued invoice.
// The tax authority treats a repeated hash as a duplicate, so a retried
// submission after a transport failure cannot create a second fiscal record.
func (inv *Invoice) computeSubmissionHash() string {
	items := make([]LineItem, len(inv.Items))
	copy(items, inv.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	payload := struct {
		TenantID      uuid.UUID       `json:"tenant_id"`
		InvoiceNumber string          `json:"invoice_number"`
		IssueDate     string          `json:"issue_date"`
		Currency      valueobject.Currency `json:"currency"`
		Subtotal      string          `json:"subtotal"`
		VATAmount     string          `json:"vat_amount"`
		TotalAmount   string          `json:"total_amount"`
		Items         []LineItem      `json:"items"`
	}{
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate.UTC().Format(time.RFC3339),
		Currency:      inv.Currency,
		Subtotal:      inv.Subtotal.String(),
		VATAmount:     inv.VATAmount.String(),
		TotalAmount:   inv.TotalAmount.String(),
		Items:         items,
	}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordPayment appends a payment and recomputes the status deterministically
// from the new remaining balance.
func (inv *Invoice) RecordPayment(amount valueobject.Money, method, reference string, now time.Time) error {
	if !inv.Status.CanRecordPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on an invoice in %s status", inv.Status))
	}
	if amount.Currency() != inv.Currency {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Payment currency %s does not match invoice currency %s", amount.Currency(), inv.Currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if method == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment method is required")
	}
	if inv.PaidAmount.Add(amount.Amount()).GreaterThan(inv.TotalAmount) {
		return shared.NewDomainError("OVERPAYMENT",
			fmt.Sprintf("Payment of %s would exceed the remaining balance of %s",
				amount.Amount().StringFixed(2), inv.RemainingBalance().StringFixed(2)))
	}

	inv.PaymentRecords = append(inv.PaymentRecords, Payment{
		ID:         uuid.New(),
		Amount:     amount.Amount(),
		Method:     method,
		Reference:  reference,
		ReceivedAt: now,
	})
	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())

	if inv.RemainingBalance().IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amount.Amount()))
	}

	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// Cancel voids the invoice. Only legal with zero payments recorded; money
// already received must go through a refund/credit flow instead.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusIssued {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if len(inv.PaymentRecords) > 0 || inv.PaidAmount.IsPositive() {
		return shared.NewDomainError("PAYMENTS_EXIST", "Cannot cancel an invoice that has received payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// RemainingBalance returns totalAmount - paidAmount
func (inv *Invoice) RemainingBalance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// EffectiveStatus derives the externally visible status at the given time.
// An issued or partially paid invoice past its due date with a balance
// outstanding reports OVERDUE even if no sweep ever ran.
func (inv *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if inv.IsOverdue(now) {
		return InvoiceStatusOverdue
	}
	return inv.Status
}

// IsOverdue is a pure derived read over stored facts plus the clock
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status.IsTerminal() || inv.Status == InvoiceStatusDraft {
		return false
	}
	return inv.DueDate != nil && now.After(*inv.DueDate) && inv.RemainingBalance().IsPositive()
}

// RefreshStatus persists the derived OVERDUE status opportunistically.
// Returns true if the stored status changed; a cache update only, never
// required for correctness.
func (inv *Invoice) RefreshStatus(now time.Time) bool {
	if inv.IsOverdue(now) && inv.Status != InvoiceStatusOverdue {
		inv.Status = InvoiceStatusOverdue
		inv.UpdatedAt = now
		inv.IncrementVersion()
		inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))
		return true
	}
	return false
}

// Helper methods

// GetTotalAmountMoney returns total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.TotalAmount, inv.Currency)
	return m
}

// GetRemainingBalanceMoney returns remaining balance as Money
func (inv *Invoice) GetRemainingBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.RemainingBalance(), inv.Currency)
	return m
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsDraft returns true while line items remain mutable
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// PaymentCount returns the number of payments recorded
func (inv *Invoice) PaymentCount() int {
	return len(inv.PaymentRecords)
}

// DaysOverdue returns whole days past due at the given time (0 if not overdue)
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(*inv.DueDate).Hours() / 24)
}
