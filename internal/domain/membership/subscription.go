package membership

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the status of a membership subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending        SubscriptionStatus = "PENDING"         // Created, awaiting signature/payment setup
	SubscriptionStatusPendingPayment SubscriptionStatus = "PENDING_PAYMENT" // Awaiting first successful payment
	SubscriptionStatusActive         SubscriptionStatus = "ACTIVE"          // Entitlement period running
	SubscriptionStatusFrozen         SubscriptionStatus = "FROZEN"          // Clock paused, resumable
	SubscriptionStatusCancelled      SubscriptionStatus = "CANCELLED"       // Terminal for billing, renewable
	SubscriptionStatusExpired        SubscriptionStatus = "EXPIRED"         // Terminal for billing, renewable
)

// IsValid checks if the status is a valid SubscriptionStatus
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusPending, SubscriptionStatusPendingPayment, SubscriptionStatusActive,
		SubscriptionStatusFrozen, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of SubscriptionStatus
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the subscription is terminal for billing purposes.
// Terminal subscriptions are never hard-deleted; Renew can still start a fresh period.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusExpired
}

// CanActivate returns true if Activate is legal from this status
func (s SubscriptionStatus) CanActivate() bool {
	return s == SubscriptionStatusPending || s == SubscriptionStatusPendingPayment
}

// CanCancel returns true if Cancel is legal from this status
func (s SubscriptionStatus) CanCancel() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusFrozen
}

// CanRenew returns true if Renew is legal from this status
func (s SubscriptionStatus) CanRenew() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusExpired || s == SubscriptionStatusCancelled
}

// FreezePolicy captures the plan-level freeze behaviour consulted on Freeze.
// When ExtendOnFreeze is set the end date shifts by the frozen days so the
// member keeps the full entitlement period.
type FreezePolicy struct {
	ExtendOnFreeze bool
}

// StatusChange is an immutable history record appended on every transition.
// It is a value object within the Subscription aggregate, stored as JSONB.
type StatusChange struct {
	ID         uuid.UUID          `json:"id"`
	Operation  string             `json:"operation"`
	FromStatus SubscriptionStatus `json:"from_status"`
	ToStatus   SubscriptionStatus `json:"to_status"`
	ActorID    uuid.UUID          `json:"actor_id"`
	At         time.Time          `json:"at"`
	Note       string             `json:"note,omitempty"`
}

// StatusChanges is a slice of StatusChange that implements GORM Scanner/Valuer for JSONB storage
type StatusChanges []StatusChange

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c StatusChanges) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *StatusChanges) Scan(value interface{}) error {
	if value == nil {
		*c = StatusChanges{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StatusChanges: unsupported type")
	}

	if len(bytes) == 0 {
		*c = StatusChanges{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Subscription represents a membership subscription aggregate root.
// It owns the billing lifecycle of a member's plan period; status is only
// ever written by the transition methods below.
type Subscription struct {
	shared.TenantAggregateRoot
	MemberID             uuid.UUID          `json:"member_id"`
	PlanID               uuid.UUID          `json:"plan_id"`
	Status               SubscriptionStatus `json:"status"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	AutoRenew            bool               `json:"auto_renew"`
	PaidAmount           decimal.Decimal    `json:"paid_amount"`
	Currency             valueobject.Currency `json:"currency"`
	FreezeDaysAllowed    int                `json:"freeze_days_allowed"`
	FreezeDaysUsed       int                `json:"freeze_days_used"`
	FrozenAt             *time.Time         `json:"frozen_at,omitempty"`
	FreezeReason         string             `json:"freeze_reason,omitempty"`
	ClassesRemaining     *int               `json:"classes_remaining,omitempty"` // nil means unlimited
	GuestPassesRemaining int                `json:"guest_passes_remaining"`
	ContractID           *uuid.UUID         `json:"contract_id,omitempty"`
	BillingPeriodStart   *time.Time         `json:"billing_period_start,omitempty"`
	BillingPeriodEnd     *time.Time         `json:"billing_period_end,omitempty"`
	CancelReason             string     `json:"cancel_reason,omitempty"`
	CancelledAt              *time.Time `json:"cancelled_at,omitempty"`
	CancellationEffectiveAt  *time.Time `json:"cancellation_effective_at,omitempty"` // deferred cancellation, not a separate state
	Notes                    string     `json:"notes,omitempty"`
	History                  StatusChanges `json:"history"`
}

// NewSubscription creates a new subscription in PENDING_PAYMENT
func NewSubscription(
	tenantID uuid.UUID,
	memberID uuid.UUID,
	planID uuid.UUID,
	startDate time.Time,
	endDate time.Time,
	freezeDaysAllowed int,
	guestPasses int,
	classesRemaining *int,
	autoRenew bool,
) (*Subscription, error) {
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if planID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan ID cannot be empty")
	}
	if endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "End date cannot be before start date")
	}
	if freezeDaysAllowed < 0 {
		return nil, shared.NewDomainError("INVALID_FREEZE_ALLOWANCE", "Freeze days allowed cannot be negative")
	}

	sub := &Subscription{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		MemberID:             memberID,
		PlanID:               planID,
		Status:               SubscriptionStatusPendingPayment,
		StartDate:            startDate,
		EndDate:              endDate,
		AutoRenew:            autoRenew,
		PaidAmount:           decimal.Zero,
		Currency:             valueobject.DefaultCurrency,
		FreezeDaysAllowed:    freezeDaysAllowed,
		GuestPassesRemaining: guestPasses,
		ClassesRemaining:     classesRemaining,
		History:              StatusChanges{},
	}

	sub.AddDomainEvent(NewSubscriptionCreatedEvent(sub))

	return sub, nil
}

// recordTransition appends an immutable history record and bumps bookkeeping.
// Every status transition goes through here so the member-facing activity
// timeline and dunning/support audits can reconstruct the full lifecycle.
func (s *Subscription) recordTransition(operation string, from SubscriptionStatus, actorID uuid.UUID, note string) {
	s.History = append(s.History, StatusChange{
		ID:         uuid.New(),
		Operation:  operation,
		FromStatus: from,
		ToStatus:   s.Status,
		ActorID:    actorID,
		At:         time.Now(),
		Note:       note,
	})
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Activate transitions the subscription to ACTIVE on first successful payment
func (s *Subscription) Activate(paidAmount valueobject.Money, actorID uuid.UUID) error {
	if !s.Status.CanActivate() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate subscription in %s status", s.Status))
	}

	from := s.Status
	s.Status = SubscriptionStatusActive
	s.PaidAmount = paidAmount.Amount()
	s.Currency = paidAmount.Currency()
	s.recordTransition("activate", from, actorID, "")

	s.AddDomainEvent(NewSubscriptionActivatedEvent(s))

	return nil
}

// Freeze pauses the subscription clock, consuming days from the freeze allowance.
// When the plan extends on freeze the end date shifts immediately by the frozen
// days; Unfreeze performs no further date adjustment.
func (s *Subscription) Freeze(days int, reason string, policy FreezePolicy, actorID uuid.UUID) error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot freeze subscription in %s status", s.Status))
	}
	if days <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Freeze days must be positive")
	}
	if s.FreezeDaysUsed+days > s.FreezeDaysAllowed {
		return shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Freeze of %d days exceeds remaining allowance of %d days", days, s.FreezeDaysAllowed-s.FreezeDaysUsed))
	}

	now := time.Now()
	from := s.Status
	s.Status = SubscriptionStatusFrozen
	s.FreezeDaysUsed += days
	s.FrozenAt = &now
	s.FreezeReason = reason
	if policy.ExtendOnFreeze {
		s.EndDate = s.EndDate.AddDate(0, 0, days)
	}
	s.recordTransition("freeze", from, actorID, fmt.Sprintf("%d days", days))

	s.AddDomainEvent(NewSubscriptionFrozenEvent(s, days))

	return nil
}

// Unfreeze returns the subscription to ACTIVE.
// The end-date extension, if any, already happened at freeze time.
func (s *Subscription) Unfreeze(actorID uuid.UUID) error {
	if s.Status != SubscriptionStatusFrozen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot unfreeze subscription in %s status", s.Status))
	}

	from := s.Status
	s.Status = SubscriptionStatusActive
	s.FrozenAt = nil
	s.FreezeReason = ""
	s.recordTransition("unfreeze", from, actorID, "")

	s.AddDomainEvent(NewSubscriptionUnfrozenEvent(s))

	return nil
}

// Cancel cancels the subscription. With immediate=false the status stays as-is,
// auto-renew is forced off and a deferred cancellation effective at the end
// date is recorded instead of introducing a separate state.
func (s *Subscription) Cancel(reason string, immediate bool, actorID uuid.UUID) error {
	if !s.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel subscription in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	from := s.Status

	if immediate {
		s.Status = SubscriptionStatusCancelled
		s.CancelledAt = &now
		s.CancelReason = reason
		s.CancellationEffectiveAt = nil
		s.recordTransition("cancel", from, actorID, reason)
		s.AddDomainEvent(NewSubscriptionCancelledEvent(s, true))
		return nil
	}

	effective := s.EndDate
	s.AutoRenew = false
	s.CancelReason = reason
	s.CancellationEffectiveAt = &effective
	s.recordTransition("schedule_cancellation", from, actorID, reason)
	s.AddDomainEvent(NewSubscriptionCancellationScheduledEvent(s))
	return nil
}

// CompleteScheduledCancellation finalises a deferred cancellation once its
// effective date has passed. Invoked by the expiry sweep, safe to re-invoke.
func (s *Subscription) CompleteScheduledCancellation(now time.Time, actorID uuid.UUID) error {
	if s.CancellationEffectiveAt == nil || now.Before(*s.CancellationEffectiveAt) {
		return nil
	}
	if s.Status.IsTerminal() {
		return nil
	}

	from := s.Status
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.CancellationEffectiveAt = nil
	s.recordTransition("complete_cancellation", from, actorID, s.CancelReason)
	s.AddDomainEvent(NewSubscriptionCancelledEvent(s, false))
	return nil
}

// ReactivateFromDunning clears a cancellation that was pending for non-payment
// after the dunning engine recovers the overdue invoice. Cross-component
// effects arrive only through this explicit call, never a field mutation.
func (s *Subscription) ReactivateFromDunning(actorID uuid.UUID) error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reactivate subscription in %s status", s.Status))
	}
	if s.CancellationEffectiveAt == nil {
		return nil
	}

	from := s.Status
	s.CancellationEffectiveAt = nil
	s.CancelReason = ""
	s.recordTransition("reactivate_from_dunning", from, actorID, "payment recovered")
	s.AddDomainEvent(NewSubscriptionReactivatedEvent(s))
	return nil
}

// TransferTo reassigns the subscription to another member.
// Dates and balances carry over unchanged.
func (s *Subscription) TransferTo(targetMemberID uuid.UUID, actorID uuid.UUID) error {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusFrozen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transfer subscription in %s status", s.Status))
	}
	if targetMemberID == uuid.Nil {
		return shared.NewDomainError("INVALID_MEMBER", "Target member ID cannot be empty")
	}
	if targetMemberID == s.MemberID {
		return shared.NewDomainError("SAME_MEMBER", "Target member is the same as the current owner")
	}

	from := s.Status
	previousMember := s.MemberID
	s.MemberID = targetMemberID
	s.recordTransition("transfer", from, actorID, fmt.Sprintf("from member %s", previousMember))

	s.AddDomainEvent(NewSubscriptionTransferredEvent(s, previousMember))

	return nil
}

// Renew starts a fresh period on the same aggregate so a single audit trail
// covers the whole relationship. Terminal statuses are renewable.
func (s *Subscription) Renew(newEndDate time.Time, paidAmount valueobject.Money, actorID uuid.UUID) error {
	if !s.Status.CanRenew() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot renew subscription in %s status", s.Status))
	}
	if !newEndDate.After(s.EndDate) && s.Status == SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_PERIOD", "Renewal end date must be after the current end date")
	}

	from := s.Status
	s.Status = SubscriptionStatusActive
	s.EndDate = newEndDate
	s.PaidAmount = paidAmount.Amount()
	s.Currency = paidAmount.Currency()
	s.CancelledAt = nil
	s.CancelReason = ""
	s.CancellationEffectiveAt = nil
	s.recordTransition("renew", from, actorID, "")

	s.AddDomainEvent(NewSubscriptionRenewedEvent(s))

	return nil
}

// MarkExpired transitions an ACTIVE subscription whose end date has passed.
// Invoked by the periodic sweep; a no-op otherwise so it is safe to re-invoke.
func (s *Subscription) MarkExpired(now time.Time, actorID uuid.UUID) error {
	if s.Status != SubscriptionStatusActive || !now.After(s.EndDate) {
		return nil
	}

	from := s.Status
	s.Status = SubscriptionStatusExpired
	s.recordTransition("expire", from, actorID, "")
	s.AddDomainEvent(NewSubscriptionExpiredEvent(s))
	return nil
}

// UseClass consumes one class from the allowance. A nil allowance is unlimited.
func (s *Subscription) UseClass() error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot use a class on a %s subscription", s.Status))
	}
	if s.ClassesRemaining == nil {
		return nil
	}
	if *s.ClassesRemaining <= 0 {
		return shared.NewDomainError("INSUFFICIENT_BALANCE", "No classes remaining")
	}
	remaining := *s.ClassesRemaining - 1
	s.ClassesRemaining = &remaining
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// UseGuestPass consumes one guest pass
func (s *Subscription) UseGuestPass() error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot use a guest pass on a %s subscription", s.Status))
	}
	if s.GuestPassesRemaining <= 0 {
		return shared.NewDomainError("INSUFFICIENT_BALANCE", "No guest passes remaining")
	}
	s.GuestPassesRemaining--
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// LinkContract links the subscription to its service agreement
func (s *Subscription) LinkContract(contractID uuid.UUID) {
	s.ContractID = &contractID
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// SetBillingPeriod records the current billing period used to key invoice generation
func (s *Subscription) SetBillingPeriod(period valueobject.DateRange) {
	start := period.Start()
	end := period.End()
	s.BillingPeriodStart = &start
	s.BillingPeriodEnd = &end
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Helper methods

// GetPaidAmountMoney returns the paid amount as Money
func (s *Subscription) GetPaidAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.PaidAmount, s.Currency)
	return m
}

// FreezeDaysRemaining returns the unconsumed freeze allowance
func (s *Subscription) FreezeDaysRemaining() int {
	return s.FreezeDaysAllowed - s.FreezeDaysUsed
}

// DaysRemaining returns the number of days until the end date at the given time.
// Negative when the period has already ended.
func (s *Subscription) DaysRemaining(now time.Time) int {
	return int(s.EffectiveEndDate().Sub(now).Hours() / 24)
}

// EffectiveEndDate returns the date access actually ends. Freeze extensions
// are already folded into EndDate when the freeze is taken; a scheduled
// cancellation caps the period if it lands earlier.
func (s *Subscription) EffectiveEndDate() time.Time {
	if s.CancellationEffectiveAt != nil && s.CancellationEffectiveAt.Before(s.EndDate) {
		return *s.CancellationEffectiveAt
	}
	return s.EndDate
}

// IsActive returns true if the subscription is ACTIVE and its period has not ended
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !now.After(s.EndDate)
}

// IsFrozen returns true if the subscription is frozen
func (s *Subscription) IsFrozen() bool {
	return s.Status == SubscriptionStatusFrozen
}

// HasPendingCancellation returns true if a deferred cancellation is recorded
func (s *Subscription) HasPendingCancellation() bool {
	return s.CancellationEffectiveAt != nil
}

// HasClassesAvailable returns true if classes remain (or the allowance is unlimited)
func (s *Subscription) HasClassesAvailable() bool {
	return s.ClassesRemaining == nil || *s.ClassesRemaining > 0
}
