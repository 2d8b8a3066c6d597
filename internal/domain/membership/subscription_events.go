package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubscriptionCreatedEvent is raised when a new subscription is created
type SubscriptionCreatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID          `json:"subscription_id"`
	MemberID       uuid.UUID          `json:"member_id"`
	PlanID         uuid.UUID          `json:"plan_id"`
	Status         SubscriptionStatus `json:"status"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	AutoRenew      bool               `json:"auto_renew"`
}

// EventType returns the event type name
func (e *SubscriptionCreatedEvent) EventType() string {
	return "SubscriptionCreated"
}

// NewSubscriptionCreatedEvent creates a new SubscriptionCreatedEvent
func NewSubscriptionCreatedEvent(s *Subscription) *SubscriptionCreatedEvent {
	return &SubscriptionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionCreated", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		PlanID:          s.PlanID,
		Status:          s.Status,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		AutoRenew:       s.AutoRenew,
	}
}

// SubscriptionActivatedEvent is raised on first successful payment
type SubscriptionActivatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	MemberID       uuid.UUID       `json:"member_id"`
	PlanID         uuid.UUID       `json:"plan_id"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	EndDate        time.Time       `json:"end_date"`
}

// EventType returns the event type name
func (e *SubscriptionActivatedEvent) EventType() string {
	return "SubscriptionActivated"
}

// NewSubscriptionActivatedEvent creates a new SubscriptionActivatedEvent
func NewSubscriptionActivatedEvent(s *Subscription) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionActivated", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		PlanID:          s.PlanID,
		PaidAmount:      s.PaidAmount,
		EndDate:         s.EndDate,
	}
}

// SubscriptionFrozenEvent is raised when a subscription is frozen
type SubscriptionFrozenEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	FrozenDays     int       `json:"frozen_days"`
	FreezeDaysUsed int       `json:"freeze_days_used"`
	EndDate        time.Time `json:"end_date"`
}

// EventType returns the event type name
func (e *SubscriptionFrozenEvent) EventType() string {
	return "SubscriptionFrozen"
}

// NewSubscriptionFrozenEvent creates a new SubscriptionFrozenEvent
func NewSubscriptionFrozenEvent(s *Subscription, days int) *SubscriptionFrozenEvent {
	return &SubscriptionFrozenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionFrozen", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		FrozenDays:      days,
		FreezeDaysUsed:  s.FreezeDaysUsed,
		EndDate:         s.EndDate,
	}
}

// SubscriptionUnfrozenEvent is raised when a subscription resumes
type SubscriptionUnfrozenEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	EndDate        time.Time `json:"end_date"`
}

// EventType returns the event type name
func (e *SubscriptionUnfrozenEvent) EventType() string {
	return "SubscriptionUnfrozen"
}

// NewSubscriptionUnfrozenEvent creates a new SubscriptionUnfrozenEvent
func NewSubscriptionUnfrozenEvent(s *Subscription) *SubscriptionUnfrozenEvent {
	return &SubscriptionUnfrozenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionUnfrozen", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		EndDate:         s.EndDate,
	}
}

// SubscriptionCancelledEvent is raised when a cancellation takes effect
type SubscriptionCancelledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	Reason         string    `json:"reason"`
	Immediate      bool      `json:"immediate"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *SubscriptionCancelledEvent) EventType() string {
	return "SubscriptionCancelled"
}

// NewSubscriptionCancelledEvent creates a new SubscriptionCancelledEvent
func NewSubscriptionCancelledEvent(s *Subscription, immediate bool) *SubscriptionCancelledEvent {
	cancelledAt := time.Now()
	if s.CancelledAt != nil {
		cancelledAt = *s.CancelledAt
	}
	return &SubscriptionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionCancelled", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		Reason:          s.CancelReason,
		Immediate:       immediate,
		CancelledAt:     cancelledAt,
	}
}

// SubscriptionCancellationScheduledEvent is raised when a deferred cancellation is recorded
type SubscriptionCancellationScheduledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	Reason         string    `json:"reason"`
	EffectiveAt    time.Time `json:"effective_at"`
}

// EventType returns the event type name
func (e *SubscriptionCancellationScheduledEvent) EventType() string {
	return "SubscriptionCancellationScheduled"
}

// NewSubscriptionCancellationScheduledEvent creates a new SubscriptionCancellationScheduledEvent
func NewSubscriptionCancellationScheduledEvent(s *Subscription) *SubscriptionCancellationScheduledEvent {
	effectiveAt := s.EndDate
	if s.CancellationEffectiveAt != nil {
		effectiveAt = *s.CancellationEffectiveAt
	}
	return &SubscriptionCancellationScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionCancellationScheduled", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		Reason:          s.CancelReason,
		EffectiveAt:     effectiveAt,
	}
}

// SubscriptionReactivatedEvent is raised when a pending cancellation for
// non-payment is cleared after recovery
type SubscriptionReactivatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
}

// EventType returns the event type name
func (e *SubscriptionReactivatedEvent) EventType() string {
	return "SubscriptionReactivated"
}

// NewSubscriptionReactivatedEvent creates a new SubscriptionReactivatedEvent
func NewSubscriptionReactivatedEvent(s *Subscription) *SubscriptionReactivatedEvent {
	return &SubscriptionReactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionReactivated", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
	}
}

// SubscriptionTransferredEvent is raised when ownership moves to another member
type SubscriptionTransferredEvent struct {
	shared.BaseDomainEvent
	SubscriptionID   uuid.UUID `json:"subscription_id"`
	PreviousMemberID uuid.UUID `json:"previous_member_id"`
	NewMemberID      uuid.UUID `json:"new_member_id"`
}

// EventType returns the event type name
func (e *SubscriptionTransferredEvent) EventType() string {
	return "SubscriptionTransferred"
}

// NewSubscriptionTransferredEvent creates a new SubscriptionTransferredEvent
func NewSubscriptionTransferredEvent(s *Subscription, previousMemberID uuid.UUID) *SubscriptionTransferredEvent {
	return &SubscriptionTransferredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("SubscriptionTransferred", "Subscription", s.ID, s.TenantID),
		SubscriptionID:   s.ID,
		PreviousMemberID: previousMemberID,
		NewMemberID:      s.MemberID,
	}
}

// SubscriptionRenewedEvent is raised when a fresh period starts
type SubscriptionRenewedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	MemberID       uuid.UUID       `json:"member_id"`
	NewEndDate     time.Time       `json:"new_end_date"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
}

// EventType returns the event type name
func (e *SubscriptionRenewedEvent) EventType() string {
	return "SubscriptionRenewed"
}

// NewSubscriptionRenewedEvent creates a new SubscriptionRenewedEvent
func NewSubscriptionRenewedEvent(s *Subscription) *SubscriptionRenewedEvent {
	return &SubscriptionRenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionRenewed", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		NewEndDate:      s.EndDate,
		PaidAmount:      s.PaidAmount,
	}
}

// SubscriptionExpiredEvent is raised when the period-end sweep expires a subscription
type SubscriptionExpiredEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	EndDate        time.Time `json:"end_date"`
	AutoRenew      bool      `json:"auto_renew"`
}

// EventType returns the event type name
func (e *SubscriptionExpiredEvent) EventType() string {
	return "SubscriptionExpired"
}

// NewSubscriptionExpiredEvent creates a new SubscriptionExpiredEvent
func NewSubscriptionExpiredEvent(s *Subscription) *SubscriptionExpiredEvent {
	return &SubscriptionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SubscriptionExpired", "Subscription", s.ID, s.TenantID),
		SubscriptionID:  s.ID,
		MemberID:        s.MemberID,
		EndDate:         s.EndDate,
		AutoRenew:       s.AutoRenew,
	}
}
