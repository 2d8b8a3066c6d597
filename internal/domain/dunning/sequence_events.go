package dunning

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// DunningStartedEvent is raised when a sequence is opened for an overdue invoice
type DunningStartedEvent struct {
	shared.BaseDomainEvent
	SequenceID   uuid.UUID  `json:"sequence_id"`
	InvoiceID    uuid.UUID  `json:"invoice_id"`
	MemberID     uuid.UUID  `json:"member_id"`
	NextActionAt *time.Time `json:"next_action_at,omitempty"`
	StepCount    int        `json:"step_count"`
}

// EventType returns the event type name
func (e *DunningStartedEvent) EventType() string {
	return "DunningStarted"
}

// NewDunningStartedEvent creates a new DunningStartedEvent
func NewDunningStartedEvent(seq *DunningSequence) *DunningStartedEvent {
	return &DunningStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningStarted", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		MemberID:        seq.MemberID,
		NextActionAt:    seq.NextActionAt,
		StepCount:       len(seq.Template),
	}
}

// DunningStepExecutedEvent is raised after a step runs and the cursor advances
type DunningStepExecutedEvent struct {
	shared.BaseDomainEvent
	SequenceID   uuid.UUID   `json:"sequence_id"`
	InvoiceID    uuid.UUID   `json:"invoice_id"`
	StepKind     StepKind    `json:"step_kind"`
	Outcome      StepOutcome `json:"outcome"`
	NextIndex    int         `json:"next_index"`
	NextActionAt *time.Time  `json:"next_action_at,omitempty"`
}

// EventType returns the event type name
func (e *DunningStepExecutedEvent) EventType() string {
	return "DunningStepExecuted"
}

// NewDunningStepExecutedEvent creates a new DunningStepExecutedEvent
func NewDunningStepExecutedEvent(seq *DunningSequence, kind StepKind, outcome StepOutcome) *DunningStepExecutedEvent {
	return &DunningStepExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningStepExecuted", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		StepKind:        kind,
		Outcome:         outcome,
		NextIndex:       seq.CurrentStepIndex,
		NextActionAt:    seq.NextActionAt,
	}
}

// DunningRecoveredEvent is raised when the overdue balance is collected or settled
type DunningRecoveredEvent struct {
	shared.BaseDomainEvent
	SequenceID     uuid.UUID  `json:"sequence_id"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	RecoveryMethod string     `json:"recovery_method"`
}

// EventType returns the event type name
func (e *DunningRecoveredEvent) EventType() string {
	return "DunningRecovered"
}

// NewDunningRecoveredEvent creates a new DunningRecoveredEvent
func NewDunningRecoveredEvent(seq *DunningSequence) *DunningRecoveredEvent {
	return &DunningRecoveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningRecovered", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		SubscriptionID:  seq.SubscriptionID,
		RecoveryMethod:  seq.RecoveryMethod,
	}
}

// DunningEscalatedEvent is raised when a sequence is handed to a human
type DunningEscalatedEvent struct {
	shared.BaseDomainEvent
	SequenceID uuid.UUID `json:"sequence_id"`
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Assignee   string    `json:"assignee"`
}

// EventType returns the event type name
func (e *DunningEscalatedEvent) EventType() string {
	return "DunningEscalated"
}

// NewDunningEscalatedEvent creates a new DunningEscalatedEvent
func NewDunningEscalatedEvent(seq *DunningSequence) *DunningEscalatedEvent {
	return &DunningEscalatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningEscalated", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		Assignee:        seq.EscalatedTo,
	}
}

// DunningExhaustedEvent is raised when the last template step completes without
// recovery. The sequence does not cancel the subscription itself.
type DunningExhaustedEvent struct {
	shared.BaseDomainEvent
	SequenceID     uuid.UUID  `json:"sequence_id"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	StepsExecuted  int        `json:"steps_executed"`
}

// EventType returns the event type name
func (e *DunningExhaustedEvent) EventType() string {
	return "DunningExhausted"
}

// NewDunningExhaustedEvent creates a new DunningExhaustedEvent
func NewDunningExhaustedEvent(seq *DunningSequence) *DunningExhaustedEvent {
	return &DunningExhaustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningExhausted", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		SubscriptionID:  seq.SubscriptionID,
		StepsExecuted:   len(seq.Steps),
	}
}

// DunningPausedEvent is raised on administrative pause
type DunningPausedEvent struct {
	shared.BaseDomainEvent
	SequenceID uuid.UUID `json:"sequence_id"`
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *DunningPausedEvent) EventType() string {
	return "DunningPaused"
}

// NewDunningPausedEvent creates a new DunningPausedEvent
func NewDunningPausedEvent(seq *DunningSequence) *DunningPausedEvent {
	return &DunningPausedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningPaused", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		Reason:          seq.PauseReason,
	}
}

// DunningResumedEvent is raised when a paused sequence re-activates
type DunningResumedEvent struct {
	shared.BaseDomainEvent
	SequenceID   uuid.UUID  `json:"sequence_id"`
	InvoiceID    uuid.UUID  `json:"invoice_id"`
	NextActionAt *time.Time `json:"next_action_at,omitempty"`
}

// EventType returns the event type name
func (e *DunningResumedEvent) EventType() string {
	return "DunningResumed"
}

// NewDunningResumedEvent creates a new DunningResumedEvent
func NewDunningResumedEvent(seq *DunningSequence) *DunningResumedEvent {
	return &DunningResumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningResumed", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		NextActionAt:    seq.NextActionAt,
	}
}

// DunningCancelledEvent is raised when a sequence is terminated manually
type DunningCancelledEvent struct {
	shared.BaseDomainEvent
	SequenceID uuid.UUID `json:"sequence_id"`
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *DunningCancelledEvent) EventType() string {
	return "DunningCancelled"
}

// NewDunningCancelledEvent creates a new DunningCancelledEvent
func NewDunningCancelledEvent(seq *DunningSequence) *DunningCancelledEvent {
	return &DunningCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DunningCancelled", "DunningSequence", seq.ID, seq.TenantID),
		SequenceID:      seq.ID,
		InvoiceID:       seq.InvoiceID,
		Reason:          seq.CancelReason,
	}
}
