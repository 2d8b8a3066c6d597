package dunning

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// SequenceStatus represents the state of a dunning sequence.
// ESCALATED is non-terminal: a human can still mark the sequence recovered
// or cancelled from it.
type SequenceStatus string

const (
	SequenceStatusActive    SequenceStatus = "ACTIVE"
	SequenceStatusPaused    SequenceStatus = "PAUSED"
	SequenceStatusRecovered SequenceStatus = "RECOVERED"
	SequenceStatusEscalated SequenceStatus = "ESCALATED"
	SequenceStatusCancelled SequenceStatus = "CANCELLED"
	SequenceStatusExhausted SequenceStatus = "EXHAUSTED"
)

// IsValid checks if the status is a valid SequenceStatus
func (s SequenceStatus) IsValid() bool {
	switch s {
	case SequenceStatusActive, SequenceStatusPaused, SequenceStatusRecovered,
		SequenceStatusEscalated, SequenceStatusCancelled, SequenceStatusExhausted:
		return true
	}
	return false
}

// String returns the string representation of SequenceStatus
func (s SequenceStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the sequence can make no further progress
func (s SequenceStatus) IsTerminal() bool {
	return s == SequenceStatusRecovered || s == SequenceStatusCancelled || s == SequenceStatusExhausted
}

// StepKind identifies what a dunning step does when executed
type StepKind string

const (
	StepKindReminder      StepKind = "REMINDER"
	StepKindRetryCharge   StepKind = "RETRY_CHARGE"
	StepKindEscalateToCSM StepKind = "ESCALATE_TO_CSM"
	StepKindFinalNotice   StepKind = "FINAL_NOTICE"
	StepKindWriteOff      StepKind = "WRITE_OFF"
)

// IsValid checks if the step kind is valid
func (k StepKind) IsValid() bool {
	switch k {
	case StepKindReminder, StepKindRetryCharge, StepKindEscalateToCSM,
		StepKindFinalNotice, StepKindWriteOff:
		return true
	}
	return false
}

// NotificationTemplate returns the template key used when this step notifies
// the member, or "" for steps that send nothing.
func (k StepKind) NotificationTemplate() string {
	switch k {
	case StepKindReminder:
		return "dunning_reminder"
	case StepKindFinalNotice:
		return "dunning_final_notice"
	}
	return ""
}

// StepSpec is one entry of a dunning template: what to do and how many days
// after the invoice due date to do it. Templates are configuration data, not
// code paths.
type StepSpec struct {
	Kind      StepKind `json:"kind" mapstructure:"kind"`
	DelayDays int      `json:"delay_days" mapstructure:"delay_days"`
}

// StepTemplate is the ordered list of steps a sequence walks through
type StepTemplate []StepSpec

// Validate checks the template is non-empty, well-formed and ordered
func (t StepTemplate) Validate() error {
	if len(t) == 0 {
		return shared.NewDomainError("INVALID_TEMPLATE", "Dunning template must contain at least one step")
	}
	prev := -1
	for i, spec := range t {
		if !spec.Kind.IsValid() {
			return shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("Step %d has invalid kind %q", i, spec.Kind))
		}
		if spec.DelayDays < 0 {
			return shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("Step %d has negative delay", i))
		}
		if spec.DelayDays < prev {
			return shared.NewDomainError("INVALID_TEMPLATE", "Step delays must be non-decreasing")
		}
		prev = spec.DelayDays
	}
	return nil
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (t StepTemplate) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (t *StepTemplate) Scan(value interface{}) error {
	if value == nil {
		*t = StepTemplate{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StepTemplate: unsupported type")
	}

	if len(bytes) == 0 {
		*t = StepTemplate{}
		return nil
	}

	return json.Unmarshal(bytes, t)
}

// StepOutcome records how an executed step ended
type StepOutcome string

const (
	StepOutcomeSucceeded StepOutcome = "SUCCEEDED"
	StepOutcomeFailed    StepOutcome = "FAILED"
	StepOutcomeSkipped   StepOutcome = "SKIPPED"
)

// DunningStep is the append-only record of one executed step, stored as JSONB
type DunningStep struct {
	Index       int         `json:"index"`
	Kind        StepKind    `json:"kind"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	ExecutedAt  time.Time   `json:"executed_at"`
	Outcome     StepOutcome `json:"outcome"`
	Error       string      `json:"error,omitempty"`
}

// DunningSteps is a slice of DunningStep that implements GORM Scanner/Valuer for JSONB storage
type DunningSteps []DunningStep

// Value implements driver.Valuer interface for GORM to store as JSONB
func (d DunningSteps) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (d *DunningSteps) Scan(value interface{}) error {
	if value == nil {
		*d = DunningSteps{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan DunningSteps: unsupported type")
	}

	if len(bytes) == 0 {
		*d = DunningSteps{}
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// StepResult is what the orchestrator observed while executing the current
// step: the charge outcome for RETRY_CHARGE, or whether the invoice turned
// out to be already settled through another channel.
type StepResult struct {
	ChargeSucceeded bool
	InvoicePaid     bool
	Err             string
}

// DunningSequence walks an overdue invoice through a configured escalation
// template. The sequence never writes subscription state itself; recovery
// effects go through the explicit subscription API as a separate transaction.
type DunningSequence struct {
	shared.TenantAggregateRoot
	InvoiceID      uuid.UUID      `json:"invoice_id"`
	SubscriptionID *uuid.UUID     `json:"subscription_id,omitempty"`
	MemberID       uuid.UUID      `json:"member_id"`
	Status         SequenceStatus `json:"status"`

	Template StepTemplate `json:"template"`
	Steps    DunningSteps `json:"steps"`

	CurrentStepIndex int        `json:"current_step_index"`
	NextActionAt     *time.Time `json:"next_action_at,omitempty"`

	// Anchor for the template's relative delays.
	InvoiceDueDate time.Time `json:"invoice_due_date"`

	PausedAt       *time.Time `json:"paused_at,omitempty"`
	PauseReason    string     `json:"pause_reason,omitempty"`
	EscalatedAt    *time.Time `json:"escalated_at,omitempty"`
	EscalatedTo    string     `json:"escalated_to,omitempty"`
	EscalationNote string     `json:"escalation_note,omitempty"`
	RecoveredAt    *time.Time `json:"recovered_at,omitempty"`
	RecoveryMethod string     `json:"recovery_method,omitempty"`
	RecoveryNote   string     `json:"recovery_note,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	ExhaustedAt    *time.Time `json:"exhausted_at,omitempty"`
}

// NewDunningSequence starts a sequence in ACTIVE with the cursor on the first
// template step. The at-most-one-per-invoice invariant is enforced by the
// caller via repository lookup plus a partial unique index.
func NewDunningSequence(
	tenantID, invoiceID, memberID uuid.UUID,
	subscriptionID *uuid.UUID,
	invoiceDueDate time.Time,
	template StepTemplate,
) (*DunningSequence, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}

	first := invoiceDueDate.AddDate(0, 0, template[0].DelayDays)
	seq := &DunningSequence{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		SubscriptionID:      subscriptionID,
		MemberID:            memberID,
		Status:              SequenceStatusActive,
		Template:            template,
		Steps:               DunningSteps{},
		CurrentStepIndex:    0,
		NextActionAt:        &first,
		InvoiceDueDate:      invoiceDueDate,
	}

	seq.AddDomainEvent(NewDunningStartedEvent(seq))

	return seq, nil
}

// CurrentStep returns the template entry the cursor points at
func (seq *DunningSequence) CurrentStep() (StepSpec, error) {
	if seq.CurrentStepIndex < 0 || seq.CurrentStepIndex >= len(seq.Template) {
		return StepSpec{}, shared.NewDomainError("INVALID_STATE", "Step cursor out of range")
	}
	return seq.Template[seq.CurrentStepIndex], nil
}

// IsDue reports whether the sequence has a step eligible to run at the given time
func (seq *DunningSequence) IsDue(now time.Time) bool {
	return seq.Status == SequenceStatusActive &&
		seq.NextActionAt != nil && !now.Before(*seq.NextActionAt)
}

// Tick executes the current step with the orchestrator's observed result.
// Before nextActionAt, or outside ACTIVE, it is a no-op. A charge success or
// an invoice found already paid recovers the sequence immediately regardless
// of the cursor position; a charge failure is a recorded step failure, never
// an abort. Returns true if the aggregate changed.
func (seq *DunningSequence) Tick(now time.Time, result StepResult) (bool, error) {
	if !seq.IsDue(now) {
		return false, nil
	}

	spec, err := seq.CurrentStep()
	if err != nil {
		return false, err
	}
	scheduledAt := *seq.NextActionAt

	if result.InvoicePaid {
		seq.Steps = append(seq.Steps, DunningStep{
			Index:       seq.CurrentStepIndex,
			Kind:        spec.Kind,
			ScheduledAt: scheduledAt,
			ExecutedAt:  now,
			Outcome:     StepOutcomeSkipped,
		})
		seq.recover(now, "external_payment", "Invoice settled outside dunning")
		return true, nil
	}

	if spec.Kind == StepKindRetryCharge && result.ChargeSucceeded {
		seq.Steps = append(seq.Steps, DunningStep{
			Index:       seq.CurrentStepIndex,
			Kind:        spec.Kind,
			ScheduledAt: scheduledAt,
			ExecutedAt:  now,
			Outcome:     StepOutcomeSucceeded,
		})
		seq.recover(now, "retry_charge", "")
		return true, nil
	}

	outcome := StepOutcomeSucceeded
	if spec.Kind == StepKindRetryCharge || result.Err != "" {
		outcome = StepOutcomeFailed
	}
	seq.Steps = append(seq.Steps, DunningStep{
		Index:       seq.CurrentStepIndex,
		Kind:        spec.Kind,
		ScheduledAt: scheduledAt,
		ExecutedAt:  now,
		Outcome:     outcome,
		Error:       result.Err,
	})

	seq.CurrentStepIndex++
	if seq.CurrentStepIndex >= len(seq.Template) {
		seq.Status = SequenceStatusExhausted
		seq.NextActionAt = nil
		seq.ExhaustedAt = &now
		seq.AddDomainEvent(NewDunningExhaustedEvent(seq))
	} else {
		next := seq.InvoiceDueDate.AddDate(0, 0, seq.Template[seq.CurrentStepIndex].DelayDays)
		seq.NextActionAt = &next
		seq.AddDomainEvent(NewDunningStepExecutedEvent(seq, spec.Kind, outcome))
	}

	seq.UpdatedAt = now
	seq.IncrementVersion()

	return true, nil
}

func (seq *DunningSequence) recover(now time.Time, method, note string) {
	seq.Status = SequenceStatusRecovered
	seq.NextActionAt = nil
	seq.RecoveredAt = &now
	seq.RecoveryMethod = method
	seq.RecoveryNote = note
	seq.UpdatedAt = now
	seq.IncrementVersion()
	seq.AddDomainEvent(NewDunningRecoveredEvent(seq))
}

// Pause freezes the sequence. NextActionAt keeps its value and is not
// recomputed on resume.
func (seq *DunningSequence) Pause(reason string) error {
	if seq.Status != SequenceStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pause a sequence in %s status", seq.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Pause reason is required")
	}

	now := time.Now()
	seq.Status = SequenceStatusPaused
	seq.PausedAt = &now
	seq.PauseReason = reason
	seq.UpdatedAt = now
	seq.IncrementVersion()

	seq.AddDomainEvent(NewDunningPausedEvent(seq))

	return nil
}

// Resume returns a paused sequence to ACTIVE with its frozen NextActionAt
func (seq *DunningSequence) Resume() error {
	if seq.Status != SequenceStatusPaused {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resume a sequence in %s status", seq.Status))
	}

	seq.Status = SequenceStatusActive
	seq.PausedAt = nil
	seq.PauseReason = ""
	seq.UpdatedAt = time.Now()
	seq.IncrementVersion()

	seq.AddDomainEvent(NewDunningResumedEvent(seq))

	return nil
}

// Escalate hands the sequence to a human. Automatic progression stops:
// NextActionAt is cleared and only MarkRecovered or Cancel move it on.
func (seq *DunningSequence) Escalate(assignee, notes string) error {
	if seq.Status != SequenceStatusActive && seq.Status != SequenceStatusPaused {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot escalate a sequence in %s status", seq.Status))
	}
	if assignee == "" {
		return shared.NewDomainError("INVALID_INPUT", "Escalation assignee is required")
	}

	now := time.Now()
	seq.Status = SequenceStatusEscalated
	seq.NextActionAt = nil
	seq.EscalatedAt = &now
	seq.EscalatedTo = assignee
	seq.EscalationNote = notes
	seq.UpdatedAt = now
	seq.IncrementVersion()

	seq.AddDomainEvent(NewDunningEscalatedEvent(seq))

	return nil
}

// MarkRecovered closes the sequence as recovered from ACTIVE, ESCALATED, or PAUSED
func (seq *DunningSequence) MarkRecovered(notes string) error {
	switch seq.Status {
	case SequenceStatusActive, SequenceStatusEscalated, SequenceStatusPaused:
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark a sequence in %s status as recovered", seq.Status))
	}

	seq.recover(time.Now(), "manual", notes)
	return nil
}

// RecoverFromSettlement closes the sequence because the invoice was settled
// through a regular payment channel between ticks
func (seq *DunningSequence) RecoverFromSettlement() error {
	switch seq.Status {
	case SequenceStatusActive, SequenceStatusEscalated, SequenceStatusPaused:
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark a sequence in %s status as recovered", seq.Status))
	}

	seq.recover(time.Now(), "external_payment", "Invoice settled outside dunning")
	return nil
}

// Cancel terminates the sequence from any non-terminal state. It does not by
// itself affect the subscription.
func (seq *DunningSequence) Cancel(reason string) error {
	if seq.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel a sequence in %s status", seq.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	seq.Status = SequenceStatusCancelled
	seq.NextActionAt = nil
	seq.CancelledAt = &now
	seq.CancelReason = reason
	seq.UpdatedAt = now
	seq.IncrementVersion()

	seq.AddDomainEvent(NewDunningCancelledEvent(seq))

	return nil
}

// Helper methods

// StepsExecuted returns the number of steps already executed
func (seq *DunningSequence) StepsExecuted() int {
	return len(seq.Steps)
}

// StepsRemaining returns the number of template steps not yet executed
func (seq *DunningSequence) StepsRemaining() int {
	if seq.Status.IsTerminal() || seq.CurrentStepIndex >= len(seq.Template) {
		return 0
	}
	return len(seq.Template) - seq.CurrentStepIndex
}

// IsRecovered returns true if the member paid before exhaustion
func (seq *DunningSequence) IsRecovered() bool {
	return seq.Status == SequenceStatusRecovered
}
