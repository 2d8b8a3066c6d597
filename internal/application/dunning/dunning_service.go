package dunning

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/dunning"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChargeRequest asks the payment gateway to collect an invoice balance
type ChargeRequest struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	MemberID  uuid.UUID       `json:"member_id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
}

// ChargeResult is the gateway's outcome for a charge attempt
type ChargeResult struct {
	Succeeded bool   `json:"succeeded"`
	Reference string `json:"reference"`
	Error     string `json:"error,omitempty"`
}

// PaymentGateway charges stored payment methods. A non-nil error means the
// call did not complete; a result with Succeeded=false is a declined charge.
// Both count as a failed dunning step.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Notification is a templated customer message dispatched during dunning
type Notification struct {
	TenantID  uuid.UUID         `json:"tenant_id"`
	MemberID  uuid.UUID         `json:"member_id"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables,omitempty"`
}

// NotificationDispatcher delivers dunning notifications to members
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// SubscriptionReactivator lifts the dunning hold on a subscription once the
// sequence recovers. Runs as a separate transaction after the sequence is
// saved; a failure here never rolls back the recovery.
type SubscriptionReactivator interface {
	ReactivateFromDunning(ctx context.Context, tenantID, subscriptionID, actorID uuid.UUID) error
}

// DunningServiceConfig carries the default escalation template
type DunningServiceConfig struct {
	DefaultTemplate dunning.StepTemplate
	CSMAssignee     string
}

// DunningService orchestrates dunning sequences for overdue invoices
type DunningService struct {
	sequenceRepo dunning.SequenceRepository
	invoiceRepo  billing.InvoiceRepository
	gateway      PaymentGateway
	notifier     NotificationDispatcher
	reactivator  SubscriptionReactivator
	outboxRepo   shared.OutboxRepository
	config       DunningServiceConfig
	logger       *zap.Logger
}

// NewDunningService creates a new dunning service
func NewDunningService(
	sequenceRepo dunning.SequenceRepository,
	invoiceRepo billing.InvoiceRepository,
	gateway PaymentGateway,
	notifier NotificationDispatcher,
	reactivator SubscriptionReactivator,
	outboxRepo shared.OutboxRepository,
	config DunningServiceConfig,
	logger *zap.Logger,
) *DunningService {
	if len(config.DefaultTemplate) == 0 {
		config.DefaultTemplate = dunning.StepTemplate{
			{Kind: dunning.StepKindReminder, DelayDays: 1},
			{Kind: dunning.StepKindRetryCharge, DelayDays: 3},
			{Kind: dunning.StepKindReminder, DelayDays: 7},
			{Kind: dunning.StepKindEscalateToCSM, DelayDays: 10},
			{Kind: dunning.StepKindFinalNotice, DelayDays: 14},
			{Kind: dunning.StepKindWriteOff, DelayDays: 30},
		}
	}
	return &DunningService{
		sequenceRepo: sequenceRepo,
		invoiceRepo:  invoiceRepo,
		gateway:      gateway,
		notifier:     notifier,
		reactivator:  reactivator,
		outboxRepo:   outboxRepo,
		config:       config,
		logger:       logger,
	}
}

// StepResponse represents an executed dunning step in API responses
type StepResponse struct {
	Index       int       `json:"index"`
	Kind        string    `json:"kind"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ExecutedAt  time.Time `json:"executed_at"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
}

// SequenceResponse represents a dunning sequence in API responses
type SequenceResponse struct {
	ID               uuid.UUID           `json:"id"`
	TenantID         uuid.UUID           `json:"tenant_id"`
	InvoiceID        uuid.UUID           `json:"invoice_id"`
	SubscriptionID   *uuid.UUID          `json:"subscription_id,omitempty"`
	MemberID         uuid.UUID           `json:"member_id"`
	Status           string              `json:"status"`
	Template         dunning.StepTemplate `json:"template"`
	Steps            []StepResponse      `json:"steps"`
	CurrentStepIndex int                 `json:"current_step_index"`
	NextActionAt     *time.Time          `json:"next_action_at,omitempty"`
	InvoiceDueDate   time.Time           `json:"invoice_due_date"`
	EscalatedTo      string              `json:"escalated_to,omitempty"`
	RecoveryMethod   string              `json:"recovery_method,omitempty"`
	RecoveredAt      *time.Time          `json:"recovered_at,omitempty"`
	ExhaustedAt      *time.Time          `json:"exhausted_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toSequenceResponse(seq *dunning.DunningSequence) *SequenceResponse {
	steps := make([]StepResponse, 0, len(seq.Steps))
	for _, step := range seq.Steps {
		steps = append(steps, StepResponse{
			Index:       step.Index,
			Kind:        string(step.Kind),
			ScheduledAt: step.ScheduledAt,
			ExecutedAt:  step.ExecutedAt,
			Outcome:     string(step.Outcome),
			Error:       step.Error,
		})
	}
	return &SequenceResponse{
		ID:               seq.ID,
		TenantID:         seq.TenantID,
		InvoiceID:        seq.InvoiceID,
		SubscriptionID:   seq.SubscriptionID,
		MemberID:         seq.MemberID,
		Status:           seq.Status.String(),
		Template:         seq.Template,
		Steps:            steps,
		CurrentStepIndex: seq.CurrentStepIndex,
		NextActionAt:     seq.NextActionAt,
		InvoiceDueDate:   seq.InvoiceDueDate,
		EscalatedTo:      seq.EscalatedTo,
		RecoveryMethod:   seq.RecoveryMethod,
		RecoveredAt:      seq.RecoveredAt,
		ExhaustedAt:      seq.ExhaustedAt,
		CreatedAt:        seq.CreatedAt,
		UpdatedAt:        seq.UpdatedAt,
	}
}

// GetSequence gets a dunning sequence by ID
func (s *DunningService) GetSequence(ctx context.Context, tenantID, id uuid.UUID) (*SequenceResponse, error) {
	seq, err := s.findSequence(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toSequenceResponse(seq), nil
}

// ListSequences lists dunning sequences for a tenant
func (s *DunningService) ListSequences(ctx context.Context, tenantID uuid.UUID, filter dunning.SequenceFilter) ([]SequenceResponse, error) {
	sequences, err := s.sequenceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]SequenceResponse, 0, len(sequences))
	for i := range sequences {
		responses = append(responses, *toSequenceResponse(&sequences[i]))
	}
	return responses, nil
}

// StartForInvoice opens a dunning sequence for an overdue invoice. Fails
// with ALREADY_ACTIVE when a non-terminal sequence already exists for the
// invoice; sweeping callers treat that error as their no-op signal.
func (s *DunningService) StartForInvoice(ctx context.Context, inv *billing.Invoice) error {
	existing, err := s.sequenceRepo.FindNonTerminalByInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return shared.ErrAlreadyActive
	}
	if inv.DueDate == nil {
		return shared.NewDomainError("INVALID_STATE", "Invoice has no due date")
	}

	seq, err := dunning.NewDunningSequence(
		inv.TenantID, inv.ID, inv.MemberID, inv.SubscriptionID,
		*inv.DueDate, s.config.DefaultTemplate,
	)
	if err != nil {
		return err
	}
	if err := s.sequenceRepo.Save(ctx, seq); err != nil {
		return err
	}
	if err := s.publishEvents(ctx, seq); err != nil {
		s.logger.Warn("Failed to publish dunning events", zap.Error(err))
	}

	s.logger.Info("Dunning sequence started",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("sequence_id", seq.ID.String()))

	return nil
}

// NotifyInvoicePaid recovers the open sequence for a settled invoice, if one
// exists. Safe to call for invoices with no dunning history.
func (s *DunningService) NotifyInvoicePaid(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	seq, err := s.sequenceRepo.FindNonTerminalByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if seq == nil {
		return nil
	}
	if err := seq.RecoverFromSettlement(); err != nil {
		return err
	}
	if err := s.sequenceRepo.SaveWithLock(ctx, seq); err != nil {
		return err
	}
	if err := s.publishEvents(ctx, seq); err != nil {
		s.logger.Warn("Failed to publish dunning events", zap.Error(err))
	}
	s.reactivate(ctx, seq)
	return nil
}

// Tick executes every due sequence once. Invoked by the scheduler. Each
// sequence is its own transaction; one bad sequence never stalls the batch.
func (s *DunningService) Tick(ctx context.Context, now time.Time, batchSize int) (int, error) {
	due, err := s.sequenceRepo.FindDue(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	ticked := 0
	for i := range due {
		if err := s.tickSequence(ctx, &due[i], now); err != nil {
			s.logger.Warn("Dunning tick failed",
				zap.String("sequence_id", due[i].ID.String()), zap.Error(err))
			continue
		}
		ticked++
	}
	return ticked, nil
}

func (s *DunningService) tickSequence(ctx context.Context, seq *dunning.DunningSequence, now time.Time) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, seq.TenantID, seq.InvoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return shared.NewDomainError("NOT_FOUND", "Invoice for dunning sequence not found")
	}

	result := dunning.StepResult{InvoicePaid: !inv.RemainingBalance().IsPositive()}
	if !result.InvoicePaid {
		result = s.executeStep(ctx, seq, inv, now)
	}

	changed, err := seq.Tick(now, result)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.sequenceRepo.SaveWithLock(ctx, seq); err != nil {
		return err
	}
	if err := s.publishEvents(ctx, seq); err != nil {
		s.logger.Warn("Failed to publish dunning events", zap.Error(err))
	}

	if seq.IsRecovered() {
		s.reactivate(ctx, seq)
	}
	return nil
}

// executeStep runs the side effect of the current step and reports what
// happened. Failures are captured in the result, never returned: a failed
// charge or notification is a recorded step failure.
func (s *DunningService) executeStep(ctx context.Context, seq *dunning.DunningSequence, inv *billing.Invoice, now time.Time) dunning.StepResult {
	spec, err := seq.CurrentStep()
	if err != nil {
		return dunning.StepResult{Err: err.Error()}
	}

	switch spec.Kind {
	case dunning.StepKindRetryCharge:
		return s.retryCharge(ctx, seq, inv, now)

	case dunning.StepKindReminder, dunning.StepKindFinalNotice:
		if s.notifier == nil {
			return dunning.StepResult{Err: "no notification dispatcher configured"}
		}
		n := Notification{
			TenantID: seq.TenantID,
			MemberID: seq.MemberID,
			Template: spec.Kind.NotificationTemplate(),
			Variables: map[string]string{
				"invoice_number": inv.InvoiceNumber,
				"amount_due":     inv.RemainingBalance().StringFixed(2),
			},
		}
		if err := s.notifier.Dispatch(ctx, n); err != nil {
			return dunning.StepResult{Err: err.Error()}
		}
		return dunning.StepResult{}

	case dunning.StepKindEscalateToCSM:
		s.logger.Info("Dunning step flagged sequence for CSM follow-up",
			zap.String("sequence_id", seq.ID.String()),
			zap.String("assignee", s.config.CSMAssignee))
		return dunning.StepResult{}

	case dunning.StepKindWriteOff:
		s.logger.Warn("Dunning reached write-off step",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("balance", inv.RemainingBalance().StringFixed(2)))
		return dunning.StepResult{}

	default:
		return dunning.StepResult{Err: "unknown step kind"}
	}
}

func (s *DunningService) retryCharge(ctx context.Context, seq *dunning.DunningSequence, inv *billing.Invoice, now time.Time) dunning.StepResult {
	if s.gateway == nil {
		return dunning.StepResult{Err: "no payment gateway configured"}
	}
	balance := inv.RemainingBalance()
	result, err := s.gateway.Charge(ctx, ChargeRequest{
		TenantID:  seq.TenantID,
		MemberID:  seq.MemberID,
		InvoiceID: inv.ID,
		Amount:    balance,
		Currency:  string(inv.Currency),
		Reference: inv.InvoiceNumber,
	})
	if err != nil {
		return dunning.StepResult{Err: err.Error()}
	}
	if !result.Succeeded {
		return dunning.StepResult{Err: result.Error}
	}

	if err := inv.RecordPayment(inv.GetRemainingBalanceMoney(), "dunning_charge", result.Reference, now); err != nil {
		return dunning.StepResult{Err: err.Error()}
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		s.logger.Error("Charge succeeded but invoice save failed",
			zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		return dunning.StepResult{Err: err.Error()}
	}

	return dunning.StepResult{ChargeSucceeded: true}
}

// reactivate lifts the dunning hold on the linked subscription. Best-effort:
// the sequence is already recovered, so a failure is logged for follow-up.
func (s *DunningService) reactivate(ctx context.Context, seq *dunning.DunningSequence) {
	if s.reactivator == nil || seq.SubscriptionID == nil {
		return
	}
	if err := s.reactivator.ReactivateFromDunning(ctx, seq.TenantID, *seq.SubscriptionID, uuid.Nil); err != nil {
		s.logger.Warn("Failed to reactivate subscription after dunning recovery",
			zap.String("subscription_id", seq.SubscriptionID.String()), zap.Error(err))
	}
}

// PauseSequence freezes a sequence without recomputing its schedule
func (s *DunningService) PauseSequence(ctx context.Context, tenantID, id uuid.UUID, reason string) (*SequenceResponse, error) {
	return s.transition(ctx, tenantID, id, func(seq *dunning.DunningSequence) error {
		return seq.Pause(reason)
	})
}

// ResumeSequence returns a paused sequence to ACTIVE
func (s *DunningService) ResumeSequence(ctx context.Context, tenantID, id uuid.UUID) (*SequenceResponse, error) {
	return s.transition(ctx, tenantID, id, func(seq *dunning.DunningSequence) error {
		return seq.Resume()
	})
}

// EscalateSequence hands a sequence to a human assignee
func (s *DunningService) EscalateSequence(ctx context.Context, tenantID, id uuid.UUID, assignee, notes string) (*SequenceResponse, error) {
	return s.transition(ctx, tenantID, id, func(seq *dunning.DunningSequence) error {
		return seq.Escalate(assignee, notes)
	})
}

// RecoverSequence closes a sequence as manually recovered and lifts the
// subscription hold
func (s *DunningService) RecoverSequence(ctx context.Context, tenantID, id uuid.UUID, notes string) (*SequenceResponse, error) {
	resp, err := s.transition(ctx, tenantID, id, func(seq *dunning.DunningSequence) error {
		return seq.MarkRecovered(notes)
	})
	if err != nil {
		return nil, err
	}
	if resp.SubscriptionID != nil && s.reactivator != nil {
		if err := s.reactivator.ReactivateFromDunning(ctx, tenantID, *resp.SubscriptionID, uuid.Nil); err != nil {
			s.logger.Warn("Failed to reactivate subscription after manual recovery",
				zap.String("subscription_id", resp.SubscriptionID.String()), zap.Error(err))
		}
	}
	return resp, nil
}

// CancelSequence terminates a sequence without touching the subscription
func (s *DunningService) CancelSequence(ctx context.Context, tenantID, id uuid.UUID, reason string) (*SequenceResponse, error) {
	return s.transition(ctx, tenantID, id, func(seq *dunning.DunningSequence) error {
		return seq.Cancel(reason)
	})
}

func (s *DunningService) transition(ctx context.Context, tenantID, id uuid.UUID, op func(*dunning.DunningSequence) error) (*SequenceResponse, error) {
	seq, err := s.findSequence(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := op(seq); err != nil {
		return nil, err
	}
	if err := s.sequenceRepo.SaveWithLock(ctx, seq); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, seq); err != nil {
		s.logger.Warn("Failed to publish dunning events", zap.Error(err))
	}
	return toSequenceResponse(seq), nil
}

func (s *DunningService) findSequence(ctx context.Context, tenantID, id uuid.UUID) (*dunning.DunningSequence, error) {
	seq, err := s.sequenceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Dunning sequence not found")
	}
	return seq, nil
}

func (s *DunningService) publishEvents(ctx context.Context, seq *dunning.DunningSequence) error {
	events := seq.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("Failed to marshal event", zap.Error(err))
			continue
		}
		entries = append(entries, shared.NewOutboxEntry(seq.TenantID, event, payload))
	}
	if len(entries) > 0 {
		if err := s.outboxRepo.Save(ctx, entries...); err != nil {
			return err
		}
	}

	seq.ClearDomainEvents()
	return nil
}
