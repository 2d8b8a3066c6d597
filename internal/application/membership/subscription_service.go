package membership

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the optimistic-lock retry loop
const maxSaveAttempts = 3

// SubscriptionService handles membership subscription lifecycle operations
type SubscriptionService struct {
	subscriptionRepo membership.SubscriptionRepository
	contractRepo     membership.ContractRepository
	invoiceRepo      billing.InvoiceRepository
	outboxRepo       shared.OutboxRepository
	logger           *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo membership.SubscriptionRepository,
	contractRepo membership.ContractRepository,
	invoiceRepo billing.InvoiceRepository,
	outboxRepo shared.OutboxRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		contractRepo:     contractRepo,
		invoiceRepo:      invoiceRepo,
		outboxRepo:       outboxRepo,
		logger:           logger,
	}
}

// CreateSubscriptionRequest is the request to create a subscription
type CreateSubscriptionRequest struct {
	MemberID          uuid.UUID  `json:"member_id" binding:"required"`
	PlanID            uuid.UUID  `json:"plan_id" binding:"required"`
	StartDate         time.Time  `json:"start_date" binding:"required"`
	EndDate           time.Time  `json:"end_date" binding:"required"`
	FreezeDaysAllowed int        `json:"freeze_days_allowed"`
	GuestPasses       int        `json:"guest_passes"`
	ClassesIncluded   *int       `json:"classes_included,omitempty"`
	AutoRenew         bool       `json:"auto_renew"`
	ContractID        *uuid.UUID `json:"contract_id,omitempty"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID                      uuid.UUID       `json:"id"`
	TenantID                uuid.UUID       `json:"tenant_id"`
	MemberID                uuid.UUID       `json:"member_id"`
	PlanID                  uuid.UUID       `json:"plan_id"`
	Status                  string          `json:"status"`
	StartDate               time.Time       `json:"start_date"`
	EndDate                 time.Time       `json:"end_date"`
	AutoRenew               bool            `json:"auto_renew"`
	PaidAmount              decimal.Decimal `json:"paid_amount"`
	Currency                string          `json:"currency"`
	FreezeDaysAllowed       int             `json:"freeze_days_allowed"`
	FreezeDaysUsed          int             `json:"freeze_days_used"`
	ClassesRemaining        *int            `json:"classes_remaining,omitempty"`
	GuestPassesRemaining    int             `json:"guest_passes_remaining"`
	ContractID              *uuid.UUID      `json:"contract_id,omitempty"`
	CancellationEffectiveAt *time.Time      `json:"cancellation_effective_at,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	Version                 int             `json:"version"`
}

// SubscriptionSummary is the dashboard projection of a subscription
type SubscriptionSummary struct {
	ID                   uuid.UUID `json:"id"`
	Status               string    `json:"status"`
	DaysRemaining        int       `json:"days_remaining"`
	FreezeDaysRemaining  int       `json:"freeze_days_remaining"`
	HasPendingCancellation bool    `json:"has_pending_cancellation"`
}

// StatusChangeResponse is one entry of a subscription's activity timeline
type StatusChangeResponse struct {
	Operation  string    `json:"operation"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	At         time.Time `json:"at"`
	Note       string    `json:"note,omitempty"`
}

func toSubscriptionResponse(s *membership.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                      s.ID,
		TenantID:                s.TenantID,
		MemberID:                s.MemberID,
		PlanID:                  s.PlanID,
		Status:                  s.Status.String(),
		StartDate:               s.StartDate,
		EndDate:                 s.EndDate,
		AutoRenew:               s.AutoRenew,
		PaidAmount:              s.PaidAmount,
		Currency:                string(s.Currency),
		FreezeDaysAllowed:       s.FreezeDaysAllowed,
		FreezeDaysUsed:          s.FreezeDaysUsed,
		ClassesRemaining:        s.ClassesRemaining,
		GuestPassesRemaining:    s.GuestPassesRemaining,
		ContractID:              s.ContractID,
		CancellationEffectiveAt: s.CancellationEffectiveAt,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
		Version:                 s.Version,
	}
}

// CreateSubscription creates a new subscription in PENDING_PAYMENT
func (s *SubscriptionService) CreateSubscription(ctx context.Context, tenantID uuid.UUID, req CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	sub, err := membership.NewSubscription(
		tenantID,
		req.MemberID,
		req.PlanID,
		req.StartDate,
		req.EndDate,
		req.FreezeDaysAllowed,
		req.GuestPasses,
		req.ClassesIncluded,
		req.AutoRenew,
	)
	if err != nil {
		return nil, err
	}
	if req.ContractID != nil {
		sub.LinkContract(*req.ContractID)
	}

	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		s.logger.Error("Failed to save subscription", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create subscription")
	}
	if err := s.publishEvents(ctx, sub); err != nil {
		s.logger.Warn("Failed to publish subscription events", zap.Error(err))
	}

	s.logger.Info("Subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("member_id", sub.MemberID.String()))

	return toSubscriptionResponse(sub), nil
}

// GetSubscription gets a subscription by ID
func (s *SubscriptionService) GetSubscription(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.findSubscription(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toSubscriptionResponse(sub), nil
}

// GetSubscriptionSummary returns the dashboard projection
func (s *SubscriptionService) GetSubscriptionSummary(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionSummary, error) {
	sub, err := s.findSubscription(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &SubscriptionSummary{
		ID:                     sub.ID,
		Status:                 sub.Status.String(),
		DaysRemaining:          sub.DaysRemaining(now),
		FreezeDaysRemaining:    sub.FreezeDaysRemaining(),
		HasPendingCancellation: sub.HasPendingCancellation(),
	}, nil
}

// GetSubscriptionHistory returns the activity timeline of a subscription
func (s *SubscriptionService) GetSubscriptionHistory(ctx context.Context, tenantID, id uuid.UUID) ([]StatusChangeResponse, error) {
	sub, err := s.findSubscription(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	history := make([]StatusChangeResponse, 0, len(sub.History))
	for _, change := range sub.History {
		history = append(history, StatusChangeResponse{
			Operation:  change.Operation,
			FromStatus: change.FromStatus.String(),
			ToStatus:   change.ToStatus.String(),
			ActorID:    change.ActorID,
			At:         change.At,
			Note:       change.Note,
		})
	}
	return history, nil
}

// ListSubscriptions lists subscriptions for a tenant
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, tenantID uuid.UUID, filter membership.SubscriptionFilter) ([]SubscriptionResponse, error) {
	subs, err := s.subscriptionRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, *toSubscriptionResponse(&subs[i]))
	}
	return responses, nil
}

// ActivateSubscription activates a subscription on first successful payment
func (s *SubscriptionService) ActivateSubscription(ctx context.Context, tenantID, id uuid.UUID, paidAmount decimal.Decimal, actorID uuid.UUID) (*SubscriptionResponse, error) {
	amount, err := valueobject.NewMoney(paidAmount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.Activate(amount, actorID)
	})
}

// FreezeSubscription freezes a subscription, consuming freeze allowance
func (s *SubscriptionService) FreezeSubscription(ctx context.Context, tenantID, id uuid.UUID, days int, reason string, extendOnFreeze bool, actorID uuid.UUID) (*SubscriptionResponse, error) {
	policy := membership.FreezePolicy{ExtendOnFreeze: extendOnFreeze}
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.Freeze(days, reason, policy, actorID)
	})
}

// UnfreezeSubscription returns a frozen subscription to ACTIVE
func (s *SubscriptionService) UnfreezeSubscription(ctx context.Context, tenantID, id uuid.UUID, actorID uuid.UUID) (*SubscriptionResponse, error) {
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.Unfreeze(actorID)
	})
}

// CancelSubscriptionResult carries the cancellation outcome including any
// early-termination fee that was added to an invoice
type CancelSubscriptionResult struct {
	Subscription      *SubscriptionResponse `json:"subscription"`
	TerminationFee    decimal.Decimal       `json:"termination_fee"`
	FeeInvoiceID      *uuid.UUID            `json:"fee_invoice_id,omitempty"`
}

// CancelSubscription cancels a subscription. When a contract with an unexpired
// commitment is linked, the early-termination fee is appended as a line item
// to the member's open draft invoice, or a new draft is created for it. The
// contract itself is only read, never written.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, tenantID, id uuid.UUID, reason string, immediate bool, actorID uuid.UUID) (*CancelSubscriptionResult, error) {
	resp, err := s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.Cancel(reason, immediate, actorID)
	})
	if err != nil {
		return nil, err
	}

	result := &CancelSubscriptionResult{Subscription: resp, TerminationFee: decimal.Zero}

	if resp.ContractID == nil {
		return result, nil
	}
	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, *resp.ContractID)
	if err != nil || contract == nil {
		if err != nil {
			s.logger.Warn("Failed to load contract for termination fee", zap.Error(err))
		}
		return result, nil
	}

	fee := contract.EarlyTerminationFee(time.Now())
	if !fee.IsPositive() {
		return result, nil
	}

	invoiceID, err := s.appendTerminationFee(ctx, tenantID, resp.MemberID, id, fee)
	if err != nil {
		// The cancellation itself already committed; the fee is surfaced for
		// manual follow-up rather than rolled into the same transaction.
		s.logger.Error("Failed to append termination fee to invoice",
			zap.String("subscription_id", id.String()),
			zap.Error(err))
		return result, nil
	}

	result.TerminationFee = fee.Amount()
	result.FeeInvoiceID = invoiceID
	return result, nil
}

// appendTerminationFee puts the fee on the member's open draft invoice, or
// creates a dedicated draft when none exists. The draft is re-read and the
// item re-applied on a version conflict, up to maxSaveAttempts times, so a
// concurrent line-item edit through the invoice API is never overwritten.
func (s *SubscriptionService) appendTerminationFee(ctx context.Context, tenantID, memberID, subscriptionID uuid.UUID, fee valueobject.Money) (*uuid.UUID, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		draftStatus := billing.InvoiceStatusDraft
		drafts, err := s.invoiceRepo.FindByMember(ctx, tenantID, memberID, billing.InvoiceFilter{Status: &draftStatus})
		if err != nil {
			return nil, err
		}

		var invoice *billing.Invoice
		if len(drafts) > 0 {
			invoice = &drafts[0]
		} else {
			number, err := s.invoiceRepo.NextInvoiceNumber(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			invoice, err = billing.NewInvoice(tenantID, number, memberID, &subscriptionID)
			if err != nil {
				return nil, err
			}
		}

		if _, err := invoice.AddLineItem("Early termination fee", 1, fee, decimal.Zero, billing.LineItemTypeTerminationFee); err != nil {
			return nil, err
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			if isConcurrencyConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return &invoice.ID, nil
	}
	return nil, lastErr
}

// TransferSubscription reassigns a subscription to another member
func (s *SubscriptionService) TransferSubscription(ctx context.Context, tenantID, id, targetMemberID uuid.UUID, actorID uuid.UUID) (*SubscriptionResponse, error) {
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.TransferTo(targetMemberID, actorID)
	})
}

// RenewSubscription starts a fresh period on the subscription
func (s *SubscriptionService) RenewSubscription(ctx context.Context, tenantID, id uuid.UUID, newEndDate time.Time, paidAmount decimal.Decimal, actorID uuid.UUID) (*SubscriptionResponse, error) {
	amount, err := valueobject.NewMoney(paidAmount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.Renew(newEndDate, amount, actorID)
	})
}

// ReactivateFromDunning clears a pending non-payment cancellation after the
// dunning engine recovered the invoice. Idempotent: a repeat call is a no-op.
func (s *SubscriptionService) ReactivateFromDunning(ctx context.Context, tenantID, id uuid.UUID, actorID uuid.UUID) (*SubscriptionResponse, error) {
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.ReactivateFromDunning(actorID)
	})
}

// ExpirySweep marks ended ACTIVE subscriptions EXPIRED and completes deferred
// cancellations whose effective date has passed. Invoked by the scheduler.
func (s *SubscriptionService) ExpirySweep(ctx context.Context, now time.Time, batchSize int) (int, error) {
	processed := 0

	expiring, err := s.subscriptionRepo.FindExpiring(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}
	for i := range expiring {
		sub := &expiring[i]
		if err := sub.MarkExpired(now, uuid.Nil); err != nil {
			continue
		}
		if err := s.subscriptionRepo.SaveWithLock(ctx, sub); err != nil {
			s.logger.Warn("Expiry sweep save failed",
				zap.String("subscription_id", sub.ID.String()), zap.Error(err))
			continue
		}
		if err := s.publishEvents(ctx, sub); err != nil {
			s.logger.Warn("Failed to publish expiry events", zap.Error(err))
		}
		processed++
	}

	due, err := s.subscriptionRepo.FindDueForCancellation(ctx, now, batchSize)
	if err != nil {
		return processed, err
	}
	for i := range due {
		sub := &due[i]
		if err := sub.CompleteScheduledCancellation(now, uuid.Nil); err != nil {
			continue
		}
		if err := s.subscriptionRepo.SaveWithLock(ctx, sub); err != nil {
			s.logger.Warn("Scheduled cancellation save failed",
				zap.String("subscription_id", sub.ID.String()), zap.Error(err))
			continue
		}
		if err := s.publishEvents(ctx, sub); err != nil {
			s.logger.Warn("Failed to publish cancellation events", zap.Error(err))
		}
		processed++
	}

	return processed, nil
}

// UseClass consumes one class entitlement
func (s *SubscriptionService) UseClass(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.UseClass()
	})
}

// UseGuestPass consumes one guest pass
func (s *SubscriptionService) UseGuestPass(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	return s.transition(ctx, tenantID, id, func(sub *membership.Subscription) error {
		return sub.UseGuestPass()
	})
}

// transition runs a domain transition with a bounded optimistic-lock retry:
// on a version conflict the aggregate is re-read and the transition re-applied
// against fresh state, up to maxSaveAttempts times.
func (s *SubscriptionService) transition(ctx context.Context, tenantID, id uuid.UUID, op func(*membership.Subscription) error) (*SubscriptionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		sub, err := s.findSubscription(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}

		if err := op(sub); err != nil {
			return nil, err
		}

		if err := s.subscriptionRepo.SaveWithLock(ctx, sub); err != nil {
			if isConcurrencyConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		if err := s.publishEvents(ctx, sub); err != nil {
			s.logger.Warn("Failed to publish subscription events", zap.Error(err))
		}
		return toSubscriptionResponse(sub), nil
	}

	s.logger.Warn("Subscription transition exhausted retry attempts",
		zap.String("subscription_id", id.String()))
	return nil, lastErr
}

func (s *SubscriptionService) findSubscription(ctx context.Context, tenantID, id uuid.UUID) (*membership.Subscription, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Subscription not found")
	}
	return sub, nil
}

func (s *SubscriptionService) publishEvents(ctx context.Context, sub *membership.Subscription) error {
	events := sub.GetDomainEvents()
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
		entries = append(entries, shared.NewOutboxEntry(sub.TenantID, event, payload))
	}
	if len(entries) > 0 {
		if err := s.outboxRepo.Save(ctx, entries...); err != nil {
			return err
		}
	}

	sub.ClearDomainEvents()
	return nil
}

func isConcurrencyConflict(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == shared.ErrConcurrencyConflict.Code
	}
	return false
}
