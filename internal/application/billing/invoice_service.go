package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DunningNotifier is the invoice side's view of the dunning engine: start a
// sequence for an overdue invoice, and close one when the invoice settles.
type DunningNotifier interface {
	// StartForInvoice opens a dunning sequence for an overdue invoice.
	// Returns ALREADY_ACTIVE when a non-terminal sequence already exists.
	StartForInvoice(ctx context.Context, invoice *billing.Invoice) error

	// NotifyInvoicePaid recovers any open sequence for a settled invoice
	NotifyInvoicePaid(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// InvoiceServiceConfig carries the billing policy knobs
type InvoiceServiceConfig struct {
	PaymentTermsDays int
	DefaultVATRate   decimal.Decimal
}

// InvoiceService handles invoice lifecycle operations
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	submissionRepo compliance.TaxSubmissionRepository
	dunning        DunningNotifier
	outboxRepo     shared.OutboxRepository
	config         InvoiceServiceConfig
	logger         *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	submissionRepo compliance.TaxSubmissionRepository,
	dunning DunningNotifier,
	outboxRepo shared.OutboxRepository,
	config InvoiceServiceConfig,
	logger *zap.Logger,
) *InvoiceService {
	if config.PaymentTermsDays <= 0 {
		config.PaymentTermsDays = 14
	}
	if config.DefaultVATRate.IsZero() {
		config.DefaultVATRate = valueobject.DefaultVATRate
	}
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		submissionRepo: submissionRepo,
		dunning:        dunning,
		outboxRepo:     outboxRepo,
		config:         config,
		logger:         logger,
	}
}

// LineItemRequest is one line of a draft invoice
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	ItemType    string          `json:"item_type" binding:"required"`
}

// CreateInvoiceRequest is the request to create a draft invoice
type CreateInvoiceRequest struct {
	MemberID       uuid.UUID         `json:"member_id" binding:"required"`
	SubscriptionID *uuid.UUID        `json:"subscription_id,omitempty"`
	Items          []LineItemRequest `json:"items"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	TenantID         uuid.UUID             `json:"tenant_id"`
	InvoiceNumber    string                `json:"invoice_number"`
	MemberID         uuid.UUID             `json:"member_id"`
	SubscriptionID   *uuid.UUID            `json:"subscription_id,omitempty"`
	Status           string                `json:"status"`
	Items            []LineItemResponse    `json:"items"`
	Currency         string                `json:"currency"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	VATAmount        decimal.Decimal       `json:"vat_amount"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	PaidAmount       decimal.Decimal       `json:"paid_amount"`
	RemainingBalance decimal.Decimal       `json:"remaining_balance"`
	Overdue          bool                  `json:"overdue"`
	IssueDate        *time.Time            `json:"issue_date,omitempty"`
	DueDate          *time.Time            `json:"due_date,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	SubmissionHash   string                `json:"submission_hash,omitempty"`
	Payments         []PaymentResponse     `json:"payments,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ItemType    string          `json:"item_type"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
}

// PaymentResponse represents a payment record in API responses
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// InvoiceSummary is the dashboard projection of an invoice
type InvoiceSummary struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	Status           string          `json:"status"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Overdue          bool            `json:"overdue"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
}

func toInvoiceResponse(inv *billing.Invoice, now time.Time) *InvoiceResponse {
	items := make([]LineItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			ItemType:    string(item.ItemType),
			GrossAmount: item.GrossAmount(),
		})
	}
	payments := make([]PaymentResponse, 0, len(inv.PaymentRecords))
	for _, p := range inv.PaymentRecords {
		payments = append(payments, PaymentResponse{
			ID:         p.ID,
			Amount:     p.Amount,
			Method:     p.Method,
			Reference:  p.Reference,
			ReceivedAt: p.ReceivedAt,
		})
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		InvoiceNumber:    inv.InvoiceNumber,
		MemberID:         inv.MemberID,
		SubscriptionID:   inv.SubscriptionID,
		Status:           inv.EffectiveStatus(now).String(),
		Items:            items,
		Currency:         string(inv.Currency),
		Subtotal:         inv.Subtotal,
		VATAmount:        inv.VATAmount,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance(),
		Overdue:          inv.IsOverdue(now),
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		PaidAt:           inv.PaidAt,
		SubmissionHash:   inv.SubmissionHash,
		Payments:         payments,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
}

// CreateInvoice creates a draft invoice, optionally pre-populated with line items
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	number, err := s.invoiceRepo.NextInvoiceNumber(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to allocate invoice number", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to allocate invoice number")
	}

	inv, err := billing.NewInvoice(tenantID, number, req.MemberID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := s.addItem(inv, item); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		s.logger.Error("Failed to save invoice", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create invoice")
	}
	if err := s.publishEvents(ctx, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}

	return toInvoiceResponse(inv, time.Now()), nil
}

func (s *InvoiceService) addItem(inv *billing.Invoice, item LineItemRequest) error {
	price, err := valueobject.NewMoney(item.UnitPrice, valueobject.DefaultCurrency)
	if err != nil {
		return err
	}
	taxRate := s.config.DefaultVATRate
	if item.TaxRate != nil {
		taxRate = *item.TaxRate
	}
	_, err = inv.AddLineItem(item.Description, item.Quantity, price, taxRate, billing.LineItemType(item.ItemType))
	return err
}

// GetInvoice gets an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, time.Now()), nil
}

// GetInvoiceSummary returns the dashboard projection
func (s *InvoiceService) GetInvoiceSummary(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceSummary, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &InvoiceSummary{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		Status:           inv.EffectiveStatus(now).String(),
		RemainingBalance: inv.RemainingBalance(),
		Overdue:          inv.IsOverdue(now),
		DueDate:          inv.DueDate,
	}, nil
}

// ListInvoices lists invoices for a tenant
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, *toInvoiceResponse(&invoices[i], now))
	}
	return responses, nil
}

// AddLineItem appends a line item to a draft invoice
func (s *InvoiceService) AddLineItem(ctx context.Context, tenantID, id uuid.UUID, item LineItemRequest) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.addItem(inv, item); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, time.Now()), nil
}

// RemoveLineItem removes a line item from a draft invoice
func (s *InvoiceService) RemoveLineItem(ctx context.Context, tenantID, id, itemID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.RemoveLineItem(itemID); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, time.Now()), nil
}

// IssueInvoice issues a draft invoice and enqueues its tax submission.
// The two writes are separate transactions; the submission is keyed by the
// invoice's content hash so a crash in between is safe to replay.
func (s *InvoiceService) IssueInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := inv.Issue(now, s.config.PaymentTermsDays); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}

	if err := s.enqueueTaxSubmission(ctx, inv); err != nil {
		s.logger.Error("Failed to enqueue tax submission",
			zap.String("invoice_id", inv.ID.String()), zap.Error(err))
	}

	s.logger.Info("Invoice issued",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.TotalAmount.StringFixed(2)))

	return toInvoiceResponse(inv, now), nil
}

// enqueueTaxSubmission creates the submission record for an issued invoice.
// Replay-safe: an existing record for the same invoice is left untouched.
func (s *InvoiceService) enqueueTaxSubmission(ctx context.Context, inv *billing.Invoice) error {
	existing, err := s.submissionRepo.FindByInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].SubmissionHash == inv.SubmissionHash && !existing[i].IsResolved() {
			return nil
		}
	}

	submission, err := compliance.NewTaxSubmission(inv.TenantID, inv.ID, inv.InvoiceNumber, inv.SubmissionHash)
	if err != nil {
		return err
	}
	return s.submissionRepo.Save(ctx, submission)
}

// RecordPayment records a payment against an invoice. Full settlement closes
// any open dunning sequence as a separate idempotent call.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, amount decimal.Decimal, method, reference string) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	money, err := valueobject.NewMoney(amount, inv.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := inv.RecordPayment(money, method, reference, now); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}

	if inv.IsPaid() && s.dunning != nil {
		if err := s.dunning.NotifyInvoicePaid(ctx, tenantID, inv.ID); err != nil {
			s.logger.Warn("Failed to notify dunning of settlement",
				zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		}
	}

	return toInvoiceResponse(inv, now), nil
}

// CancelInvoice voids an invoice with no payments recorded
func (s *InvoiceService) CancelInvoice(ctx context.Context, tenantID, id uuid.UUID, reason string) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}
	return toInvoiceResponse(inv, time.Now()), nil
}

// GenerateSubscriptionInvoice creates and issues the invoice for a
// subscription billing period. Idempotent by (subscription, period start):
// re-invoking after a crash finds the existing invoice instead of duplicating.
func (s *InvoiceService) GenerateSubscriptionInvoice(
	ctx context.Context,
	tenantID, subscriptionID, memberID uuid.UUID,
	period valueobject.DateRange,
	description string,
	amount decimal.Decimal,
) (*InvoiceResponse, error) {
	existing, err := s.invoiceRepo.FindBySubscriptionAndPeriod(ctx, tenantID, subscriptionID, period.Start())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return toInvoiceResponse(existing, time.Now()), nil
	}

	number, err := s.invoiceRepo.NextInvoiceNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	inv, err := billing.NewInvoice(tenantID, number, memberID, &subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := inv.SetBillingPeriod(period); err != nil {
		return nil, err
	}
	price, err := valueobject.NewMoney(amount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	if _, err := inv.AddLineItem(description, 1, price, s.config.DefaultVATRate, billing.LineItemTypeSubscription); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := inv.Issue(now, s.config.PaymentTermsDays); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}
	if err := s.enqueueTaxSubmission(ctx, inv); err != nil {
		s.logger.Error("Failed to enqueue tax submission", zap.Error(err))
	}

	return toInvoiceResponse(inv, now), nil
}

// OverdueSweep persists the derived OVERDUE status for invoices past due and
// opens dunning sequences for them. Idempotent per invoice: a second sweep
// changes nothing. Invoked by the scheduler.
func (s *InvoiceService) OverdueSweep(ctx context.Context, now time.Time, batchSize int) (int, error) {
	candidates, err := s.invoiceRepo.FindOverdueCandidates(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range candidates {
		inv := &candidates[i]
		if inv.RefreshStatus(now) {
			if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
				s.logger.Warn("Overdue sweep save failed",
					zap.String("invoice_id", inv.ID.String()), zap.Error(err))
				continue
			}
			if err := s.publishEvents(ctx, inv); err != nil {
				s.logger.Warn("Failed to publish overdue events", zap.Error(err))
			}
		}

		if s.dunning != nil {
			err := s.dunning.StartForInvoice(ctx, inv)
			// A live sequence from an earlier sweep is the expected repeat
			// outcome, not a failure.
			if err != nil && !errors.Is(err, shared.ErrAlreadyActive) {
				s.logger.Warn("Failed to start dunning sequence",
					zap.String("invoice_id", inv.ID.String()), zap.Error(err))
				continue
			}
		}
		processed++
	}
	return processed, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return inv, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, inv *billing.Invoice) error {
	events := inv.GetDomainEvents()
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
		entries = append(entries, shared.NewOutboxEntry(inv.TenantID, event, payload))
	}
	if len(entries) > 0 {
		if err := s.outboxRepo.Save(ctx, entries...); err != nil {
			return err
		}
	}

	inv.ClearDomainEvents()
	return nil
}
