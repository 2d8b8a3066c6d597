package compliance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TaxAuthorityRequest is the payload pushed to the tax authority gateway
type TaxAuthorityRequest struct {
	InvoiceNumber  string          `json:"invoice_number"`
	SubmissionHash string          `json:"submission_hash"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Invoice        json.RawMessage `json:"invoice,omitempty"`
}

// TaxAuthorityResponse is the authority's verdict on a submission
type TaxAuthorityResponse struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// TaxAuthorityClient submits invoices to the external tax authority.
// A non-nil error means the call did not complete (timeout, 5xx) and the
// submission should be retried; a response with Accepted=false is a
// definitive rejection.
type TaxAuthorityClient interface {
	SubmitInvoice(ctx context.Context, req TaxAuthorityRequest) (*TaxAuthorityResponse, error)
}

// TaxSubmissionConfig carries the retry policy knobs
type TaxSubmissionConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// TaxSubmissionService drives invoice submissions through the tax authority
type TaxSubmissionService struct {
	submissionRepo compliance.TaxSubmissionRepository
	invoiceRepo    billing.InvoiceRepository
	client         TaxAuthorityClient
	idempotency    shared.IdempotencyStore
	outboxRepo     shared.OutboxRepository
	config         TaxSubmissionConfig
	logger         *zap.Logger
}

// NewTaxSubmissionService creates a new tax submission service
func NewTaxSubmissionService(
	submissionRepo compliance.TaxSubmissionRepository,
	invoiceRepo billing.InvoiceRepository,
	client TaxAuthorityClient,
	idempotency shared.IdempotencyStore,
	outboxRepo shared.OutboxRepository,
	config TaxSubmissionConfig,
	logger *zap.Logger,
) *TaxSubmissionService {
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Minute
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Minute
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	return &TaxSubmissionService{
		submissionRepo: submissionRepo,
		invoiceRepo:    invoiceRepo,
		client:         client,
		idempotency:    idempotency,
		outboxRepo:     outboxRepo,
		config:         config,
		logger:         logger,
	}
}

// TaxSubmissionResponse represents a tax submission in API responses
type TaxSubmissionResponse struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	InvoiceID       uuid.UUID  `json:"invoice_id"`
	InvoiceNumber   string     `json:"invoice_number"`
	Status          string     `json:"status"`
	SubmissionHash  string     `json:"submission_hash"`
	RetryCount      int        `json:"retry_count"`
	AttemptCount    int        `json:"attempt_count"`
	LastRetryAt     *time.Time `json:"last_retry_at,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResponseCode    string     `json:"response_code,omitempty"`
	ResponseMessage string     `json:"response_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSubmissionResponse(sub *compliance.TaxSubmission) *TaxSubmissionResponse {
	return &TaxSubmissionResponse{
		ID:              sub.ID,
		TenantID:        sub.TenantID,
		InvoiceID:       sub.InvoiceID,
		InvoiceNumber:   sub.InvoiceNumber,
		Status:          sub.Status.String(),
		SubmissionHash:  sub.SubmissionHash,
		RetryCount:      sub.RetryCount,
		AttemptCount:    sub.AttemptCount(),
		LastRetryAt:     sub.LastRetryAt,
		SubmittedAt:     sub.SubmittedAt,
		ResolvedAt:      sub.ResolvedAt,
		ResponseCode:    sub.ResponseCode,
		ResponseMessage: sub.ResponseMessage,
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}
}

// GetSubmission gets a tax submission by ID
func (s *TaxSubmissionService) GetSubmission(ctx context.Context, tenantID, id uuid.UUID) (*TaxSubmissionResponse, error) {
	sub, err := s.findSubmission(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toSubmissionResponse(sub), nil
}

// GetSubmissionsForInvoice lists all submission records for an invoice
func (s *TaxSubmissionService) GetSubmissionsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]TaxSubmissionResponse, error) {
	subs, err := s.submissionRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	responses := make([]TaxSubmissionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, *toSubmissionResponse(&subs[i]))
	}
	return responses, nil
}

// ListSubmissions lists tax submissions for a tenant
func (s *TaxSubmissionService) ListSubmissions(ctx context.Context, tenantID uuid.UUID, filter compliance.TaxSubmissionFilter) ([]TaxSubmissionResponse, error) {
	subs, err := s.submissionRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]TaxSubmissionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, *toSubmissionResponse(&subs[i]))
	}
	return responses, nil
}

// Resubmit opens a fresh submission record for an invoice whose previous
// submission was rejected. The invoice content is unchanged, so the new
// record carries the same hash.
func (s *TaxSubmissionService) Resubmit(ctx context.Context, tenantID, invoiceID uuid.UUID) (*TaxSubmissionResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if inv.SubmissionHash == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Invoice has not been issued")
	}

	existing, err := s.submissionRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if !existing[i].IsResolved() {
			return nil, shared.NewDomainError("ALREADY_ACTIVE", "Invoice already has an unresolved submission")
		}
	}

	sub, err := compliance.NewTaxSubmission(tenantID, invoiceID, inv.InvoiceNumber, inv.SubmissionHash)
	if err != nil {
		return nil, err
	}
	if err := s.submissionRepo.Save(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, sub); err != nil {
		s.logger.Warn("Failed to publish submission events", zap.Error(err))
	}
	return toSubmissionResponse(sub), nil
}

// SubmitPending pushes pending submissions to the tax authority.
// Invoked by the scheduler. Returns the number of submissions attempted.
func (s *TaxSubmissionService) SubmitPending(ctx context.Context, batchSize int) (int, error) {
	pending, err := s.submissionRepo.FindPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	attempted := 0
	for i := range pending {
		if err := s.submit(ctx, &pending[i]); err != nil {
			s.logger.Warn("Tax submission failed",
				zap.String("submission_id", pending[i].ID.String()), zap.Error(err))
			continue
		}
		attempted++
	}
	return attempted, nil
}

// RetrySweep re-queues failed submissions whose backoff window has elapsed.
// Submissions at the retry ceiling are left FAILED for manual follow-up.
func (s *TaxSubmissionService) RetrySweep(ctx context.Context, now time.Time, batchSize int) (int, error) {
	retryable, err := s.submissionRepo.FindRetryable(ctx, now, s.config.MaxRetries, batchSize)
	if err != nil {
		return 0, err
	}

	retried := 0
	for i := range retryable {
		sub := &retryable[i]
		if now.Before(sub.NextRetryAt(s.config.BaseDelay, s.config.MaxDelay)) {
			continue
		}
		if err := sub.Retry(now); err != nil {
			continue
		}
		if err := s.submissionRepo.SaveWithLock(ctx, sub); err != nil {
			s.logger.Warn("Retry save failed",
				zap.String("submission_id", sub.ID.String()), zap.Error(err))
			continue
		}
		if err := s.publishEvents(ctx, sub); err != nil {
			s.logger.Warn("Failed to publish submission events", zap.Error(err))
		}
		if err := s.submit(ctx, sub); err != nil {
			s.logger.Warn("Tax submission retry failed",
				zap.String("submission_id", sub.ID.String()), zap.Error(err))
			continue
		}
		retried++
	}
	return retried, nil
}

// submit drives one submission through the authority call and records the
// outcome. A duplicate-flight guard keyed by submission id and retry count
// keeps concurrent sweep instances from double-submitting the same attempt.
func (s *TaxSubmissionService) submit(ctx context.Context, sub *compliance.TaxSubmission) error {
	if s.client == nil {
		return shared.ErrExternalCall
	}
	if s.idempotency != nil {
		key := uuid.NewSHA1(sub.ID, []byte{byte(sub.RetryCount)})
		first, err := s.idempotency.MarkProcessed(ctx, key.String(), 10*time.Minute)
		if err != nil {
			s.logger.Warn("Idempotency check failed, proceeding", zap.Error(err))
		} else if !first {
			return nil
		}
	}

	now := time.Now()
	if err := sub.MarkSubmitted(now); err != nil {
		return err
	}
	if err := s.submissionRepo.SaveWithLock(ctx, sub); err != nil {
		return err
	}

	resp, callErr := s.client.SubmitInvoice(ctx, TaxAuthorityRequest{
		InvoiceNumber:  sub.InvoiceNumber,
		SubmissionHash: sub.SubmissionHash,
		TenantID:       sub.TenantID,
	})

	switch {
	case callErr != nil:
		if err := sub.MarkFailed(callErr.Error()); err != nil {
			return err
		}
	case resp.Accepted:
		if err := sub.MarkAccepted(resp.Code, resp.Message); err != nil {
			return err
		}
	default:
		if err := sub.MarkRejected(resp.Code, resp.Message); err != nil {
			return err
		}
		s.logger.Warn("Tax submission rejected by authority",
			zap.String("invoice_number", sub.InvoiceNumber),
			zap.String("code", resp.Code),
			zap.String("message", resp.Message))
	}

	if err := s.submissionRepo.SaveWithLock(ctx, sub); err != nil {
		return err
	}
	if err := s.publishEvents(ctx, sub); err != nil {
		s.logger.Warn("Failed to publish submission events", zap.Error(err))
	}
	return callErr
}

func (s *TaxSubmissionService) findSubmission(ctx context.Context, tenantID, id uuid.UUID) (*compliance.TaxSubmission, error) {
	sub, err := s.submissionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Tax submission not found")
	}
	return sub, nil
}

func (s *TaxSubmissionService) publishEvents(ctx context.Context, sub *compliance.TaxSubmission) error {
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
