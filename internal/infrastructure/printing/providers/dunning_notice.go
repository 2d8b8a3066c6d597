package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/dunning"
	"github.com/liyaqa/backend/internal/domain/identity"
	"github.com/liyaqa/backend/internal/domain/printing"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// DunningNoticeProvider implements DataProvider for DUNNING_NOTICE document type.
// documentID is the dunning sequence ID; the notice reflects the sequence's
// current step against the overdue invoice.
type DunningNoticeProvider struct {
	sequenceRepo dunning.SequenceRepository
	invoiceRepo  billing.InvoiceRepository
	userRepo     identity.UserRepository
}

// NewDunningNoticeProvider creates a new DunningNoticeProvider.
func NewDunningNoticeProvider(
	sequenceRepo dunning.SequenceRepository,
	invoiceRepo billing.InvoiceRepository,
	userRepo identity.UserRepository,
) *DunningNoticeProvider {
	return &DunningNoticeProvider{
		sequenceRepo: sequenceRepo,
		invoiceRepo:  invoiceRepo,
		userRepo:     userRepo,
	}
}

// GetDocType returns the document type this provider handles.
func (p *DunningNoticeProvider) GetDocType() printing.DocType {
	return printing.DocTypeDunningNotice
}

// GetData retrieves dunning notice data for rendering.
func (p *DunningNoticeProvider) GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*infra.DocumentData, error) {
	sequence, err := p.sequenceRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dunning sequence: %w", err)
	}

	invoice, err := p.invoiceRepo.FindByIDForTenant(ctx, tenantID, sequence.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	memberInfo, err := loadMemberInfo(ctx, p.userRepo, sequence.MemberID)
	if err != nil {
		return nil, err
	}

	noticeNo := fmt.Sprintf("DUN-%s-%d", invoice.InvoiceNumber, sequence.CurrentStepIndex+1)

	docData := infra.NewDocumentData(printing.DocTypeDunningNotice, noticeNo)
	docData.Meta.Status = string(sequence.Status)
	docData.Meta.StatusText = statusToText(string(sequence.Status))
	docData.Meta.CreatedAt = sequence.CreatedAt
	docData.Meta.UpdatedAt = sequence.UpdatedAt
	docData.Meta.CreatedAtFormatted = sequence.CreatedAt.Format("2006-01-02")
	docData.Meta.UpdatedAtFormatted = sequence.UpdatedAt.Format("2006-01-02")

	stepKind := ""
	if sequence.CurrentStepIndex >= 0 && sequence.CurrentStepIndex < len(sequence.Template) {
		stepKind = string(sequence.Template[sequence.CurrentStepIndex].Kind)
	}

	now := time.Now()
	outstanding := invoice.RemainingBalance()
	noticeData := infra.DunningNoticeData{
		ID:                         sequence.ID,
		InvoiceNumber:              invoice.InvoiceNumber,
		InvoiceID:                  invoice.ID,
		Member:                     memberInfo,
		StepNumber:                 sequence.CurrentStepIndex + 1,
		TotalSteps:                 len(sequence.Template),
		StepKind:                   stepKind,
		OutstandingAmount:          outstanding,
		InvoiceTotal:               invoice.TotalAmount,
		Currency:                   string(invoice.Currency),
		InvoiceDueDate:             sequence.InvoiceDueDate,
		DaysOverdue:                invoice.DaysOverdue(now),
		NextActionAt:               sequence.NextActionAt,
		OutstandingAmountFormatted: infra.FormatMoneyValue(outstanding),
		InvoiceTotalFormatted:      infra.FormatMoneyValue(invoice.TotalAmount),
		InvoiceDueDateFormatted:    sequence.InvoiceDueDate.Format("2006-01-02"),
		NextActionAtFormatted:      formatOptionalDate(sequence.NextActionAt),
	}

	docData.Document = noticeData

	return docData, nil
}
