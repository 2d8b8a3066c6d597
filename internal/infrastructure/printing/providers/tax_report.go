package providers

import (
	"context"
	"fmt"

	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/printing"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// TaxReportProvider implements DataProvider for TAX_REPORT document type.
// documentID is the tax submission ID; the report shows the submission's
// delivery history alongside the invoice's fiscal totals.
type TaxReportProvider struct {
	submissionRepo compliance.TaxSubmissionRepository
	invoiceRepo    billing.InvoiceRepository
}

// NewTaxReportProvider creates a new TaxReportProvider.
func NewTaxReportProvider(
	submissionRepo compliance.TaxSubmissionRepository,
	invoiceRepo billing.InvoiceRepository,
) *TaxReportProvider {
	return &TaxReportProvider{
		submissionRepo: submissionRepo,
		invoiceRepo:    invoiceRepo,
	}
}

// GetDocType returns the document type this provider handles.
func (p *TaxReportProvider) GetDocType() printing.DocType {
	return printing.DocTypeTaxReport
}

// GetData retrieves tax submission report data for rendering.
func (p *TaxReportProvider) GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*infra.DocumentData, error) {
	submission, err := p.submissionRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax submission: %w", err)
	}

	invoice, err := p.invoiceRepo.FindByIDForTenant(ctx, tenantID, submission.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	docData := infra.NewDocumentData(printing.DocTypeTaxReport, submission.InvoiceNumber)
	docData.Meta.Status = string(submission.Status)
	docData.Meta.StatusText = statusToText(string(submission.Status))
	docData.Meta.CreatedAt = submission.CreatedAt
	docData.Meta.UpdatedAt = submission.UpdatedAt
	docData.Meta.CreatedAtFormatted = submission.CreatedAt.Format("2006-01-02")
	docData.Meta.UpdatedAtFormatted = submission.UpdatedAt.Format("2006-01-02")

	attempts := make([]infra.SubmissionAttemptData, len(submission.Attempts))
	for i, attempt := range submission.Attempts {
		attempts[i] = infra.SubmissionAttemptData{
			Index:                attempt.Attempt,
			AttemptedAt:          attempt.At,
			Outcome:              string(attempt.Status),
			ResponseCode:         attempt.ResponseCode,
			ResponseMessage:      attempt.ResponseMessage,
			AttemptedAtFormatted: attempt.At.Format("2006-01-02 15:04"),
		}
	}

	reportData := infra.TaxReportData{
		ID:                   submission.ID,
		InvoiceID:            submission.InvoiceID,
		InvoiceNumber:        submission.InvoiceNumber,
		Status:               string(submission.Status),
		SubmissionHash:       submission.SubmissionHash,
		Subtotal:             invoice.Subtotal,
		VATAmount:            invoice.VATAmount,
		TotalAmount:          invoice.TotalAmount,
		Currency:             string(invoice.Currency),
		RetryCount:           submission.RetryCount,
		SubmittedAt:          submission.SubmittedAt,
		ResolvedAt:           submission.ResolvedAt,
		ResponseCode:         submission.ResponseCode,
		Attempts:             attempts,
		SubtotalFormatted:    infra.FormatMoneyValue(invoice.Subtotal),
		VATAmountFormatted:   infra.FormatMoneyValue(invoice.VATAmount),
		TotalAmountFormatted: infra.FormatMoneyValue(invoice.TotalAmount),
		SubmittedAtFormatted: formatOptionalDate(submission.SubmittedAt),
		ResolvedAtFormatted:  formatOptionalDate(submission.ResolvedAt),
	}

	docData.Document = reportData

	return docData, nil
}
