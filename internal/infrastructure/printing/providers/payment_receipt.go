package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/identity"
	"github.com/liyaqa/backend/internal/domain/printing"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// PaymentReceiptProvider implements DataProvider for PAYMENT_RECEIPT document type.
// The receipt is rendered from an invoice's recorded payments; documentID is the
// invoice ID.
type PaymentReceiptProvider struct {
	invoiceRepo billing.InvoiceRepository
	userRepo    identity.UserRepository
}

// NewPaymentReceiptProvider creates a new PaymentReceiptProvider.
func NewPaymentReceiptProvider(invoiceRepo billing.InvoiceRepository, userRepo identity.UserRepository) *PaymentReceiptProvider {
	return &PaymentReceiptProvider{
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
	}
}

// GetDocType returns the document type this provider handles.
func (p *PaymentReceiptProvider) GetDocType() printing.DocType {
	return printing.DocTypePaymentReceipt
}

// GetData retrieves payment receipt data for rendering.
func (p *PaymentReceiptProvider) GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*infra.DocumentData, error) {
	invoice, err := p.invoiceRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if len(invoice.PaymentRecords) == 0 {
		return nil, fmt.Errorf("invoice %s has no recorded payments", invoice.InvoiceNumber)
	}

	memberInfo, err := loadMemberInfo(ctx, p.userRepo, invoice.MemberID)
	if err != nil {
		return nil, err
	}

	receiptNo := "RCP-" + invoice.InvoiceNumber

	docData := infra.NewDocumentData(printing.DocTypePaymentReceipt, receiptNo)
	docData.Meta.Status = string(invoice.Status)
	docData.Meta.StatusText = statusToText(string(invoice.Status))
	docData.Meta.CreatedAt = invoice.CreatedAt
	docData.Meta.UpdatedAt = invoice.UpdatedAt
	docData.Meta.CreatedAtFormatted = invoice.CreatedAt.Format("2006-01-02")
	docData.Meta.UpdatedAtFormatted = invoice.UpdatedAt.Format("2006-01-02")

	payments := make([]infra.PaymentInfo, len(invoice.PaymentRecords))
	var latest time.Time
	for i, rec := range invoice.PaymentRecords {
		if rec.ReceivedAt.After(latest) {
			latest = rec.ReceivedAt
		}
		payments[i] = infra.PaymentInfo{
			Method:              rec.Method,
			MethodText:          paymentMethodText(rec.Method),
			Amount:              rec.Amount,
			ReferenceNo:         rec.Reference,
			ReceivedAt:          rec.ReceivedAt,
			AmountFormatted:     infra.FormatMoneyValue(rec.Amount),
			ReceivedAtFormatted: rec.ReceivedAt.Format("2006-01-02 15:04"),
		}
	}

	outstanding := invoice.RemainingBalance()
	receiptData := infra.PaymentReceiptData{
		ID:                         invoice.ID,
		ReceiptNo:                  receiptNo,
		InvoiceNumber:              invoice.InvoiceNumber,
		InvoiceID:                  invoice.ID,
		Member:                     memberInfo,
		Payments:                   payments,
		AmountPaid:                 invoice.PaidAmount,
		InvoiceTotal:               invoice.TotalAmount,
		OutstandingAmount:          outstanding,
		Currency:                   string(invoice.Currency),
		ReceivedAt:                 latest,
		AmountPaidFormatted:        infra.FormatMoneyValue(invoice.PaidAmount),
		InvoiceTotalFormatted:      infra.FormatMoneyValue(invoice.TotalAmount),
		OutstandingAmountFormatted: infra.FormatMoneyValue(outstanding),
		AmountPaidInWords:          infra.AmountInWords(invoice.PaidAmount),
		ReceivedAtFormatted:        latest.Format("2006-01-02 15:04"),
	}

	docData.Document = receiptData

	return docData, nil
}
