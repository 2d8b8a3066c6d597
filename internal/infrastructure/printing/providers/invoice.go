package providers

import (
	"context"
	"fmt"

	"github.com/liyaqa/backend/internal/domain/billing"
	"github.com/liyaqa/backend/internal/domain/identity"
	"github.com/liyaqa/backend/internal/domain/printing"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// InvoiceProvider implements DataProvider for INVOICE document type.
// It loads invoice data from the repository for use in print templates.
type InvoiceProvider struct {
	invoiceRepo billing.InvoiceRepository
	userRepo    identity.UserRepository
}

// NewInvoiceProvider creates a new InvoiceProvider.
func NewInvoiceProvider(invoiceRepo billing.InvoiceRepository, userRepo identity.UserRepository) *InvoiceProvider {
	return &InvoiceProvider{
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
	}
}

// GetDocType returns the document type this provider handles.
func (p *InvoiceProvider) GetDocType() printing.DocType {
	return printing.DocTypeInvoice
}

// GetData retrieves invoice data for rendering.
func (p *InvoiceProvider) GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*infra.DocumentData, error) {
	invoice, err := p.invoiceRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	memberInfo, err := loadMemberInfo(ctx, p.userRepo, invoice.MemberID)
	if err != nil {
		return nil, err
	}

	docData := infra.NewDocumentData(printing.DocTypeInvoice, invoice.InvoiceNumber)
	docData.Meta.Status = string(invoice.Status)
	docData.Meta.StatusText = statusToText(string(invoice.Status))
	docData.Meta.CreatedAt = invoice.CreatedAt
	docData.Meta.UpdatedAt = invoice.UpdatedAt
	docData.Meta.Remark = invoice.Notes
	docData.Meta.CreatedAtFormatted = invoice.CreatedAt.Format("2006-01-02")
	docData.Meta.UpdatedAtFormatted = invoice.UpdatedAt.Format("2006-01-02")

	items := make([]infra.InvoiceItemData, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = infra.InvoiceItemData{
			Index:                i + 1,
			Description:          item.Description,
			ItemType:             string(item.ItemType),
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			TaxRate:              item.TaxRate,
			NetAmount:            item.NetAmount(),
			TaxAmount:            item.TaxAmount(),
			GrossAmount:          item.GrossAmount(),
			UnitPriceFormatted:   infra.FormatMoneyValue(item.UnitPrice),
			TaxRateFormatted:     formatTaxRate(item.TaxRate),
			NetAmountFormatted:   infra.FormatMoneyValue(item.NetAmount()),
			GrossAmountFormatted: infra.FormatMoneyValue(item.GrossAmount()),
		}
	}

	outstanding := invoice.RemainingBalance()
	invoiceData := infra.InvoiceData{
		ID:                         invoice.ID,
		InvoiceNumber:              invoice.InvoiceNumber,
		Member:                     memberInfo,
		SubscriptionID:             invoice.SubscriptionID,
		Items:                      items,
		Currency:                   string(invoice.Currency),
		Subtotal:                   invoice.Subtotal,
		VATAmount:                  invoice.VATAmount,
		TotalAmount:                invoice.TotalAmount,
		PaidAmount:                 invoice.PaidAmount,
		OutstandingAmount:          outstanding,
		ItemCount:                  len(invoice.Items),
		Status:                     string(invoice.Status),
		IssueDate:                  invoice.IssueDate,
		DueDate:                    invoice.DueDate,
		PaidAt:                     invoice.PaidAt,
		BillingPeriodStart:         invoice.BillingPeriodStart,
		BillingPeriodEnd:           invoice.BillingPeriodEnd,
		Notes:                      invoice.Notes,
		SubtotalFormatted:          infra.FormatMoneyValue(invoice.Subtotal),
		VATAmountFormatted:         infra.FormatMoneyValue(invoice.VATAmount),
		TotalAmountFormatted:       infra.FormatMoneyValue(invoice.TotalAmount),
		PaidAmountFormatted:        infra.FormatMoneyValue(invoice.PaidAmount),
		OutstandingAmountFormatted: infra.FormatMoneyValue(outstanding),
		TotalAmountInWords:         infra.AmountInWords(invoice.TotalAmount),
		IssueDateFormatted:         formatOptionalDate(invoice.IssueDate),
		DueDateFormatted:           formatOptionalDate(invoice.DueDate),
		BillingPeriodFormatted:     formatPeriod(invoice.BillingPeriodStart, invoice.BillingPeriodEnd),
	}

	docData.Document = invoiceData

	return docData, nil
}
