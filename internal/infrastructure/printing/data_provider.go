package printing

import (
	"context"
	"time"

	"github.com/liyaqa/backend/internal/domain/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DataProvider is the interface for providing document data for template rendering.
// Each document type should have its own implementation.
type DataProvider interface {
	// GetDocType returns the document type this provider handles
	GetDocType() printing.DocType
	// GetData retrieves the document data for rendering
	// documentID is the ID of the document to render
	GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentData, error)
}

// DocumentData is the common structure for all document data used in templates.
// It contains both common metadata and document-specific data.
type DocumentData struct {
	// Common metadata
	Meta DocumentMeta `json:"meta"`

	// Company/Tenant information
	Company CompanyInfo `json:"company"`

	// Document-specific data (varies by document type)
	// This will be one of: InvoiceData, PaymentReceiptData, etc.
	Document any `json:"document"`

	// Formatted/computed fields for convenience
	PrintDate     string `json:"printDate"`
	PrintDateTime string `json:"printDateTime"`
	PrintTime     string `json:"printTime"`
}

// DocumentMeta contains common metadata for all documents
type DocumentMeta struct {
	DocType     printing.DocType `json:"docType"`
	DocTypeName string           `json:"docTypeName"`
	DocNo       string           `json:"docNo"` // Document number
	Status      string           `json:"status"`
	StatusText  string           `json:"statusText"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CreatedBy   string           `json:"createdBy"`
	Remark      string           `json:"remark"`

	// Formatted fields
	CreatedAtFormatted string `json:"createdAtFormatted"`
	UpdatedAtFormatted string `json:"updatedAtFormatted"`
}

// CompanyInfo contains tenant/gym operator information for printing
type CompanyInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email"`
	Website string    `json:"website"`
	Logo    string    `json:"logo"` // URL or base64
	VATID   string    `json:"vatId"`
}

// =============================================================================
// Invoice Data
// =============================================================================

// InvoiceData represents member invoice data for template rendering
type InvoiceData struct {
	ID                 uuid.UUID         `json:"id"`
	InvoiceNumber      string            `json:"invoiceNumber"`
	Member             MemberInfo        `json:"member"`
	SubscriptionID     *uuid.UUID        `json:"subscriptionId"`
	Items              []InvoiceItemData `json:"items"`
	Currency           string            `json:"currency"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	VATAmount          decimal.Decimal   `json:"vatAmount"`
	TotalAmount        decimal.Decimal   `json:"totalAmount"`
	PaidAmount         decimal.Decimal   `json:"paidAmount"`
	OutstandingAmount  decimal.Decimal   `json:"outstandingAmount"`
	ItemCount          int               `json:"itemCount"`
	Status             string            `json:"status"`
	IssueDate          *time.Time        `json:"issueDate"`
	DueDate            *time.Time        `json:"dueDate"`
	PaidAt             *time.Time        `json:"paidAt"`
	BillingPeriodStart *time.Time        `json:"billingPeriodStart"`
	BillingPeriodEnd   *time.Time        `json:"billingPeriodEnd"`
	Notes              string            `json:"notes"`

	// Formatted fields
	SubtotalFormatted          string `json:"subtotalFormatted"`
	VATAmountFormatted         string `json:"vatAmountFormatted"`
	TotalAmountFormatted       string `json:"totalAmountFormatted"`
	PaidAmountFormatted        string `json:"paidAmountFormatted"`
	OutstandingAmountFormatted string `json:"outstandingAmountFormatted"`
	TotalAmountInWords         string `json:"totalAmountInWords"`
	IssueDateFormatted         string `json:"issueDateFormatted"`
	DueDateFormatted           string `json:"dueDateFormatted"`
	BillingPeriodFormatted     string `json:"billingPeriodFormatted"`
}

// InvoiceItemData represents a line item in an invoice
type InvoiceItemData struct {
	Index       int             `json:"index"` // 1-based index
	Description string          `json:"description"`
	ItemType    string          `json:"itemType"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	GrossAmount decimal.Decimal `json:"grossAmount"`

	// Formatted fields
	UnitPriceFormatted   string `json:"unitPriceFormatted"`
	TaxRateFormatted     string `json:"taxRateFormatted"`
	NetAmountFormatted   string `json:"netAmountFormatted"`
	GrossAmountFormatted string `json:"grossAmountFormatted"`
}

// =============================================================================
// Payment Receipt Data
// =============================================================================

// PaymentReceiptData represents a payment receipt for template rendering.
// A receipt is issued per payment record against an invoice.
type PaymentReceiptData struct {
	ID                uuid.UUID       `json:"id"`
	ReceiptNo         string          `json:"receiptNo"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	InvoiceID         uuid.UUID       `json:"invoiceId"`
	Member            MemberInfo      `json:"member"`
	Payments          []PaymentInfo   `json:"payments"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	InvoiceTotal      decimal.Decimal `json:"invoiceTotal"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	Currency          string          `json:"currency"`
	ReceivedAt        time.Time       `json:"receivedAt"`

	// Formatted fields
	AmountPaidFormatted        string `json:"amountPaidFormatted"`
	InvoiceTotalFormatted      string `json:"invoiceTotalFormatted"`
	OutstandingAmountFormatted string `json:"outstandingAmountFormatted"`
	AmountPaidInWords          string `json:"amountPaidInWords"`
	ReceivedAtFormatted        string `json:"receivedAtFormatted"`
}

// =============================================================================
// Contract Data
// =============================================================================

// ContractData represents a membership contract for template rendering
type ContractData struct {
	ID                  uuid.UUID       `json:"id"`
	ContractNumber      string          `json:"contractNumber"`
	Member              MemberInfo      `json:"member"`
	PlanID              uuid.UUID       `json:"planId"`
	Status              string          `json:"status"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	CommitmentMonths    int             `json:"commitmentMonths"`
	CommitmentEndDate   *time.Time      `json:"commitmentEndDate"`
	NoticePeriodDays    int             `json:"noticePeriodDays"`
	MembershipFeeNet    decimal.Decimal `json:"membershipFeeNet"`
	MembershipFeeVAT    decimal.Decimal `json:"membershipFeeVat"`
	MembershipFeeGross  decimal.Decimal `json:"membershipFeeGross"`
	TerminationFeeType  string          `json:"terminationFeeType"`
	TerminationFeeValue decimal.Decimal `json:"terminationFeeValue"`
	SentAt              *time.Time      `json:"sentAt"`
	SignedAt            *time.Time      `json:"signedAt"`
	SignatureRef        string          `json:"signatureRef"`

	// Formatted fields
	MembershipFeeGrossFormatted string `json:"membershipFeeGrossFormatted"`
	StartDateFormatted          string `json:"startDateFormatted"`
	EndDateFormatted            string `json:"endDateFormatted"`
	CommitmentEndFormatted      string `json:"commitmentEndFormatted"`
	SignedAtFormatted           string `json:"signedAtFormatted"`

	// Signature areas for member and operator
	SignatureAreas []SignatureArea `json:"signatureAreas"`
}

// =============================================================================
// Dunning Notice Data
// =============================================================================

// DunningNoticeData represents a payment reminder notice for template rendering
type DunningNoticeData struct {
	ID                uuid.UUID       `json:"id"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	InvoiceID         uuid.UUID       `json:"invoiceId"`
	Member            MemberInfo      `json:"member"`
	StepNumber        int             `json:"stepNumber"` // 1-based position in the sequence
	TotalSteps        int             `json:"totalSteps"`
	StepKind          string          `json:"stepKind"` // REMINDER, RETRY_CHARGE, FINAL_NOTICE, ...
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	InvoiceTotal      decimal.Decimal `json:"invoiceTotal"`
	Currency          string          `json:"currency"`
	InvoiceDueDate    time.Time       `json:"invoiceDueDate"`
	DaysOverdue       int             `json:"daysOverdue"`
	NextActionAt      *time.Time      `json:"nextActionAt"`

	// Formatted fields
	OutstandingAmountFormatted string `json:"outstandingAmountFormatted"`
	InvoiceTotalFormatted      string `json:"invoiceTotalFormatted"`
	InvoiceDueDateFormatted    string `json:"invoiceDueDateFormatted"`
	NextActionAtFormatted      string `json:"nextActionAtFormatted"`
}

// =============================================================================
// Tax Report Data
// =============================================================================

// TaxReportData represents the tax authority submission record for an invoice
type TaxReportData struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceID      uuid.UUID       `json:"invoiceId"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	Status         string          `json:"status"`
	SubmissionHash string          `json:"submissionHash"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	VATAmount      decimal.Decimal `json:"vatAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	RetryCount     int             `json:"retryCount"`
	SubmittedAt    *time.Time      `json:"submittedAt"`
	ResolvedAt     *time.Time      `json:"resolvedAt"`
	ResponseCode   string          `json:"responseCode"`

	Attempts []SubmissionAttemptData `json:"attempts"`

	// Formatted fields
	SubtotalFormatted    string `json:"subtotalFormatted"`
	VATAmountFormatted   string `json:"vatAmountFormatted"`
	TotalAmountFormatted string `json:"totalAmountFormatted"`
	SubmittedAtFormatted string `json:"submittedAtFormatted"`
	ResolvedAtFormatted  string `json:"resolvedAtFormatted"`
}

// SubmissionAttemptData is one recorded delivery attempt to the tax authority
type SubmissionAttemptData struct {
	Index           int       `json:"index"`
	AttemptedAt     time.Time `json:"attemptedAt"`
	Outcome         string    `json:"outcome"`
	ResponseCode    string    `json:"responseCode"`
	ResponseMessage string    `json:"responseMessage"`

	// Formatted
	AttemptedAtFormatted string `json:"attemptedAtFormatted"`
}

// =============================================================================
// Common Info Types
// =============================================================================

// MemberInfo contains member information for printing
type MemberInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email"`
	Address string    `json:"address"`
}

// PaymentInfo represents a payment record on an invoice
type PaymentInfo struct {
	Method      string          `json:"method"`
	MethodText  string          `json:"methodText"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceNo string          `json:"referenceNo"`
	ReceivedAt  time.Time       `json:"receivedAt"`

	// Formatted
	AmountFormatted     string `json:"amountFormatted"`
	ReceivedAtFormatted string `json:"receivedAtFormatted"`
}

// SignatureArea represents a signature area on a document
type SignatureArea struct {
	Label  string `json:"label"`  // e.g., "Member", "Authorized Representative"
	Name   string `json:"name"`   // Pre-filled name if known
	Date   string `json:"date"`   // Pre-filled date if known
	Signed bool   `json:"signed"` // Whether this has been signed
}

// =============================================================================
// Helper Functions for Data Providers
// =============================================================================

// NewDocumentData creates a new DocumentData with common fields initialized
func NewDocumentData(docType printing.DocType, docNo string) *DocumentData {
	now := time.Now()
	return &DocumentData{
		Meta: DocumentMeta{
			DocType:     docType,
			DocTypeName: docType.DisplayName(),
			DocNo:       docNo,
		},
		PrintDate:     now.Format("2006-01-02"),
		PrintDateTime: now.Format("2006-01-02 15:04:05"),
		PrintTime:     now.Format("15:04:05"),
	}
}

// FormatMoneyValue formats a decimal as money string for data providers
func FormatMoneyValue(d decimal.Decimal) string {
	return "SAR " + formatDecimalWithCommas(d, 2)
}

// AmountInWords spells out a decimal money value for data providers
func AmountInWords(d decimal.Decimal) string {
	return amountInWords(d)
}

// formatDecimalWithCommas formats a decimal with thousand separators
func formatDecimalWithCommas(d decimal.Decimal, precision int) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := splitDecimal(d.StringFixed(int32(precision)))
	intPart := parts[0]
	decPart := ""
	if len(parts) > 1 {
		decPart = "." + parts[1]
	}

	// Add thousand separators
	var result []byte
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	return sign + string(result) + decPart
}

func splitDecimal(s string) []string {
	for i, c := range s {
		if c == '.' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
