package printing

import (
	"embed"
	"fmt"

	"github.com/liyaqa/backend/internal/domain/printing"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTemplate represents a default print template configuration
type DefaultTemplate struct {
	DocType     printing.DocType
	Name        string
	Description string
	PaperSize   printing.PaperSize
	Orientation printing.Orientation
	Margins     printing.Margins
	FilePath    string // Path within embed.FS
	IsDefault   bool   // Whether this is the default for its doc type
}

// GetDefaultTemplates returns all default template configurations
func GetDefaultTemplates() []DefaultTemplate {
	return []DefaultTemplate{
		// =============================================================================
		// INVOICE templates
		// =============================================================================
		{
			DocType:     printing.DocTypeInvoice,
			Name:        "Invoice A4",
			Description: "Standard A4 tax invoice with member details, line items and VAT breakdown",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/invoice_a4.html",
			IsDefault:   true,
		},
		{
			DocType:     printing.DocTypeInvoice,
			Name:        "Invoice A5",
			Description: "Compact A5 landscape invoice for front-desk printing",
			PaperSize:   printing.PaperSizeA5,
			Orientation: printing.OrientationLandscape,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/invoice_a5.html",
			IsDefault:   false,
		},

		// =============================================================================
		// PAYMENT_RECEIPT templates
		// =============================================================================
		{
			DocType:     printing.DocTypePaymentReceipt,
			Name:        "Payment Receipt A4",
			Description: "Standard A4 payment receipt with payment records and remaining balance",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/payment_receipt_a4.html",
			IsDefault:   true,
		},
		{
			DocType:     printing.DocTypePaymentReceipt,
			Name:        "Payment Receipt 80mm",
			Description: "80mm thermal receipt for front-desk receipt printers",
			PaperSize:   printing.PaperSizeReceipt80MM,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.ReceiptMargins(),
			FilePath:    "templates/payment_receipt_80mm.html",
			IsDefault:   false,
		},

		// =============================================================================
		// CONTRACT templates
		// =============================================================================
		{
			DocType:     printing.DocTypeContract,
			Name:        "Membership Contract A4",
			Description: "A4 membership contract with commitment terms, locked pricing and signature areas",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/contract_a4.html",
			IsDefault:   true,
		},

		// =============================================================================
		// DUNNING_NOTICE templates
		// =============================================================================
		{
			DocType:     printing.DocTypeDunningNotice,
			Name:        "Dunning Notice A4",
			Description: "A4 payment reminder letter with outstanding balance and escalation step",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/dunning_notice_a4.html",
			IsDefault:   true,
		},

		// =============================================================================
		// TAX_REPORT templates
		// =============================================================================
		{
			DocType:     printing.DocTypeTaxReport,
			Name:        "Tax Submission Report A4",
			Description: "A4 tax authority submission report with delivery attempts and fiscal totals",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/tax_report_a4.html",
			IsDefault:   true,
		},
	}
}

// LoadTemplateContent loads the HTML content for a default template
func LoadTemplateContent(filePath string) (string, error) {
	content, err := templateFS.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}
	return string(content), nil
}

// GetDefaultTemplateByDocTypeAndPaperSize finds a default template configuration
func GetDefaultTemplateByDocTypeAndPaperSize(docType printing.DocType, paperSize printing.PaperSize) *DefaultTemplate {
	templates := GetDefaultTemplates()
	for _, t := range templates {
		if t.DocType == docType && t.PaperSize == paperSize {
			return &t
		}
	}
	return nil
}

// GetDefaultTemplateForDocType finds the default template for a document type
func GetDefaultTemplateForDocType(docType printing.DocType) *DefaultTemplate {
	templates := GetDefaultTemplates()
	for _, t := range templates {
		if t.DocType == docType && t.IsDefault {
			return &t
		}
	}
	return nil
}

// GetTemplatesByDocType returns all templates for a document type
func GetTemplatesByDocType(docType printing.DocType) []DefaultTemplate {
	templates := GetDefaultTemplates()
	var result []DefaultTemplate
	for _, t := range templates {
		if t.DocType == docType {
			result = append(result, t)
		}
	}
	return result
}
