package printing

// DocType represents the type of business document that can be printed
type DocType string

const (
	// Billing documents
	DocTypeInvoice        DocType = "INVOICE"         // member invoice with VAT breakdown
	DocTypePaymentReceipt DocType = "PAYMENT_RECEIPT" // receipt for a recorded payment

	// Membership documents
	DocTypeContract DocType = "CONTRACT" // membership contract for signature

	// Collections documents
	DocTypeDunningNotice DocType = "DUNNING_NOTICE" // payment reminder letter

	// Compliance documents
	DocTypeTaxReport DocType = "TAX_REPORT" // tax submission summary
)

// IsValid checks if the DocType is a valid value
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeInvoice, DocTypePaymentReceipt, DocTypeContract,
		DocTypeDunningNotice, DocTypeTaxReport:
		return true
	}
	return false
}

// String returns the string representation of DocType
func (d DocType) String() string {
	return string(d)
}

// DisplayName returns the display name for DocType
func (d DocType) DisplayName() string {
	switch d {
	case DocTypeInvoice:
		return "Invoice"
	case DocTypePaymentReceipt:
		return "Payment Receipt"
	case DocTypeContract:
		return "Membership Contract"
	case DocTypeDunningNotice:
		return "Dunning Notice"
	case DocTypeTaxReport:
		return "Tax Report"
	default:
		return string(d)
	}
}

// AllDocTypes returns all valid DocType values
func AllDocTypes() []DocType {
	return []DocType{
		DocTypeInvoice, DocTypePaymentReceipt, DocTypeContract,
		DocTypeDunningNotice, DocTypeTaxReport,
	}
}

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4            PaperSize = "A4"             // 210mm x 297mm
	PaperSizeA5            PaperSize = "A5"             // 148mm x 210mm
	PaperSizeReceipt58MM   PaperSize = "RECEIPT_58MM"   // 58mm thermal receipt
	PaperSizeReceipt80MM   PaperSize = "RECEIPT_80MM"   // 80mm thermal receipt
	PaperSizeContinuous241 PaperSize = "CONTINUOUS_241" // 241mm continuous paper (dot matrix)
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeReceipt58MM, PaperSizeReceipt80MM, PaperSizeContinuous241:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
// For receipt paper, width is the paper width and height is variable
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeReceipt58MM:
		return 58, 0 // Height is variable for receipt paper
	case PaperSizeReceipt80MM:
		return 80, 0 // Height is variable for receipt paper
	case PaperSizeContinuous241:
		return 241, 0 // Height is variable for continuous paper
	default:
		return 210, 297 // Default to A4
	}
}

// IsReceipt returns true if this is a receipt paper size
func (p PaperSize) IsReceipt() bool {
	return p == PaperSizeReceipt58MM || p == PaperSizeReceipt80MM
}

// IsContinuous returns true if this is continuous feed paper
func (p PaperSize) IsContinuous() bool {
	return p == PaperSizeContinuous241
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{
		PaperSizeA4, PaperSizeA5, PaperSizeReceipt58MM, PaperSizeReceipt80MM, PaperSizeContinuous241,
	}
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT" 
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// TemplateStatus represents the status of a print template
type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "ACTIVE"
	TemplateStatusInactive TemplateStatus = "INACTIVE"
)

// IsValid checks if the TemplateStatus is a valid value
func (s TemplateStatus) IsValid() bool {
	switch s {
	case TemplateStatusActive, TemplateStatusInactive:
		return true
	}
	return false
}

// String returns the string representation of TemplateStatus
func (s TemplateStatus) String() string {
	return string(s)
}

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRendering JobStatus = "RENDERING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRendering, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRendering || target == JobStatusFailed
	case JobStatusRendering:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false // Terminal states
	}
	return false
}
