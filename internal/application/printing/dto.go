package printing

import (
	"time"

	"github.com/google/uuid"
)

// CreateTemplateRequest registers a new document template for the tenant.
// DocumentType names what it renders: tax_invoice, contract, receipt.
type CreateTemplateRequest struct {
	DocumentType string      `json:"document_type" binding:"required"`
	Name         string      `json:"name" binding:"required,min=1,max=100"`
	Description  string      `json:"description" binding:"max=500"`
	Content      string      `json:"content" binding:"required"`
	PaperSize    string      `json:"paper_size" binding:"required"`
	Orientation  string      `json:"orientation"`
	Margins      *MarginsDTO `json:"margins"`
}

// UpdateTemplateRequest patches a template. Nil fields stay as they are.
type UpdateTemplateRequest struct {
	Name        *string     `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=500"`
	Content     *string     `json:"content"`
	PaperSize   *string     `json:"paper_size"`
	Orientation *string     `json:"orientation"`
	Margins     *MarginsDTO `json:"margins"`
}

type ListTemplatesRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	DocType  string `form:"doc_type"`
	Status   string `form:"status"`
}

// TemplateResponse is a template as the API exposes it. Content carries
// the raw HTML and is omitted from listings.
type TemplateResponse struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	DocumentType string     `json:"document_type"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Content      string     `json:"content,omitempty"`
	PaperSize    string     `json:"paper_size"`
	Orientation  string     `json:"orientation"`
	Margins      MarginsDTO `json:"margins"`
	IsDefault    bool       `json:"is_default"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type ListTemplatesResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// MarginsDTO is the page margins in millimeters.
type MarginsDTO struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// PreviewRequest renders a document to HTML without creating a print job,
// for the template editor's live preview. TemplateID nil means the
// tenant's default template for the document type.
type PreviewRequest struct {
	DocumentType string     `json:"document_type" binding:"required"`
	DocumentID   uuid.UUID  `json:"document_id" binding:"required"`
	TemplateID   *uuid.UUID `json:"template_id"`
	Data         any        `json:"data"`
}

// PreviewResponse carries the rendered HTML plus the page setup the client
// needs to frame it.
type PreviewResponse struct {
	HTML        string     `json:"html"`
	TemplateID  string     `json:"template_id"`
	PaperSize   string     `json:"paper_size"`
	Orientation string     `json:"orientation"`
	Margins     MarginsDTO `json:"margins"`
}

// GeneratePDFRequest creates a print job and renders it to PDF.
type GeneratePDFRequest struct {
	DocumentType   string     `json:"document_type" binding:"required"`
	DocumentID     uuid.UUID  `json:"document_id" binding:"required"`
	DocumentNumber string     `json:"document_number" binding:"required"`
	TemplateID     *uuid.UUID `json:"template_id"`
	Copies         *int       `json:"copies" binding:"omitempty,min=1,max=100"`
	Data           any        `json:"data"`
}

type ListJobsRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	DocType  string `form:"doc_type"`
	Status   string `form:"status"`
}

// PrintJobResponse is a print job as the API exposes it. PdfURL points at
// the stored file once rendering succeeds; ErrorMessage is set when it
// fails.
type PrintJobResponse struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	TemplateID     string     `json:"template_id"`
	DocumentType   string     `json:"document_type"`
	DocumentID     string     `json:"document_id"`
	DocumentNumber string     `json:"document_number"`
	Status         string     `json:"status"`
	Copies         int        `json:"copies"`
	PdfURL         string     `json:"pdf_url,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	PrintedAt      *time.Time `json:"printed_at,omitempty"`
	PrintedBy      string     `json:"printed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListJobsResponse struct {
	Items []PrintJobResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// DocumentTypeResponse is one entry of the document type catalog the
// template editor offers.
type DocumentTypeResponse struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// PaperSizeResponse is a supported paper size, dimensions in millimeters.
type PaperSizeResponse struct {
	Code   string `json:"code"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
