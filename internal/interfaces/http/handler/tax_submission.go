package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	complianceapp "github.com/liyaqa/backend/internal/application/compliance"
	"github.com/liyaqa/backend/internal/domain/compliance"
)

// TaxSubmissionHandler handles tax submission API endpoints
type TaxSubmissionHandler struct {
	BaseHandler
	taxService *complianceapp.TaxSubmissionService
}

// NewTaxSubmissionHandler creates a new TaxSubmissionHandler
func NewTaxSubmissionHandler(taxService *complianceapp.TaxSubmissionService) *TaxSubmissionHandler {
	return &TaxSubmissionHandler{
		taxService: taxService,
	}
}

// TaxSubmissionListQuery carries the query parameters for listing tax submissions
type TaxSubmissionListQuery struct {
	InvoiceID string `form:"invoice_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    string `form:"status" example:"ACCEPTED"`
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"20"`
	OrderBy   string `form:"order_by" example:"created_at"`
	OrderDir  string `form:"order_dir" example:"desc"`
}

// Get godoc
// @ID           getTaxSubmission
// @Summary      Get a tax submission
// @Description  Get a tax submission record by ID
// @Tags         tax-submissions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Submission ID" format(uuid)
// @Success      200 {object} APIResponse[complianceapp.TaxSubmissionResponse]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /compliance/tax-submissions/{id} [get]
func (h *TaxSubmissionHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid submission ID")
		return
	}

	sub, err := h.taxService.GetSubmission(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// List godoc
// @ID           listTaxSubmissions
// @Summary      List tax submissions
// @Description  List tax submissions with optional filters
// @Tags         tax-submissions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        invoice_id query string false "Filter by invoice ID" format(uuid)
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]complianceapp.TaxSubmissionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /compliance/tax-submissions [get]
func (h *TaxSubmissionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var q TaxSubmissionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := compliance.TaxSubmissionFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.OrderBy = q.OrderBy
	filter.OrderDir = q.OrderDir
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.InvoiceID != "" {
		id, err := uuid.Parse(q.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID")
			return
		}
		filter.InvoiceID = &id
	}
	if q.Status != "" {
		status := compliance.SubmissionStatus(q.Status)
		filter.Status = &status
	}

	subs, err := h.taxService.ListSubmissions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subs)
}

// ListForInvoice godoc
// @ID           listInvoiceTaxSubmissions
// @Summary      List submissions for an invoice
// @Description  List all tax submission records for an invoice, newest first
// @Tags         tax-submissions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]complianceapp.TaxSubmissionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/tax-submissions [get]
func (h *TaxSubmissionHandler) ListForInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	subs, err := h.taxService.GetSubmissionsForInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subs)
}

// Resubmit godoc
// @ID           resubmitInvoiceTax
// @Summary      Resubmit an invoice
// @Description  Queue a fresh tax submission for a rejected or failed invoice
// @Tags         tax-submissions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      201 {object} APIResponse[complianceapp.TaxSubmissionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/tax-submissions/resubmit [post]
func (h *TaxSubmissionHandler) Resubmit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	sub, err := h.taxService.Resubmit(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sub)
}
