package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/liyaqa/backend/internal/application/billing"
	"github.com/liyaqa/backend/internal/domain/billing"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// RecordPaymentRequest represents a request to record a payment on an invoice
// @Description Request body for recording a payment against an issued invoice
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required,max=50"`
	Reference string          `json:"reference" binding:"max=200"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
// @Description Request body for cancelling an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InvoiceListQuery carries the query parameters for listing invoices
type InvoiceListQuery struct {
	MemberID       string `form:"member_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SubscriptionID string `form:"subscription_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status         string `form:"status" example:"ISSUED"`
	IssuedFrom     string `form:"issued_from" example:"2026-01-01"`
	IssuedTo       string `form:"issued_to" example:"2026-01-31"`
	DueBefore      string `form:"due_before" example:"2026-02-15"`
	Search         string `form:"search" example:"INV-2026"`
	Page           int    `form:"page" example:"1"`
	PageSize       int    `form:"page_size" example:"20"`
	OrderBy        string `form:"order_by" example:"created_at"`
	OrderDir       string `form:"order_dir" example:"desc"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Create a new draft invoice, optionally with initial line items
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body billingapp.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, inv)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Description  Get an invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// Summary godoc
// @ID           getInvoiceSummary
// @Summary      Get an invoice summary
// @Description  Get the totals projection of an invoice
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.InvoiceSummary]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/summary [get]
func (h *InvoiceHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	summary, err := h.invoiceService.GetInvoiceSummary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  List invoices with optional filters
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        member_id query string false "Filter by member ID" format(uuid)
// @Param        subscription_id query string false "Filter by subscription ID" format(uuid)
// @Param        status query string false "Filter by status"
// @Param        search query string false "Search by invoice number"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var q InvoiceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// AddLineItem godoc
// @ID           addInvoiceLineItem
// @Summary      Add a line item
// @Description  Add a line item to a draft invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body billingapp.LineItemRequest true "Line item"
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/items [post]
func (h *InvoiceHandler) AddLineItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var item billingapp.LineItemRequest
	if err := c.ShouldBindJSON(&item); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoiceService.AddLineItem(c.Request.Context(), tenantID, id, item)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// RemoveLineItem godoc
// @ID           removeInvoiceLineItem
// @Summary      Remove a line item
// @Description  Remove a line item from a draft invoice
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        itemId path string true "Line item ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/items/{itemId} [delete]
func (h *InvoiceHandler) RemoveLineItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid line item ID")
		return
	}

	inv, err := h.invoiceService.RemoveLineItem(c.Request.Context(), tenantID, id, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// Issue godoc
// @ID           issueInvoice
// @Summary      Issue an invoice
// @Description  Issue a draft invoice, assigning its invoice number and due date
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.IssueInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  Record a payment against an issued invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body RecordPaymentRequest true "Payment details"
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, id, req.Amount, req.Method, req.Reference)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel an invoice
// @Description  Cancel a draft or unpaid invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body CancelInvoiceRequest true "Cancellation request"
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoiceService.CancelInvoice(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

func (q InvoiceListQuery) toFilter() (billing.InvoiceFilter, error) {
	filter := billing.InvoiceFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.OrderBy = q.OrderBy
	filter.OrderDir = q.OrderDir
	filter.Search = q.Search
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if q.MemberID != "" {
		id, err := uuid.Parse(q.MemberID)
		if err != nil {
			return filter, err
		}
		filter.MemberID = &id
	}
	if q.SubscriptionID != "" {
		id, err := uuid.Parse(q.SubscriptionID)
		if err != nil {
			return filter, err
		}
		filter.SubscriptionID = &id
	}
	if q.Status != "" {
		status := billing.InvoiceStatus(q.Status)
		filter.Status = &status
	}
	if q.IssuedFrom != "" {
		t, err := time.Parse("2006-01-02", q.IssuedFrom)
		if err != nil {
			return filter, err
		}
		filter.IssuedFrom = &t
	}
	if q.IssuedTo != "" {
		t, err := time.Parse("2006-01-02", q.IssuedTo)
		if err != nil {
			return filter, err
		}
		filter.IssuedTo = &t
	}
	if q.DueBefore != "" {
		t, err := time.Parse("2006-01-02", q.DueBefore)
		if err != nil {
			return filter, err
		}
		filter.DueBefore = &t
	}
	return filter, nil
}
