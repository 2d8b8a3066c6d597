package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dunningapp "github.com/liyaqa/backend/internal/application/dunning"
	"github.com/liyaqa/backend/internal/domain/dunning"
)

// DunningHandler handles dunning sequence API endpoints
type DunningHandler struct {
	BaseHandler
	dunningService *dunningapp.DunningService
}

// NewDunningHandler creates a new DunningHandler
func NewDunningHandler(dunningService *dunningapp.DunningService) *DunningHandler {
	return &DunningHandler{
		dunningService: dunningService,
	}
}

// PauseSequenceRequest represents a request to pause a dunning sequence
// @Description Request body for pausing an active dunning sequence
type PauseSequenceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// EscalateSequenceRequest represents a request to escalate a dunning sequence
// @Description Request body for escalating a sequence to a customer success manager
type EscalateSequenceRequest struct {
	Assignee string `json:"assignee" binding:"required,max=200"`
	Notes    string `json:"notes" binding:"max=1000"`
}

// RecoverSequenceRequest represents a request to mark a sequence recovered
// @Description Request body for closing a sequence after the debt was settled
type RecoverSequenceRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// CancelSequenceRequest represents a request to cancel a dunning sequence
// @Description Request body for cancelling a dunning sequence
type CancelSequenceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SequenceListQuery carries the query parameters for listing dunning sequences
type SequenceListQuery struct {
	InvoiceID string `form:"invoice_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	MemberID  string `form:"member_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    string `form:"status" example:"ACTIVE"`
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"20"`
	OrderBy   string `form:"order_by" example:"next_action_at"`
	OrderDir  string `form:"order_dir" example:"asc"`
}

// Get godoc
// @ID           getDunningSequence
// @Summary      Get a dunning sequence
// @Description  Get a dunning sequence by ID
// @Tags         dunning
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id} [get]
func (h *DunningHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	seq, err := h.dunningService.GetSequence(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}

// List godoc
// @ID           listDunningSequences
// @Summary      List dunning sequences
// @Description  List dunning sequences with optional filters
// @Tags         dunning
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        invoice_id query string false "Filter by invoice ID" format(uuid)
// @Param        member_id query string false "Filter by member ID" format(uuid)
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]dunningapp.SequenceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences [get]
func (h *DunningHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var q SequenceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := dunning.SequenceFilter{}
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
	if q.MemberID != "" {
		id, err := uuid.Parse(q.MemberID)
		if err != nil {
			h.BadRequest(c, "Invalid member ID")
			return
		}
		filter.MemberID = &id
	}
	if q.Status != "" {
		status := dunning.SequenceStatus(q.Status)
		filter.Status = &status
	}

	seqs, err := h.dunningService.ListSequences(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seqs)
}

// Pause godoc
// @ID           pauseDunningSequence
// @Summary      Pause a dunning sequence
// @Description  Pause an active sequence, freezing its step clock
// @Tags         dunning
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Param        request body PauseSequenceRequest true "Pause request"
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id}/pause [post]
func (h *DunningHandler) Pause(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	var req PauseSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	seq, err := h.dunningService.PauseSequence(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}

// Resume godoc
// @ID           resumeDunningSequence
// @Summary      Resume a dunning sequence
// @Description  Resume a paused sequence, rescheduling its next step
// @Tags         dunning
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id}/resume [post]
func (h *DunningHandler) Resume(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	seq, err := h.dunningService.ResumeSequence(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}

// Escalate godoc
// @ID           escalateDunningSequence
// @Summary      Escalate a dunning sequence
// @Description  Hand a sequence to a customer success manager
// @Tags         dunning
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Param        request body EscalateSequenceRequest true "Escalation request"
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id}/escalate [post]
func (h *DunningHandler) Escalate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	var req EscalateSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	seq, err := h.dunningService.EscalateSequence(c.Request.Context(), tenantID, id, req.Assignee, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}

// Recover godoc
// @ID           recoverDunningSequence
// @Summary      Close a recovered sequence
// @Description  Close a sequence after the outstanding debt was settled
// @Tags         dunning
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Param        request body RecoverSequenceRequest true "Recovery notes"
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id}/recover [post]
func (h *DunningHandler) Recover(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	var req RecoverSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	seq, err := h.dunningService.RecoverSequence(c.Request.Context(), tenantID, id, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}

// Cancel godoc
// @ID           cancelDunningSequence
// @Summary      Cancel a dunning sequence
// @Description  Cancel a sequence without recovering the debt
// @Tags         dunning
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Sequence ID" format(uuid)
// @Param        request body CancelSequenceRequest true "Cancellation request"
// @Success      200 {object} APIResponse[dunningapp.SequenceResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dunning-sequences/{id}/cancel [post]
func (h *DunningHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sequence ID")
		return
	}

	var req CancelSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	seq, err := h.dunningService.CancelSequence(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, seq)
}
