package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	membershipapp "github.com/liyaqa/backend/internal/application/membership"
	"github.com/liyaqa/backend/internal/domain/membership"
)

// ContractHandler handles membership contract API endpoints
type ContractHandler struct {
	BaseHandler
	contractService *membershipapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *membershipapp.ContractService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// SignContractRequest represents a request to sign a contract
// @Description Request body for recording a member's contract signature
type SignContractRequest struct {
	SignatureRef string `json:"signature_ref" binding:"required,max=200"`
}

// ActivateContractRequest represents a request to activate a contract
// @Description Request body for linking a signed contract to its subscription
type ActivateContractRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
}

// RenewContractRequest represents a request to renew a contract
// @Description Request body for renewing a contract into a new term
type RenewContractRequest struct {
	NewEndDate time.Time `json:"new_end_date" binding:"required"`
}

// TerminateContractRequest represents a request to terminate a contract
// @Description Request body for terminating a contract early
type TerminateContractRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TerminationFeePreview is the projected fee for terminating a contract today
type TerminationFeePreview struct {
	Fee decimal.Decimal `json:"fee"`
}

// ContractListQuery carries the query parameters for listing contracts
type ContractListQuery struct {
	MemberID string `form:"member_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status   string `form:"status" example:"ACTIVE"`
	Page     int    `form:"page" example:"1"`
	PageSize int    `form:"page_size" example:"20"`
	OrderBy  string `form:"order_by" example:"created_at"`
	OrderDir string `form:"order_dir" example:"desc"`
}

// Create godoc
// @ID           createContract
// @Summary      Create a contract
// @Description  Create a new membership contract in DRAFT status
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body membershipapp.CreateContractRequest true "Contract creation request"
// @Success      201 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req membershipapp.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.contractService.CreateContract(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, contract)
}

// Get godoc
// @ID           getContract
// @Summary      Get a contract
// @Description  Get a contract by ID
// @Tags         contracts
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractService.GetContract(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// List godoc
// @ID           listContracts
// @Summary      List contracts
// @Description  List contracts with optional filters
// @Tags         contracts
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        member_id query string false "Filter by member ID" format(uuid)
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]membershipapp.ContractResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var q ContractListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := membership.ContractFilter{}
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
	if q.MemberID != "" {
		id, err := uuid.Parse(q.MemberID)
		if err != nil {
			h.BadRequest(c, "Invalid member ID")
			return
		}
		filter.MemberID = &id
	}
	if q.Status != "" {
		status := membership.ContractStatus(q.Status)
		filter.Status = &status
	}

	contracts, err := h.contractService.ListContracts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contracts)
}

// Send godoc
// @ID           sendContract
// @Summary      Send a contract for signature
// @Description  Move a draft contract to PENDING_SIGNATURE
// @Tags         contracts
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/send [post]
func (h *ContractHandler) Send(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractService.SendContract(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Sign godoc
// @ID           signContract
// @Summary      Sign a contract
// @Description  Record the member's signature on a pending contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body SignContractRequest true "Signature request"
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/sign [post]
func (h *ContractHandler) Sign(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req SignContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.contractService.SignContract(c.Request.Context(), tenantID, id, req.SignatureRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Activate godoc
// @ID           activateContract
// @Summary      Activate a contract
// @Description  Link a signed contract to its subscription and activate it
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body ActivateContractRequest true "Activation request"
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/activate [post]
func (h *ContractHandler) Activate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req ActivateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.contractService.ActivateContract(c.Request.Context(), tenantID, id, req.SubscriptionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Renew godoc
// @ID           renewContract
// @Summary      Renew a contract
// @Description  Extend an active contract into a new term
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body RenewContractRequest true "Renewal request"
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/renew [post]
func (h *ContractHandler) Renew(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req RenewContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.contractService.RenewContract(c.Request.Context(), tenantID, id, req.NewEndDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Terminate godoc
// @ID           terminateContract
// @Summary      Terminate a contract
// @Description  Terminate a contract early, assessing the termination fee
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body TerminateContractRequest true "Termination request"
// @Success      200 {object} APIResponse[membershipapp.ContractResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/terminate [post]
func (h *ContractHandler) Terminate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req TerminateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.contractService.TerminateContract(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// PreviewTerminationFee godoc
// @ID           previewContractTerminationFee
// @Summary      Preview the termination fee
// @Description  Compute the fee that terminating the contract today would incur
// @Tags         contracts
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} APIResponse[TerminationFeePreview]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/contracts/{id}/termination-fee [get]
func (h *ContractHandler) PreviewTerminationFee(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	fee, err := h.contractService.PreviewTerminationFee(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, TerminationFeePreview{Fee: fee})
}
