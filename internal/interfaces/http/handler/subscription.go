package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	membershipapp "github.com/liyaqa/backend/internal/application/membership"
	"github.com/liyaqa/backend/internal/domain/membership"
)

// SubscriptionHandler handles membership subscription API endpoints
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *membershipapp.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *membershipapp.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// ActivateSubscriptionRequest represents a request to activate a subscription
// @Description Request body for activating a pending subscription after payment
type ActivateSubscriptionRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount" binding:"required"`
}

// FreezeSubscriptionRequest represents a request to freeze a subscription
// @Description Request body for freezing an active subscription
type FreezeSubscriptionRequest struct {
	Days           int    `json:"days" binding:"required,min=1"`
	Reason         string `json:"reason" binding:"max=500"`
	ExtendOnFreeze bool   `json:"extend_on_freeze"`
}

// CancelSubscriptionRequest represents a request to cancel a subscription
// @Description Request body for cancelling a subscription
type CancelSubscriptionRequest struct {
	Reason    string `json:"reason" binding:"max=500"`
	Immediate bool   `json:"immediate"`
}

// TransferSubscriptionRequest represents a request to transfer a subscription
// @Description Request body for transferring a subscription to another member
type TransferSubscriptionRequest struct {
	TargetMemberID uuid.UUID `json:"target_member_id" binding:"required"`
}

// RenewSubscriptionRequest represents a request to renew a subscription
// @Description Request body for renewing a subscription into a new term
type RenewSubscriptionRequest struct {
	NewEndDate time.Time       `json:"new_end_date" binding:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// SubscriptionListQuery carries the query parameters for listing subscriptions
type SubscriptionListQuery struct {
	MemberID  string `form:"member_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	PlanID    string `form:"plan_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    string `form:"status" example:"ACTIVE"`
	AutoRenew *bool  `form:"auto_renew"`
	EndingBy  string `form:"ending_by" example:"2026-12-31"`
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"20"`
	OrderBy   string `form:"order_by" example:"end_date"`
	OrderDir  string `form:"order_dir" example:"asc"`
}

// Create godoc
// @ID           createSubscription
// @Summary      Create a subscription
// @Description  Create a new membership subscription in PENDING_PAYMENT status
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body membershipapp.CreateSubscriptionRequest true "Subscription creation request"
// @Success      201 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req membershipapp.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sub)
}

// Get godoc
// @ID           getSubscription
// @Summary      Get a subscription
// @Description  Get a subscription by ID
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id} [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Summary godoc
// @ID           getSubscriptionSummary
// @Summary      Get a subscription summary
// @Description  Get the dashboard projection of a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionSummary]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/summary [get]
func (h *SubscriptionHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	summary, err := h.subscriptionService.GetSubscriptionSummary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// History godoc
// @ID           getSubscriptionHistory
// @Summary      Get a subscription's status history
// @Description  Get the chronological status change timeline of a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[[]membershipapp.StatusChangeResponse]
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/history [get]
func (h *SubscriptionHandler) History(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	history, err := h.subscriptionService.GetSubscriptionHistory(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// List godoc
// @ID           listSubscriptions
// @Summary      List subscriptions
// @Description  List subscriptions with optional filters
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        member_id query string false "Filter by member ID" format(uuid)
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]membershipapp.SubscriptionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var q SubscriptionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	subs, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subs)
}

// Activate godoc
// @ID           activateSubscription
// @Summary      Activate a subscription
// @Description  Activate a pending subscription after payment is confirmed
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body ActivateSubscriptionRequest true "Activation request"
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/activate [post]
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var req ActivateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, _ := getUserID(c)

	sub, err := h.subscriptionService.ActivateSubscription(c.Request.Context(), tenantID, id, req.PaidAmount, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Freeze godoc
// @ID           freezeSubscription
// @Summary      Freeze a subscription
// @Description  Freeze an active subscription for a number of days
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body FreezeSubscriptionRequest true "Freeze request"
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/freeze [post]
func (h *SubscriptionHandler) Freeze(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var req FreezeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, _ := getUserID(c)

	sub, err := h.subscriptionService.FreezeSubscription(c.Request.Context(), tenantID, id, req.Days, req.Reason, req.ExtendOnFreeze, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Unfreeze godoc
// @ID           unfreezeSubscription
// @Summary      Unfreeze a subscription
// @Description  Resume a frozen subscription
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/unfreeze [post]
func (h *SubscriptionHandler) Unfreeze(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	actorID, _ := getUserID(c)

	sub, err := h.subscriptionService.UnfreezeSubscription(c.Request.Context(), tenantID, id, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Cancel godoc
// @ID           cancelSubscription
// @Summary      Cancel a subscription
// @Description  Cancel a subscription immediately or at the end of the notice period
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body CancelSubscriptionRequest true "Cancellation request"
// @Success      200 {object} APIResponse[membershipapp.CancelSubscriptionResult]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, _ := getUserID(c)

	result, err := h.subscriptionService.CancelSubscription(c.Request.Context(), tenantID, id, req.Reason, req.Immediate, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Transfer godoc
// @ID           transferSubscription
// @Summary      Transfer a subscription
// @Description  Transfer an active subscription to another member
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body TransferSubscriptionRequest true "Transfer request"
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/transfer [post]
func (h *SubscriptionHandler) Transfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var req TransferSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, _ := getUserID(c)

	sub, err := h.subscriptionService.TransferSubscription(c.Request.Context(), tenantID, id, req.TargetMemberID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Renew godoc
// @ID           renewSubscription
// @Summary      Renew a subscription
// @Description  Extend a subscription into a new term
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body RenewSubscriptionRequest true "Renewal request"
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/renew [post]
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var req RenewSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, _ := getUserID(c)

	sub, err := h.subscriptionService.RenewSubscription(c.Request.Context(), tenantID, id, req.NewEndDate, req.PaidAmount, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// UseClass godoc
// @ID           useSubscriptionClass
// @Summary      Consume a class credit
// @Description  Decrement the remaining class credits of a class-pack subscription
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/use-class [post]
func (h *SubscriptionHandler) UseClass(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	sub, err := h.subscriptionService.UseClass(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// UseGuestPass godoc
// @ID           useSubscriptionGuestPass
// @Summary      Consume a guest pass
// @Description  Decrement the remaining guest passes of a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /membership/subscriptions/{id}/use-guest-pass [post]
func (h *SubscriptionHandler) UseGuestPass(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	sub, err := h.subscriptionService.UseGuestPass(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

func (q SubscriptionListQuery) toFilter() (membership.SubscriptionFilter, error) {
	filter := membership.SubscriptionFilter{}
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
			return filter, err
		}
		filter.MemberID = &id
	}
	if q.PlanID != "" {
		id, err := uuid.Parse(q.PlanID)
		if err != nil {
			return filter, err
		}
		filter.PlanID = &id
	}
	if q.Status != "" {
		status := membership.SubscriptionStatus(q.Status)
		filter.Status = &status
	}
	filter.AutoRenew = q.AutoRenew
	if q.EndingBy != "" {
		t, err := time.Parse("2006-01-02", q.EndingBy)
		if err != nil {
			return filter, err
		}
		filter.EndingBy = &t
	}
	return filter, nil
}
