package handler

import (
	membershipapp "github.com/clinicledger/backend/internal/application/membership"
	"github.com/gin-gonic/gin"
)

// MembershipHandler handles membership tiers and patient subscriptions
type MembershipHandler struct {
	BaseHandler
	membershipService *membershipapp.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService *membershipapp.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// CreateTier godoc
// @ID           createMembershipTier
// @Summary      Create a membership tier
// @Description  Creates a tier with its nested benefits
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        request body membershipapp.CreateTierRequest true "Tier"
// @Success      201 {object} APIResponse[membershipapp.TierResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /memberships/tiers [post]
func (h *MembershipHandler) CreateTier(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req membershipapp.CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tier, err := h.membershipService.CreateTier(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tier)
}

// ListTiers godoc
// @ID           listMembershipTiers
// @Summary      List membership tiers
// @Description  Tiers with benefits and their number of active subscriptions
// @Tags         memberships
// @Produce      json
// @Success      200 {object} APIResponse[[]membershipapp.TierResponse]
// @Security     BearerAuth
// @Router       /memberships/tiers [get]
func (h *MembershipHandler) ListTiers(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	tiers, err := h.membershipService.ListTiers(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tiers)
}

// Subscribe godoc
// @ID           subscribeMembershipTier
// @Summary      Subscribe a patient to a tier
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Tier ID" format(uuid)
// @Param        request body membershipapp.SubscribeRequest true "Subscription"
// @Success      201 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /memberships/tiers/{id}/subscriptions [post]
func (h *MembershipHandler) Subscribe(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	tierID, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req membershipapp.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sub, err := h.membershipService.Subscribe(c.Request.Context(), tenantID, tierID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sub)
}

// ListSubscriptions godoc
// @ID           listMembershipSubscriptions
// @Summary      List the subscriptions of a tier
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Success      200 {object} APIResponse[[]membershipapp.SubscriptionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /memberships/tiers/{id}/subscriptions [get]
func (h *MembershipHandler) ListSubscriptions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	tierID, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	subs, err := h.membershipService.ListSubscriptions(c.Request.Context(), tenantID, tierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subs)
}

// CancelSubscription godoc
// @ID           cancelMembershipSubscription
// @Summary      Cancel a subscription
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[membershipapp.SubscriptionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /memberships/subscriptions/{id}/cancel [post]
func (h *MembershipHandler) CancelSubscription(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	sub, err := h.membershipService.CancelSubscription(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}
