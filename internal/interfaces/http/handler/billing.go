package handler

import (
	"errors"
	"io"
	"net/http"

	billingapp "github.com/clinicledger/backend/internal/application/billing"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Stripe webhooks are small; anything larger is rejected unread.
const maxWebhookPayloadSize = 65536

// StripeSignatureHeader carries the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

// BillingHandler handles plan checkout and the Stripe webhook
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// StripeWebhookResponse represents the response for Stripe webhook
//
//	@Description	Stripe webhook response
type StripeWebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventID   string `json:"eventId,omitempty" example:"evt_1234567890"`
	EventType string `json:"eventType,omitempty" example:"checkout.session.completed"`
	Message   string `json:"message,omitempty" example:"Webhook processed successfully"`
}

// CreateCheckout godoc
// @ID           createBillingCheckout
// @Summary      Start a plan checkout
// @Description  Opens a Stripe Checkout session for the caller's organization and returns its URL
// @Tags         billing
// @Produce      json
// @Success      200 {object} APIResponse[billingapp.CheckoutResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/checkout [post]
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	email := ""
	if p := middleware.GetPrincipal(c); p != nil {
		email = p.Email
	}
	result, err := h.billingService.CreateCheckout(c.Request.Context(), tenantID, userID, email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Webhook godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Receive and process webhook events from Stripe
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe webhook signature"
//	@Success		200					{object}	StripeWebhookResponse	"Webhook processed successfully"
//	@Failure		400					{object}	StripeWebhookResponse	"Invalid request"
//	@Failure		401					{object}	StripeWebhookResponse	"Invalid signature"
//	@Failure		413					{object}	StripeWebhookResponse	"Payload too large"
//	@Router			/billing/webhook [post]
func (h *BillingHandler) Webhook(c *gin.Context) {
	// signature verification needs the raw body
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Failed to read request body"})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, StripeWebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		c.JSON(http.StatusUnauthorized, StripeWebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	result, err := h.billingService.ProcessWebhook(c.Request.Context(), payload, signature)
	if result == nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			c.JSON(http.StatusUnauthorized, StripeWebhookResponse{Message: "Invalid signature"})
			return
		}
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Webhook could not be processed"})
		return
	}

	// Processing failures are acknowledged; the event stays in the Stripe
	// dashboard for a manual replay.
	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}
