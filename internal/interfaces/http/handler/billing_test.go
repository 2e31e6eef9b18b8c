package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/clinicledger/backend/internal/application/billing"
	identityapp "github.com/clinicledger/backend/internal/application/identity"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const billingTestSecret = "whsec_handler_test"

type recordingGateway struct {
	inputs []billingapp.CheckoutInput
}

func (g *recordingGateway) CreateCheckoutSession(_ context.Context, input billingapp.CheckoutInput) (string, error) {
	g.inputs = append(g.inputs, input)
	return "https://checkout.stripe.com/c/pay/cs_test_handler", nil
}

func newBillingRouter(env *apiEnv, gateway billingapp.CheckoutGateway) *gin.Engine {
	service := billingapp.NewBillingService(billingapp.BillingServiceConfig{
		Gateway:       gateway,
		OrgRepo:       persistence.NewGormOrganizationRepository(env.db),
		WebhookSecret: billingTestSecret,
		AppURL:        "https://app.clinicledger.test",
		Logger:        zap.NewNop(),
	})
	h := NewBillingHandler(service)

	r := gin.New()
	r.POST("/billing/webhook", h.Webhook)
	r.POST("/billing/checkout", func(c *gin.Context) {
		middleware.SetPrincipal(c, &identityapp.Principal{
			UserID:   env.user.ID,
			TenantID: env.org.ID,
			Email:    env.user.Email,
			Role:     env.user.Role,
		})
		c.Next()
	}, h.CreateCheckout)
	return r
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(StripeSignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBillingHandler_CreateCheckout(t *testing.T) {
	env := newAPIEnv(t)
	gateway := &recordingGateway{}
	r := newBillingRouter(env, gateway)

	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_handler", decodeBody(t, w)["data"].(map[string]any)["url"])
	require.Len(t, gateway.inputs, 1)
	assert.Equal(t, "owner@riverside.test", gateway.inputs[0].CustomerEmail)
	assert.Equal(t, env.org.ID.String(), gateway.inputs[0].Metadata[billingapp.MetadataTenantID])
}

func TestBillingHandler_Webhook(t *testing.T) {
	env := newAPIEnv(t)
	r := newBillingRouter(env, &recordingGateway{})

	raw, err := json.Marshal(map[string]any{
		"id":          "evt_handler_1",
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2024-12-18.acacia",
		"data": map[string]any{"object": map[string]any{
			"id":       "cs_handler_1",
			"object":   "checkout.session",
			"customer": "cus_handler",
			"metadata": map[string]string{billingapp.MetadataTenantID: env.org.ID.String()},
		}},
	})
	require.NoError(t, err)

	t.Run("missing signature", func(t *testing.T) {
		w := postWebhook(r, raw, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		w := postWebhook(r, raw, "t=1,v1=deadbeef")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("oversized payload", func(t *testing.T) {
		w := postWebhook(r, bytes.Repeat([]byte("a"), maxWebhookPayloadSize+1), "t=1,v1=x")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("signed checkout upgrades the organization", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   raw,
			Secret:    billingTestSecret,
			Timestamp: time.Now(),
		})
		w := postWebhook(r, signed.Payload, signed.Header)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp StripeWebhookResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Received)
		assert.Equal(t, "evt_handler_1", resp.EventID)

		var org identity.Organization
		require.NoError(t, env.db.First(&org, "id = ?", env.org.ID).Error)
		assert.Equal(t, identity.PlanTypePro, org.PlanType)
		assert.Equal(t, "cus_handler", org.StripeCustomerID)
	})
}
