package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	billingapp "github.com/clinicledger/backend/internal/application/billing"
	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

func testConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_123456789",
		PriceID:       "price_pro_test",
	}
}

func setupHTTPMockServer(t *testing.T, handler http.HandlerFunc) *stripe.Backends {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func TestNewStripeCheckoutGateway_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.StripeConfig)
		expectedErr string
	}{
		{"missing secret key", func(c *config.StripeConfig) { c.SecretKey = "" }, "secret key is required"},
		{"publishable key", func(c *config.StripeConfig) { c.SecretKey = "pk_test_1" }, "unexpected format"},
		{"missing price", func(c *config.StripeConfig) { c.PriceID = "" }, "price id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			gateway, err := NewStripeCheckoutGateway(cfg, nil, zap.NewNop())

			assert.Nil(t, gateway)
			assert.ErrorContains(t, err, tt.expectedErr)
		})
	}
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	backends := setupHTTPMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "price_pro_test", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "owner@clinic.test", r.PostForm.Get("customer_email"))
		assert.Equal(t, "https://app.example.com/dashboard?success=true", r.PostForm.Get("success_url"))
		assert.Equal(t, "tenant-1", r.PostForm.Get("metadata[tenantId]"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cs_test_1",
			"object": "checkout.session",
			"url":    "https://checkout.stripe.com/c/pay/cs_test_1",
		})
	})
	gateway, err := NewStripeCheckoutGateway(testConfig(), backends, zap.NewNop())
	require.NoError(t, err)

	url, err := gateway.CreateCheckoutSession(context.Background(), billingapp.CheckoutInput{
		CustomerEmail: "owner@clinic.test",
		SuccessURL:    "https://app.example.com/dashboard?success=true",
		CancelURL:     "https://app.example.com/pricing",
		Metadata:      map[string]string{billingapp.MetadataTenantID: "tenant-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)
}

func TestCreateCheckoutSession_StripeError(t *testing.T) {
	backends := setupHTTPMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "No such price: 'price_pro_test'",
			},
		})
	})
	gateway, err := NewStripeCheckoutGateway(testConfig(), backends, zap.NewNop())
	require.NoError(t, err)

	url, err := gateway.CreateCheckoutSession(context.Background(), billingapp.CheckoutInput{
		SuccessURL: "https://app.example.com/dashboard?success=true",
		CancelURL:  "https://app.example.com/pricing",
	})

	assert.Empty(t, url)
	assert.ErrorContains(t, err, "failed to create checkout session")
}
