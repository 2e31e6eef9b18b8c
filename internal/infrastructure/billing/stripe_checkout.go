// Package billing talks to Stripe on behalf of the billing application
// service.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	billingapp "github.com/clinicledger/backend/internal/application/billing"
	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

// StripeCheckoutGateway opens one-off checkout sessions for the paid plan.
type StripeCheckoutGateway struct {
	api     *client.API
	priceID string
	logger  *zap.Logger
}

// NewStripeCheckoutGateway creates a gateway. A nil backends value uses the
// default Stripe endpoints.
func NewStripeCheckoutGateway(cfg config.StripeConfig, backends *stripe.Backends, logger *zap.Logger) (*StripeCheckoutGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, errors.New("stripe: secret key has an unexpected format")
	}
	if cfg.PriceID == "" {
		return nil, errors.New("stripe: price id is required")
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &StripeCheckoutGateway{api: api, priceID: cfg.PriceID, logger: logger}, nil
}

// CreateCheckoutSession creates a hosted checkout page and returns its URL.
func (g *StripeCheckoutGateway) CreateCheckoutSession(ctx context.Context, input billingapp.CheckoutInput) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(g.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}
	params.Context = ctx
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe checkout session",
			zap.String("tenant_id", input.Metadata[billingapp.MetadataTenantID]),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	g.logger.Debug("Created Stripe checkout session", zap.String("session_id", sess.ID))
	return sess.URL, nil
}

var _ billingapp.CheckoutGateway = (*StripeCheckoutGateway)(nil)
