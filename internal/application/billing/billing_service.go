package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// Metadata keys attached to checkout sessions.
const (
	MetadataUserID   = "userId"
	MetadataTenantID = "tenantId"
)

// CheckoutInput describes a hosted payment page for the paid plan.
type CheckoutInput struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutGateway creates payment sessions with the payment provider.
type CheckoutGateway interface {
	// CreateCheckoutSession returns the URL the browser should be sent to.
	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (string, error)
}

// CheckoutResponse carries the session URL
type CheckoutResponse struct {
	URL string `json:"url"`
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// BillingService upgrades organizations to the paid plan through Stripe Checkout
type BillingService struct {
	gateway        CheckoutGateway
	orgRepo        identity.OrganizationRepository
	webhookSecret  string
	appURL         string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// BillingServiceConfig contains configuration for BillingService
type BillingServiceConfig struct {
	Gateway       CheckoutGateway
	OrgRepo       identity.OrganizationRepository
	WebhookSecret string
	AppURL        string
	Logger        *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(cfg BillingServiceConfig) *BillingService {
	return &BillingService{
		gateway:       cfg.Gateway,
		orgRepo:       cfg.OrgRepo,
		webhookSecret: cfg.WebhookSecret,
		appURL:        strings.TrimRight(cfg.AppURL, "/"),
		logger:        cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateCheckout opens a checkout session for the caller's organization
func (s *BillingService) CreateCheckout(ctx context.Context, tenantID, userID uuid.UUID, email string) (*CheckoutResponse, error) {
	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutInput{
		CustomerEmail: email,
		SuccessURL:    s.appURL + "/dashboard?success=true",
		CancelURL:     s.appURL + "/pricing",
		Metadata: map[string]string{
			MetadataUserID:   userID.String(),
			MetadataTenantID: tenantID.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Checkout session created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()))
	return &CheckoutResponse{URL: url}, nil
}

// ProcessWebhook verifies and handles a Stripe webhook event
func (s *BillingService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, shared.InvalidInput("Webhook signature verification failed")
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}
	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}
	return result, nil
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	tenantID, err := uuid.Parse(session.Metadata[MetadataTenantID])
	if err != nil {
		s.logger.Warn("Checkout session without tenant metadata, skipping",
			zap.String("session_id", session.ID))
		return nil
	}

	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Acknowledge so Stripe stops retrying.
			s.logger.Warn("Organization not found for checkout session",
				zap.String("tenant_id", tenantID.String()),
				zap.String("session_id", session.ID))
			return nil
		}
		return fmt.Errorf("find organization: %w", err)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	org.Upgrade(customerID)
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return fmt.Errorf("save organization: %w", err)
	}

	s.logger.Info("Organization upgraded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID))

	events := org.GetDomainEvents()
	org.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish billing events", zap.Error(err))
		}
	}
	return nil
}
