package membership

import (
	"context"
	"errors"
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipService manages tiers and patient subscriptions
type MembershipService struct {
	tierRepo         membership.TierRepository
	subscriptionRepo membership.SubscriptionRepository
	patientRepo      partner.PatientRepository
	productRepo      catalog.ProductRepository
	eventPublisher   shared.EventPublisher
	logger           *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	tierRepo membership.TierRepository,
	subscriptionRepo membership.SubscriptionRepository,
	patientRepo partner.PatientRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		tierRepo:         tierRepo,
		subscriptionRepo: subscriptionRepo,
		patientRepo:      patientRepo,
		productRepo:      productRepo,
		logger:           logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MembershipService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateTier creates a tier with its benefits. Products named by
// FREE_PRODUCT benefits must exist.
func (s *MembershipService) CreateTier(ctx context.Context, tenantID uuid.UUID, req CreateTierRequest) (*TierResponse, error) {
	specs := make([]membership.BenefitSpec, len(req.Benefits))
	for i, b := range req.Benefits {
		specs[i] = membership.BenefitSpec{
			Name:        b.Name,
			Description: b.Description,
			BenefitType: membership.BenefitType(b.BenefitType),
			Value:       b.Value,
			ProductID:   b.ProductID,
		}
	}
	tier, err := membership.NewTier(tenantID, req.Name, req.Description, req.Price, membership.Frequency(req.Frequency), specs)
	if err != nil {
		return nil, err
	}

	if ids := tier.FreeProductIDs(); len(ids) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		found := make(map[uuid.UUID]bool, len(products))
		for i := range products {
			found[products[i].ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, shared.NotFound("Product")
			}
		}
	}

	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return nil, err
	}
	s.logger.Info("Membership tier created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tier", tier.Name),
		zap.Int("benefits", len(tier.Benefits)),
	)
	resp := ToTierResponse(tier, 0)
	return &resp, nil
}

// ListTiers returns every tier, newest first, with its active subscription count
func (s *MembershipService) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]TierResponse, error) {
	tiers, err := s.tierRepo.FindAll(ctx, tenantID, shared.Filter{OrderBy: "created_at", OrderDir: "desc"})
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return []TierResponse{}, nil
	}
	ids := make([]uuid.UUID, len(tiers))
	for i := range tiers {
		ids[i] = tiers[i].ID
	}
	counts, err := s.tierRepo.CountActiveSubscriptions(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	responses := make([]TierResponse, len(tiers))
	for i := range tiers {
		responses[i] = ToTierResponse(&tiers[i], counts[tiers[i].ID])
	}
	return responses, nil
}

// Subscribe enrols a patient in a tier. A patient holds at most one ACTIVE
// subscription per tier.
func (s *MembershipService) Subscribe(ctx context.Context, tenantID, tierID uuid.UUID, req SubscribeRequest) (*SubscriptionResponse, error) {
	tier, err := s.tierRepo.FindByID(ctx, tenantID, tierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Membership tier")
		}
		return nil, err
	}
	if _, err := s.patientRepo.FindByID(ctx, tenantID, req.PatientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Patient")
		}
		return nil, err
	}
	exists, err := s.subscriptionRepo.ExistsActive(ctx, tenantID, tierID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Patient already has an active subscription to this tier")
	}

	var start time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}
	sub, err := membership.Subscribe(tier, req.PatientID, start)
	if err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Patient subscribed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tier_id", tierID.String()),
		zap.String("patient_id", req.PatientID.String()),
	)
	s.publish(ctx, sub)
	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// CancelSubscription cancels an ACTIVE subscription
func (s *MembershipService) CancelSubscription(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Subscription")
		}
		return nil, err
	}
	if err := sub.Cancel(); err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return nil, err
	}
	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// ListSubscriptions returns the subscriptions of a tier
func (s *MembershipService) ListSubscriptions(ctx context.Context, tenantID, tierID uuid.UUID) ([]SubscriptionResponse, error) {
	if _, err := s.tierRepo.FindByID(ctx, tenantID, tierID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Membership tier")
		}
		return nil, err
	}
	subs, err := s.subscriptionRepo.FindByTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	responses := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		responses[i] = ToSubscriptionResponse(&subs[i])
	}
	return responses, nil
}

func (s *MembershipService) publish(ctx context.Context, sub *membership.Subscription) {
	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish membership events", zap.Error(err))
	}
}
