package membership

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TierRepository persists tiers with their benefits.
type TierRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Tier, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Tier, error)
	Create(ctx context.Context, tier *Tier) error

	// CountActiveSubscriptions returns ACTIVE subscription counts keyed by tier.
	CountActiveSubscriptions(ctx context.Context, tenantID uuid.UUID, tierIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)
	FindByTier(ctx context.Context, tenantID, tierID uuid.UUID) ([]Subscription, error)
	ExistsActive(ctx context.Context, tenantID, tierID, patientID uuid.UUID) (bool, error)
	Save(ctx context.Context, s *Subscription) error
}
