package persistence

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTierRepository implements TierRepository using GORM
type GormTierRepository struct {
	db *gorm.DB
}

// NewGormTierRepository creates a new GormTierRepository
func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

func orderedBenefits(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// FindByID loads a tier with its benefits
func (r *GormTierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*membership.Tier, error) {
	var tier membership.Tier
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Preload("Benefits", orderedBenefits).
		First(&tier, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tier, nil
}

// FindAll lists tiers with their benefits
func (r *GormTierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]membership.Tier, error) {
	tiers := []membership.Tier{}
	query := r.db.WithContext(ctx).Model(&membership.Tier{}).Scopes(tenant.Scope(tenantID)).
		Preload("Benefits", orderedBenefits)
	err := tierSort.apply(query, "membership_tiers", filter).Find(&tiers).Error
	return tiers, translate(err)
}

// Create inserts a tier together with its benefits
func (r *GormTierRepository) Create(ctx context.Context, tier *membership.Tier) error {
	return translate(r.db.WithContext(ctx).Create(tier).Error)
}

// CountActiveSubscriptions returns the ACTIVE subscription count per tier.
// Tiers without subscriptions are absent from the map.
func (r *GormTierRepository) CountActiveSubscriptions(ctx context.Context, tenantID uuid.UUID, tierIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(tierIDs))
	if len(tierIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TierID uuid.UUID
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&membership.Subscription{}).Scopes(tenant.Scope(tenantID)).
		Select("tier_id, COUNT(*) AS total").
		Where("tier_id IN ? AND status = ?", tierIDs, membership.SubscriptionActive).
		Group("tier_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		counts[row.TierID] = row.Total
	}
	return counts, nil
}

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription within a tenant
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*membership.Subscription, error) {
	var sub membership.Subscription
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		First(&sub, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// FindByTier lists the subscriptions of a tier, newest first
func (r *GormSubscriptionRepository) FindByTier(ctx context.Context, tenantID, tierID uuid.UUID) ([]membership.Subscription, error) {
	subs := []membership.Subscription{}
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("tier_id = ?", tierID).
		Order("start_date DESC").
		Find(&subs).Error
	return subs, translate(err)
}

// ExistsActive reports whether the patient holds an ACTIVE subscription to the tier
func (r *GormSubscriptionRepository) ExistsActive(ctx context.Context, tenantID, tierID, patientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&membership.Subscription{}).Scopes(tenant.Scope(tenantID)).
		Where("tier_id = ? AND patient_id = ? AND status = ?", tierID, patientID, membership.SubscriptionActive).
		Count(&count).Error
	return count > 0, translate(err)
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, s *membership.Subscription) error {
	return translate(r.db.WithContext(ctx).Save(s).Error)
}

var (
	_ membership.TierRepository         = (*GormTierRepository)(nil)
	_ membership.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
)
