package membership

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BenefitRequest is one benefit of a new tier
type BenefitRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	BenefitType string          `json:"benefitType" binding:"required,oneof=DISCOUNT_PERCENTAGE DISCOUNT_FIXED FREE_PRODUCT FREE_SERVICE"`
	Value       decimal.Decimal `json:"value" binding:"decimal_gte0"`
	ProductID   *uuid.UUID      `json:"productId"`
}

// CreateTierRequest creates a membership tier
type CreateTierRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	Price       decimal.Decimal  `json:"price" binding:"decimal_gte0"`
	Frequency   string           `json:"frequency" binding:"required,oneof=MONTHLY ANNUALLY"`
	Benefits    []BenefitRequest `json:"benefits" binding:"dive"`
}

// SubscribeRequest enrols a patient in a tier
type SubscribeRequest struct {
	PatientID uuid.UUID  `json:"patientId" binding:"required"`
	StartDate *time.Time `json:"startDate"`
}

// BenefitResponse represents a tier benefit
type BenefitResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BenefitType string          `json:"benefitType"`
	Value       decimal.Decimal `json:"value"`
	ProductID   *uuid.UUID      `json:"productId,omitempty"`
}

// TierResponse represents a tier with its benefits
type TierResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Price               decimal.Decimal   `json:"price"`
	Frequency           string            `json:"frequency"`
	Benefits            []BenefitResponse `json:"benefits"`
	ActiveSubscriptions int64             `json:"activeSubscriptions"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// SubscriptionResponse represents a subscription
type SubscriptionResponse struct {
	ID          uuid.UUID  `json:"id"`
	TierID      uuid.UUID  `json:"tierId"`
	PatientID   uuid.UUID  `json:"patientId"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"startDate"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// ToTierResponse converts a tier
func ToTierResponse(t *membership.Tier, active int64) TierResponse {
	benefits := make([]BenefitResponse, len(t.Benefits))
	for i, b := range t.Benefits {
		benefits[i] = BenefitResponse{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			BenefitType: string(b.BenefitType),
			Value:       b.Value,
			ProductID:   b.ProductID,
		}
	}
	return TierResponse{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		Price:               t.Price,
		Frequency:           string(t.Frequency),
		Benefits:            benefits,
		ActiveSubscriptions: active,
		CreatedAt:           t.CreatedAt,
	}
}

// ToSubscriptionResponse converts a subscription
func ToSubscriptionResponse(s *membership.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		TierID:      s.TierID,
		PatientID:   s.PatientID,
		Status:      string(s.Status),
		StartDate:   s.StartDate,
		CancelledAt: s.CancelledAt,
	}
}
