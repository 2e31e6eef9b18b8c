package membership

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is how often a membership is billed.
type Frequency string

const (
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyAnnually Frequency = "ANNUALLY"
)

func (f Frequency) IsValid() bool {
	return f == FrequencyMonthly || f == FrequencyAnnually
}

// BenefitType is the kind of perk a tier grants.
type BenefitType string

const (
	BenefitDiscountPercentage BenefitType = "DISCOUNT_PERCENTAGE"
	BenefitDiscountFixed      BenefitType = "DISCOUNT_FIXED"
	BenefitFreeProduct        BenefitType = "FREE_PRODUCT"
	BenefitFreeService        BenefitType = "FREE_SERVICE"
)

func (b BenefitType) IsValid() bool {
	switch b {
	case BenefitDiscountPercentage, BenefitDiscountFixed, BenefitFreeProduct, BenefitFreeService:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Benefit is one perk of a tier.
type Benefit struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TierID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tierId"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	BenefitType BenefitType     `gorm:"type:varchar(30);not null" json:"benefitType"`
	Value       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"productId,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"createdAt"`
}

func (Benefit) TableName() string {
	return "membership_benefits"
}

// BenefitSpec is the input for one benefit.
type BenefitSpec struct {
	Name        string
	Description string
	BenefitType BenefitType
	Value       decimal.Decimal
	ProductID   *uuid.UUID
}

func newBenefit(tierID uuid.UUID, spec BenefitSpec) (*Benefit, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, shared.InvalidInput("Benefit name cannot be empty")
	}
	if !spec.BenefitType.IsValid() {
		return nil, shared.InvalidInput("Invalid benefit type")
	}
	if spec.Value.IsNegative() {
		return nil, shared.InvalidInput("Benefit value cannot be negative")
	}
	if spec.BenefitType == BenefitDiscountPercentage && spec.Value.GreaterThan(hundred) {
		return nil, shared.InvalidInput("Percentage discount cannot exceed 100")
	}
	if spec.BenefitType == BenefitFreeProduct && (spec.ProductID == nil || *spec.ProductID == uuid.Nil) {
		return nil, shared.InvalidInput("Free product benefit requires a product")
	}
	return &Benefit{
		ID:          uuid.New(),
		TierID:      tierID,
		Name:        name,
		Description: spec.Description,
		BenefitType: spec.BenefitType,
		Value:       spec.Value,
		ProductID:   spec.ProductID,
		CreatedAt:   time.Now(),
	}, nil
}

// Tier is a membership plan that patients can subscribe to.
type Tier struct {
	shared.TenantAggregateRoot
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Frequency   Frequency       `gorm:"type:varchar(20);not null" json:"frequency"`
	Benefits    []Benefit       `gorm:"foreignKey:TierID;references:ID" json:"benefits"`
}

func (Tier) TableName() string {
	return "membership_tiers"
}

// NewTier creates a tier with its benefits.
func NewTier(tenantID uuid.UUID, name, description string, price decimal.Decimal, frequency Frequency, benefits []BenefitSpec) (*Tier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.InvalidInput("Price cannot be negative")
	}
	if !frequency.IsValid() {
		return nil, shared.InvalidInput("Frequency must be MONTHLY or ANNUALLY")
	}
	t := &Tier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         description,
		Price:               price,
		Frequency:           frequency,
		Benefits:            make([]Benefit, 0, len(benefits)),
	}
	for i, spec := range benefits {
		b, err := newBenefit(t.ID, spec)
		if err != nil {
			return nil, fmt.Errorf("benefit %d: %w", i+1, err)
		}
		t.Benefits = append(t.Benefits, *b)
	}
	return t, nil
}

// FreeProductIDs lists the products granted by FREE_PRODUCT benefits.
func (t *Tier) FreeProductIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, b := range t.Benefits {
		if b.BenefitType == BenefitFreeProduct && b.ProductID != nil {
			ids = append(ids, *b.ProductID)
		}
	}
	return ids
}
