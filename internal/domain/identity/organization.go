package identity

import (
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus is the billing state of an organization.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusInactive SubscriptionStatus = "INACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// PlanType is the commercial plan an organization is on.
type PlanType string

const (
	PlanTypeFree PlanType = "FREE"
	PlanTypePro  PlanType = "PRO"
)

// Organization is the tenant. Every other tenant-owned record carries its ID
// as tenant_id.
type Organization struct {
	shared.BaseAggregateRoot
	Name               string             `gorm:"type:varchar(200);not null" json:"name"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"subscriptionStatus"`
	PlanType           PlanType           `gorm:"type:varchar(20);not null;default:'FREE'" json:"planType"`
	StripeCustomerID   string             `gorm:"type:varchar(100)" json:"stripeCustomerId,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates an active organization on the free plan.
func NewOrganization(name string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Organization name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.InvalidInput("Organization name cannot exceed 200 characters")
	}
	org := &Organization{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		SubscriptionStatus: SubscriptionStatusActive,
		PlanType:           PlanTypeFree,
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// DefaultOrganizationName names the organization created on first sign-in.
func DefaultOrganizationName(firstName string) string {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return "My Organization"
	}
	return firstName + "'s Organization"
}

// TenantID returns the organization ID, which doubles as the tenant ID.
func (o *Organization) TenantID() uuid.UUID {
	return o.ID
}

// Upgrade moves the organization to the paid plan after a completed checkout.
func (o *Organization) Upgrade(stripeCustomerID string) {
	o.PlanType = PlanTypePro
	o.SubscriptionStatus = SubscriptionStatusActive
	if stripeCustomerID != "" {
		o.StripeCustomerID = stripeCustomerID
	}
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrganizationUpgradedEvent(o))
}

// IsPro reports whether the organization is on the paid plan.
func (o *Organization) IsPro() bool {
	return o.PlanType == PlanTypePro && o.SubscriptionStatus == SubscriptionStatusActive
}
