package identity

import (
	"github.com/clinicledger/backend/internal/domain/shared"
)

const (
	EventTypeOrganizationCreated  = "OrganizationCreated"
	EventTypeOrganizationUpgraded = "OrganizationUpgraded"
	EventTypeUserSynced           = "UserSynced"

	AggregateTypeOrganization = "Organization"
	AggregateTypeUser         = "User"
)

// OrganizationCreatedEvent is raised when a new tenant is provisioned.
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

func NewOrganizationCreatedEvent(org *Organization) *OrganizationCreatedEvent {
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, AggregateTypeOrganization, org.ID, org.ID),
		Name:            org.Name,
	}
}

// OrganizationUpgradedEvent is raised when checkout completes.
type OrganizationUpgradedEvent struct {
	shared.BaseDomainEvent
	PlanType PlanType `json:"planType"`
}

func NewOrganizationUpgradedEvent(org *Organization) *OrganizationUpgradedEvent {
	return &OrganizationUpgradedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationUpgraded, AggregateTypeOrganization, org.ID, org.ID),
		PlanType:        org.PlanType,
	}
}

// UserSyncedEvent is raised the first time an identity-provider user is seen.
type UserSyncedEvent struct {
	shared.BaseDomainEvent
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
}

func NewUserSyncedEvent(u *User) *UserSyncedEvent {
	return &UserSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserSynced, AggregateTypeUser, u.ID, u.TenantID),
		ExternalID:      u.ExternalID,
		Email:           u.Email,
	}
}
