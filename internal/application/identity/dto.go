package identity

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// SyncUserInput is the verified identity provider profile.
type SyncUserInput struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
	Role     identity.Role
	ViaKey   bool
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenantId"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       string    `json:"role"`
	QuotaLimit int       `json:"quotaLimit"`
	HasAPIKey  bool      `json:"hasApiKey"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	PlanType           string    `json:"planType"`
	CreatedAt          time.Time `json:"createdAt"`
}

// SyncUserResponse is returned by the sync endpoint.
type SyncUserResponse struct {
	IsSynced     bool                 `json:"isSynced"`
	Created      bool                 `json:"created"`
	User         UserResponse         `json:"user"`
	Organization OrganizationResponse `json:"organization"`
}

// MeResponse is the current user with their organization.
type MeResponse struct {
	User         UserResponse         `json:"user"`
	Organization OrganizationResponse `json:"organization"`
}

// APIKeyResponse carries a freshly generated key. It is shown once.
type APIKeyResponse struct {
	APIKey string `json:"apiKey"`
}

func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		TenantID:   u.TenantID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       string(u.Role),
		QuotaLimit: u.QuotaLimit,
		HasAPIKey:  u.APIKeyHash != "",
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func ToOrganizationResponse(o *identity.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                 o.ID,
		Name:               o.Name,
		SubscriptionStatus: string(o.SubscriptionStatus),
		PlanType:           string(o.PlanType),
		CreatedAt:          o.CreatedAt,
	}
}
