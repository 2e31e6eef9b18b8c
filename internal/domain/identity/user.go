package identity

import (
	"net/mail"
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is a user's role inside their organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// DefaultQuotaLimit is the quota granted to a newly synced user.
const DefaultQuotaLimit = 100

// User is a person signed in through the identity provider.
type User struct {
	shared.TenantAggregateRoot
	ExternalID string `gorm:"type:varchar(100);not null;uniqueIndex" json:"externalId"`
	Email      string `gorm:"type:varchar(200);not null" json:"email"`
	FirstName  string `gorm:"type:varchar(100)" json:"firstName"`
	LastName   string `gorm:"type:varchar(100)" json:"lastName"`
	Role       Role   `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	QuotaLimit int    `gorm:"not null;default:100" json:"quotaLimit"`
	APIKeyHash string `gorm:"column:api_key_hash;type:varchar(128);index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// NewUser creates a user in the given organization.
func NewUser(tenantID uuid.UUID, externalID, email, firstName, lastName string, role Role) (*User, error) {
	if tenantID == uuid.Nil {
		return nil, shared.InvalidInput("Organization is required")
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.InvalidInput("External ID cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.InvalidInput("Invalid email address")
	}
	if !role.IsValid() {
		return nil, shared.InvalidInput("Invalid role")
	}

	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ExternalID:          externalID,
		Email:               email,
		FirstName:           strings.TrimSpace(firstName),
		LastName:            strings.TrimSpace(lastName),
		Role:                role,
		QuotaLimit:          DefaultQuotaLimit,
	}
	u.AddDomainEvent(NewUserSyncedEvent(u))
	return u, nil
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetAPIKeyHash replaces the stored API key digest.
func (u *User) SetAPIKeyHash(hash string) {
	u.APIKeyHash = hash
	u.Touch()
	u.IncrementVersion()
}

// CanManageBilling reports whether the user may start a checkout.
func (u *User) CanManageBilling() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}
