package membership

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus is the state of a patient's membership.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription enrols a patient in a tier.
type Subscription struct {
	shared.TenantAggregateRoot
	TierID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"tierId"`
	PatientID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"patientId"`
	Status      SubscriptionStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	StartDate   time.Time          `gorm:"not null" json:"startDate"`
	CancelledAt *time.Time         `json:"cancelledAt,omitempty"`
}

func (Subscription) TableName() string {
	return "membership_subscriptions"
}

// Subscribe starts an active subscription. A zero start date means now.
func Subscribe(tier *Tier, patientID uuid.UUID, startDate time.Time) (*Subscription, error) {
	if patientID == uuid.Nil {
		return nil, shared.InvalidInput("Patient is required")
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}
	s := &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tier.TenantID),
		TierID:              tier.ID,
		PatientID:           patientID,
		Status:              SubscriptionActive,
		StartDate:           startDate,
	}
	s.AddDomainEvent(NewMembershipSubscribedEvent(s, tier.Name))
	return s, nil
}

// Cancel ends the subscription.
func (s *Subscription) Cancel() error {
	if s.Status != SubscriptionActive {
		return shared.InvalidState("Subscription is not active")
	}
	now := time.Now()
	s.Status = SubscriptionCancelled
	s.CancelledAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
	return nil
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

const EventTypeMembershipSubscribed = "MembershipSubscribed"

// MembershipSubscribedEvent is raised when a patient joins a tier.
type MembershipSubscribedEvent struct {
	shared.BaseDomainEvent
	TierID    uuid.UUID `json:"tierId"`
	TierName  string    `json:"tierName"`
	PatientID uuid.UUID `json:"patientId"`
}

func NewMembershipSubscribedEvent(s *Subscription, tierName string) *MembershipSubscribedEvent {
	return &MembershipSubscribedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipSubscribed, "Subscription", s.ID, s.TenantID),
		TierID:          s.TierID,
		TierName:        tierName,
		PatientID:       s.PatientID,
	}
}
