package membership

import (
	"context"
	"sync"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTierRepository struct {
	mock.Mock
}

func (m *MockTierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*membership.Tier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Tier), args.Error(1)
}

func (m *MockTierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]membership.Tier, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]membership.Tier), args.Error(1)
}

func (m *MockTierRepository) Create(ctx context.Context, tier *membership.Tier) error {
	return m.Called(ctx, tier).Error(0)
}

func (m *MockTierRepository) CountActiveSubscriptions(ctx context.Context, tenantID uuid.UUID, tierIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, tenantID, tierIDs)
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*membership.Subscription, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByTier(ctx context.Context, tenantID, tierID uuid.UUID) ([]membership.Subscription, error) {
	args := m.Called(ctx, tenantID, tierID)
	return args.Get(0).([]membership.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ExistsActive(ctx context.Context, tenantID, tierID, patientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, tierID, patientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, s *membership.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Patient, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Patient, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partner.Patient), args.Error(1)
}

func (m *MockPatientRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPatientRepository) Save(ctx context.Context, patient *partner.Patient) error {
	return m.Called(ctx, patient).Error(0)
}

func (m *MockPatientRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}
