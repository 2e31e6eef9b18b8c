package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindDestination(ctx context.Context, tenantID, productID uuid.UUID, lotNumber string, locationID uuid.UUID, subLocationID *uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, productID, lotNumber, locationID, subLocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) FindExpiring(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, cutoff)
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) SumOnHandByProduct(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, productIDs)
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, item *inventory.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

type MockHeaderRepository struct {
	mock.Mock
}

func (m *MockHeaderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryHeader, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryHeader), args.Error(1)
}

func (m *MockHeaderRepository) Save(ctx context.Context, header *inventory.InventoryHeader) error {
	return m.Called(ctx, header).Error(0)
}

func (m *MockHeaderRepository) CountItems(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Save(ctx context.Context, transfer *inventory.InventoryTransfer) error {
	return m.Called(ctx, transfer).Error(0)
}

func (m *MockTransferRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransfer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.InventoryTransfer), args.Error(1)
}

func (m *MockTransferRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockDispenseRepository struct {
	mock.Mock
}

func (m *MockDispenseRepository) Save(ctx context.Context, dispense *inventory.InventoryDispense) error {
	return m.Called(ctx, dispense).Error(0)
}

func (m *MockDispenseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryDispense, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.InventoryDispense), args.Error(1)
}

func (m *MockDispenseRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, entries []*inventory.InventoryTransaction) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *MockTransactionRepository) FindByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	args := m.Called(ctx, tenantID, inventoryItemID, filter)
	return args.Get(0).([]inventory.InventoryTransaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, inventoryItemID)
	return args.Get(0).(int64), args.Error(1)
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

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*location.Location, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*location.Location), args.Error(1)
}

func (m *MockLocationRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.Location, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]location.Location), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, loc *location.Location) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockLocationRepository) FindSubLocationByID(ctx context.Context, tenantID, id uuid.UUID) (*location.SubLocation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*location.SubLocation), args.Error(1)
}

func (m *MockLocationRepository) FindSubLocationsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]location.SubLocation, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]location.SubLocation), args.Error(1)
}

func (m *MockLocationRepository) FindSubLocations(ctx context.Context, tenantID, locationID uuid.UUID) ([]location.SubLocation, error) {
	args := m.Called(ctx, tenantID, locationID)
	return args.Get(0).([]location.SubLocation), args.Error(1)
}

func (m *MockLocationRepository) ExistsSubLocationCode(ctx context.Context, tenantID, locationID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, locationID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocationRepository) SaveSubLocation(ctx context.Context, sub *location.SubLocation) error {
	return m.Called(ctx, sub).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByExternalID(ctx context.Context, externalID string) (*identity.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*identity.User, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockEventPublisher records published events
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
