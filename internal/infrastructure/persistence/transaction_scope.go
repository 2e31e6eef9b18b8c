package persistence

import (
	"context"

	appcatalog "github.com/clinicledger/backend/internal/application/catalog"
	appidentity "github.com/clinicledger/backend/internal/application/identity"
	appinv "github.com/clinicledger/backend/internal/application/inventory"
	apptrade "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope runs a callback inside one GORM transaction and hands
// it repositories bound to that transaction. One value serves every service
// that writes more than one row.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(repos *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Inventory adapts the scope to the inventory service.
func (s *GormTransactionScope) Inventory() appinv.TransactionScope {
	return inventoryScope{s}
}

// Trade adapts the scope to the invoice and purchase order services.
func (s *GormTransactionScope) Trade() apptrade.TransactionScope {
	return tradeScope{s}
}

// Identity adapts the scope to the auth service.
func (s *GormTransactionScope) Identity() appidentity.TransactionScope {
	return identityScope{s}
}

// Catalog adapts the scope to the product service.
func (s *GormTransactionScope) Catalog() appcatalog.TransactionScope {
	return catalogScope{s}
}

type catalogScope struct{ *GormTransactionScope }

func (s catalogScope) Execute(ctx context.Context, fn func(repos appcatalog.TransactionalRepositories) error) error {
	return s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type inventoryScope struct{ *GormTransactionScope }

func (s inventoryScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type tradeScope struct{ *GormTransactionScope }

func (s tradeScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type identityScope struct{ *GormTransactionScope }

func (s identityScope) Execute(ctx context.Context, fn func(repos appidentity.TransactionalRepositories) error) error {
	return s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) ItemRepo() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) HeaderRepo() inventory.InventoryHeaderRepository {
	return NewGormInventoryHeaderRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransferRepo() inventory.InventoryTransferRepository {
	return NewGormInventoryTransferRepository(r.tx)
}

func (r *gormTransactionalRepositories) DispenseRepo() inventory.InventoryDispenseRepository {
	return NewGormInventoryDispenseRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransactionRepo() inventory.InventoryTransactionRepository {
	return NewGormInventoryTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceRepo() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrganizationRepo() identity.OrganizationRepository {
	return NewGormOrganizationRepository(r.tx)
}

func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

var (
	_ appcatalog.TransactionalRepositories  = (*gormTransactionalRepositories)(nil)
	_ appinv.TransactionalRepositories      = (*gormTransactionalRepositories)(nil)
	_ apptrade.TransactionalRepositories    = (*gormTransactionalRepositories)(nil)
	_ appidentity.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
