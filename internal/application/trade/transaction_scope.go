package trade

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the trade and inventory
// repositories. Posting an invoice and receiving a purchase order both change
// documents and stock in one commit.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction.
type TransactionalRepositories interface {
	InvoiceRepo() trade.InvoiceRepository
	PurchaseOrderRepo() trade.PurchaseOrderRepository
	ItemRepo() inventory.InventoryItemRepository
	HeaderRepo() inventory.InventoryHeaderRepository
	TransactionRepo() inventory.InventoryTransactionRepository
}

// Repositories bundles the repositories used outside a transaction.
type Repositories struct {
	Invoices       trade.InvoiceRepository
	PurchaseOrders trade.PurchaseOrderRepository
	Items          inventory.InventoryItemRepository
	Headers        inventory.InventoryHeaderRepository
	Transactions   inventory.InventoryTransactionRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Used in tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InvoiceRepo() trade.InvoiceRepository {
	return s.repos.Invoices
}

func (s *NoOpTransactionScope) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return s.repos.PurchaseOrders
}

func (s *NoOpTransactionScope) ItemRepo() inventory.InventoryItemRepository {
	return s.repos.Items
}

func (s *NoOpTransactionScope) HeaderRepo() inventory.InventoryHeaderRepository {
	return s.repos.Headers
}

func (s *NoOpTransactionScope) TransactionRepo() inventory.InventoryTransactionRepository {
	return s.repos.Transactions
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
