package inventory

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within a transaction.
//   - ItemRepo: lot rows; quantity changes go through SaveWithLock.
//   - TransactionRepo: append-only ledger.
//   - HeaderRepo, TransferRepo, DispenseRepo: the documents behind each movement.
type TransactionalRepositories interface {
	ItemRepo() inventory.InventoryItemRepository
	HeaderRepo() inventory.InventoryHeaderRepository
	TransferRepo() inventory.InventoryTransferRepository
	DispenseRepo() inventory.InventoryDispenseRepository
	TransactionRepo() inventory.InventoryTransactionRepository
}

// Repositories bundles the inventory repositories.
type Repositories struct {
	Items        inventory.InventoryItemRepository
	Headers      inventory.InventoryHeaderRepository
	Transfers    inventory.InventoryTransferRepository
	Dispenses    inventory.InventoryDispenseRepository
	Transactions inventory.InventoryTransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ItemRepo() inventory.InventoryItemRepository {
	return s.repos.Items
}

func (s *NoOpTransactionScope) HeaderRepo() inventory.InventoryHeaderRepository {
	return s.repos.Headers
}

func (s *NoOpTransactionScope) TransferRepo() inventory.InventoryTransferRepository {
	return s.repos.Transfers
}

func (s *NoOpTransactionScope) DispenseRepo() inventory.InventoryDispenseRepository {
	return s.repos.Dispenses
}

func (s *NoOpTransactionScope) TransactionRepo() inventory.InventoryTransactionRepository {
	return s.repos.Transactions
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
