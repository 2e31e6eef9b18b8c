package catalog

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/catalog"
)

// TransactionScope runs product writes in one transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are bound to the running transaction.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
}

// NoOpTransactionScope runs fn directly against the given repository.
// Used in tests and as the default until a real scope is set.
type NoOpTransactionScope struct {
	productRepo catalog.ProductRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(productRepo catalog.ProductRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{productRepo: productRepo}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
