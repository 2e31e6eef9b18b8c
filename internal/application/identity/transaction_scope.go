package identity

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/identity"
)

// TransactionScope runs organization and user writes in one transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are bound to the running transaction.
type TransactionalRepositories interface {
	OrganizationRepo() identity.OrganizationRepository
	UserRepo() identity.UserRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing.
type NoOpTransactionScope struct {
	orgRepo  identity.OrganizationRepository
	userRepo identity.UserRepository
}

func NewNoOpTransactionScope(orgRepo identity.OrganizationRepository, userRepo identity.UserRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{orgRepo: orgRepo, userRepo: userRepo}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) OrganizationRepo() identity.OrganizationRepository {
	return s.orgRepo
}

func (s *NoOpTransactionScope) UserRepo() identity.UserRepository {
	return s.userRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
