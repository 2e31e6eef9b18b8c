package persistence

import (
	"context"
	"testing"

	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrganizationRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormOrganizationRepository(db)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	var created []uuid.UUID
	for _, name := range []string{"North Clinic", "South Clinic"} {
		org, err := identity.NewOrganization(name)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, org))
		created = append(created, org.ID)
	}

	ids, err = repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, created, ids)

	found, err := repo.FindByID(ctx, created[0])
	require.NoError(t, err)
	assert.Equal(t, "North Clinic", found.Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
