package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clinicledger/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type scopedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string
}

func (scopedRow) TableName() string {
	return "scoped_rows"
}

type globalRow struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func (globalRow) TableName() string {
	return "global_rows"
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func tenantContext(tenantID string) context.Context {
	ctx, _ := logger.WithTenant(context.Background(), zap.NewNop(), tenantID, "")
	return ctx
}

func TestScope(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "scoped_rows" WHERE "scoped_rows"."tenant_id" = \$1`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var rows []scopedRow
	err := db.Scopes(Scope(tenantID)).Find(&rows).Error

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFromContext(t *testing.T) {
	id := uuid.New()

	got, err := FromContext(tenantContext(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = FromContext(context.Background())
	assert.ErrorIs(t, err, ErrTenantIDRequired)

	_, err = FromContext(tenantContext("not-a-uuid"))
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}

func TestAutoTenantFilter(t *testing.T) {
	t.Run("adds tenant from context", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, true)
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "scoped_rows" WHERE "scoped_rows"."tenant_id" = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var rows []scopedRow
		err := db.WithContext(tenantContext(tenantID.String())).Find(&rows).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps explicit tenant condition", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, true)
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "scoped_rows" WHERE tenant_id = \$1$`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var rows []scopedRow
		err := db.WithContext(tenantContext(uuid.NewString())).Where("tenant_id = ?", tenantID).Find(&rows).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips tables without a tenant column", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, true)

		mock.ExpectQuery(`SELECT \* FROM "global_rows"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		var rows []globalRow
		err := db.WithContext(context.Background()).Find(&rows).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("required tenant missing", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, true)

		var rows []scopedRow
		err := db.WithContext(context.Background()).Find(&rows).Error

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("invalid tenant is rejected even when optional", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, false)

		var rows []scopedRow
		err := db.WithContext(tenantContext("bad")).Find(&rows).Error

		assert.ErrorIs(t, err, ErrInvalidTenantID)
	})

	t.Run("disabled", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		EnableAutoTenantFilter(db, true)
		DisableAutoTenantFilter(db)

		mock.ExpectQuery(`SELECT \* FROM "scoped_rows"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var rows []scopedRow
		err := db.WithContext(context.Background()).Find(&rows).Error

		require.NoError(t, err)
	})
}
