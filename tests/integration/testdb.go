// Package integration runs the clinic services against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/infrastructure/migration"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/clinicledger/backend/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated clinic database.
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

func startPostgres(t *testing.T, database string) (testcontainers.Container, string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("clinic123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return container, dsn
}

// NewTestDB starts a dedicated container and applies every migration.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipInShortMode(t)

	container, dsn := startPostgres(t, "clinic_test")
	db, sqlDB := connectToDatabase(t, dsn)
	runMigrations(t, sqlDB)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB reuses one container for the package. Tests must not
// depend on the absence of other tenants' rows.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipInShortMode(t)

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dsn := startPostgres(t, "clinic_shared_test")
		sharedContainer = container
		sharedContainerDSN = dsn

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: sharedContainer,
		DSN:       sharedContainerDSN,
		t:         t,
	}
	t.Cleanup(func() {
		_ = testDB.SqlDB.Close()
	})
	return testDB
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
		sharedContainer = nil
	}
}

// Close closes the connection and terminates a dedicated container.
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates every table except the migration bookkeeping.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

func skipInShortMode(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// connectToDatabase opens a pool configured like the server's, tenant
// guard included.
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	tenant.EnableAutoTenantFilter(db, false)
	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty, "Schema left dirty at version %d", version)
}

// Tenant is one seeded organization with its owner.
type Tenant struct {
	Org  *identity.Organization
	User *identity.User
}

// ID is the organization id every row of the tenant carries.
func (tn *Tenant) ID() uuid.UUID {
	return tn.Org.ID
}

// CreateTenant seeds an organization and its owner.
func (tdb *TestDB) CreateTenant(name string) *Tenant {
	tdb.t.Helper()
	ctx := context.Background()

	org, err := identity.NewOrganization(name)
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormOrganizationRepository(tdb.DB).Save(ctx, org))

	user, err := identity.NewUser(org.ID, "ext_"+uuid.NewString(), "owner-"+uuid.NewString()[:8]+"@clinic.test", "Casey", "Morgan", identity.RoleOwner)
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormUserRepository(tdb.DB).Save(ctx, user))
	return &Tenant{Org: org, User: user}
}

// CreateProduct seeds a product priced at price.
func (tdb *TestDB) CreateProduct(tenantID uuid.UUID, name, sku string, price decimal.Decimal) *catalog.Product {
	tdb.t.Helper()

	p, err := catalog.NewProduct(tenantID, catalog.ProductSpec{
		Name:  name,
		SKU:   sku,
		Price: price,
		Cost:  price.Div(decimal.NewFromInt(2)),
	})
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormProductRepository(tdb.DB).Save(context.Background(), p))
	return p
}

// CreateLocation seeds a location.
func (tdb *TestDB) CreateLocation(tenantID uuid.UUID, name string) *location.Location {
	tdb.t.Helper()

	loc, err := location.NewLocation(tenantID, name, "")
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormLocationRepository(tdb.DB).Save(context.Background(), loc))
	return loc
}

// CreatePatient seeds a patient.
func (tdb *TestDB) CreatePatient(tenantID uuid.UUID, firstName, lastName string) *partner.Patient {
	tdb.t.Helper()

	p, err := partner.NewPatient(tenantID, partner.PatientDetails{
		FirstName: firstName,
		LastName:  lastName,
		Email:     "patient-" + uuid.NewString()[:8] + "@clinic.test",
	})
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormPatientRepository(tdb.DB).Save(context.Background(), p))
	return p
}

// CreateVendor seeds a vendor.
func (tdb *TestDB) CreateVendor(tenantID uuid.UUID, name string) *partner.Vendor {
	tdb.t.Helper()

	v, err := partner.NewVendor(tenantID, partner.VendorDetails{
		Name:  name,
		Email: "orders-" + uuid.NewString()[:8] + "@vendor.test",
	})
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormVendorRepository(tdb.DB).Save(context.Background(), v))
	return v
}
