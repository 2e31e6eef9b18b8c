package main

//go:generate swag init -d ../../ -g cmd/server/main.go -o ../../docs --v3.1 --parseInternal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/clinicledger/backend/internal/application/billing"
	catalogapp "github.com/clinicledger/backend/internal/application/catalog"
	identityapp "github.com/clinicledger/backend/internal/application/identity"
	inventoryapp "github.com/clinicledger/backend/internal/application/inventory"
	locationapp "github.com/clinicledger/backend/internal/application/location"
	membershipapp "github.com/clinicledger/backend/internal/application/membership"
	partnerapp "github.com/clinicledger/backend/internal/application/partner"
	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/auth"
	"github.com/clinicledger/backend/internal/infrastructure/billing"
	"github.com/clinicledger/backend/internal/infrastructure/cache"
	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/clinicledger/backend/internal/infrastructure/event"
	"github.com/clinicledger/backend/internal/infrastructure/logger"
	"github.com/clinicledger/backend/internal/infrastructure/mail"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/internal/infrastructure/printing"
	"github.com/clinicledger/backend/internal/infrastructure/scheduler"
	"github.com/clinicledger/backend/internal/infrastructure/storage"
	"github.com/clinicledger/backend/internal/infrastructure/telemetry"
	"github.com/clinicledger/backend/internal/interfaces/http/handler"
	"github.com/clinicledger/backend/internal/interfaces/http/middleware"
	"github.com/clinicledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/clinicledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Clinic Ledger API
//	@version		1.0
//	@description	Multi-tenant inventory, invoicing and purchasing for clinics

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity provider session token or personal API key. Format: "Bearer {token}"

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logOpts := logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	}
	bootLog, err := logger.New(logOpts)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Log records also go to the collector when log export is on.
	log, err := logger.New(logOpts, providers.Logs.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting clinic ledger",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	patientRepo := persistence.NewGormPatientRepository(db.DB)
	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	headerRepo := persistence.NewGormInventoryHeaderRepository(db.DB)
	ledgerRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	tierRepo := persistence.NewGormTierRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Documents, storage and mail
	location, err := time.LoadLocation(cfg.Printing.OrganizationTZ)
	if err != nil {
		log.Fatal("Invalid printing.timezone", zap.String("timezone", cfg.Printing.OrganizationTZ), zap.Error(err))
	}
	templates, err := printing.NewTemplateEngine(printing.WithLocation(location))
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}
	chrome := printing.NewChromedpRenderer(cfg.Printing, log)
	defer func() {
		if err := chrome.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	renderer := printing.NewDocumentRenderer(templates, chrome)

	documentStore := newDocumentStore(ctx, cfg, log)
	mailer := newMailer(cfg, log)

	// Application services
	inventoryService := inventoryapp.NewInventoryService(txScope.Inventory(), inventoryapp.Repositories{
		Items:        itemRepo,
		Headers:      headerRepo,
		Transfers:    persistence.NewGormInventoryTransferRepository(db.DB),
		Dispenses:    persistence.NewGormInventoryDispenseRepository(db.DB),
		Transactions: ledgerRepo,
	}, productRepo, locationRepo, userRepo, log)
	tradeRepos := tradeapp.Repositories{
		Invoices:       invoiceRepo,
		PurchaseOrders: orderRepo,
		Items:          itemRepo,
		Headers:        headerRepo,
		Transactions:   ledgerRepo,
	}
	invoiceService := tradeapp.NewInvoiceService(txScope.Trade(), tradeRepos,
		productRepo, patientRepo, locationRepo, orgRepo, renderer, log)
	orderService := tradeapp.NewPurchaseOrderService(txScope.Trade(), tradeRepos, tradeapp.PurchaseOrderDeps{
		ProductRepo:  productRepo,
		VendorRepo:   vendorRepo,
		LocationRepo: locationRepo,
		OrgRepo:      orgRepo,
		Renderer:     renderer,
		Store:        documentStore,
		Mailer:       mailer,
	}, log)
	productService := catalogapp.NewProductService(productRepo, itemRepo, log)
	productService.SetTransactionScope(txScope.Catalog())
	membershipService := membershipapp.NewMembershipService(tierRepo, subscriptionRepo, patientRepo, productRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(txScope.Identity(), userRepo, orgRepo, jwtService, log)
	billingService := billingapp.NewBillingService(billingapp.BillingServiceConfig{
		Gateway:       newCheckoutGateway(cfg, log),
		OrgRepo:       orgRepo,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		AppURL:        cfg.App.BaseURL,
		Logger:        log,
	})

	// Domain events: in-process bus, with metrics and the optional Kafka feed
	// subscribed as wildcard handlers.
	eventBus := event.NewInMemoryEventBus(log)
	clinicMetrics, err := telemetry.NewClinicMetrics(providers.Meter.Meter("clinic-ledger"))
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}
	eventBus.Subscribe(clinicMetrics)

	if cfg.Event.KafkaEnabled {
		writer, err := event.NewKafkaWriter(cfg.Event)
		if err != nil {
			log.Fatal("Failed to create Kafka writer", zap.Error(err))
		}
		serializer := event.NewEventSerializer()
		event.RegisterAllEvents(serializer)
		forwarder := event.NewKafkaForwarder(writer, serializer, cfg.Event.KafkaWriteTimeout, log)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka writer", zap.Error(err))
			}
		}()
		eventBus.Subscribe(forwarder)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	for _, svc := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{inventoryService, invoiceService, orderService, productService, membershipService, authService, billingService} {
		svc.SetEventPublisher(eventBus)
	}

	if cfg.Scheduler.Enabled {
		stopJobs, err := startBackgroundJobs(ctx, cfg.Scheduler, orgRepo, itemRepo, eventBus, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer stopJobs()
	}

	// HTTP handlers
	handlers := router.Handlers{
		System:        handler.NewSystemHandler(cfg.App.Name, serviceVersion, sqlDB),
		Auth:          handler.NewAuthHandler(authService),
		Billing:       handler.NewBillingHandler(billingService),
		Product:       handler.NewProductHandler(productService),
		Location:      handler.NewLocationHandler(locationapp.NewLocationService(locationRepo)),
		Vendor:        handler.NewVendorHandler(partnerapp.NewVendorService(vendorRepo)),
		Patient:       handler.NewPatientHandler(partnerapp.NewPatientService(patientRepo, invoiceRepo)),
		Inventory:     handler.NewInventoryHandler(inventoryService),
		Invoice:       handler.NewInvoiceHandler(invoiceService),
		PurchaseOrder: handler.NewPurchaseOrderHandler(orderService),
		Membership:    handler.NewMembershipHandler(membershipService),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID, then logging and recovery which read it
	// 2. Tracing so handler spans nest under the request span
	// 3. Security headers, CORS, body limit, rate limit
	// 4. HTTP metrics per route
	quietPaths := []string{"/api/v1/health"}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, quietPaths...))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   quietPaths,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	httpMetrics, err := middleware.HTTPMetrics(providers.Meter.Meter("clinic-ledger/http"))
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Authenticator: authService,
		Logger:        log,
	})

	var stockGuard gin.HandlerFunc
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
		).CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		stockGuard = middleware.Idempotency(store, cfg.Idempotency.TTL)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithAuth(
		authMiddleware,
		middleware.TracingAttributeInjector(),
		middleware.Profiling(providers.Profiler.IsEnabled()),
	))
	for _, group := range router.PublicGroups(handlers) {
		r.Public(group)
	}
	for _, group := range router.ProtectedGroups(handlers, stockGuard) {
		r.Register(group)
	}
	r.Setup()

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.IsProduction(),
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// startBackgroundJobs runs the daily expiry scan for every organization. The
// returned func stops the trigger before the workers.
func startBackgroundJobs(
	ctx context.Context,
	cfg config.SchedulerConfig,
	tenants scheduler.TenantLister,
	stock scheduler.ExpiringStock,
	publisher shared.EventPublisher,
	log *zap.Logger,
) (func(), error) {
	jobLog := log.Named("scheduler")
	window := time.Duration(cfg.ExpiryWindowDays) * 24 * time.Hour
	executor := scheduler.NewExpiryScanExecutor(stock, publisher, window, jobLog)

	poolCfg := scheduler.DefaultConfig()
	poolCfg.Workers = cfg.Workers
	poolCfg.JobTimeout = cfg.JobTimeout
	poolCfg.RetryAttempts = cfg.RetryAttempts
	poolCfg.RetryDelay = cfg.RetryDelay
	pool, err := scheduler.NewScheduler(poolCfg, executor, jobLog)
	if err != nil {
		return nil, err
	}
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	triggerCfg := scheduler.DefaultCronTriggerConfig()
	triggerCfg.Hour = cfg.DailyHour
	triggerCfg.Minute = cfg.DailyMinute
	triggerCfg.CheckInterval = cfg.CheckInterval
	trigger := scheduler.NewCronTrigger(triggerCfg, pool, tenants, jobLog)
	if err := trigger.Start(ctx); err != nil {
		return nil, err
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
		if err := pool.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}, nil
}

// newDocumentStore returns S3 storage when configured, otherwise an
// in-memory store whose links only work inside this process.
func newDocumentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) tradeapp.DocumentStore {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, purchase order documents are kept in memory")
		store := storage.NewMemoryObjectStorage()
		store.BaseURL = "http://localhost:" + cfg.App.Port
		return store
	}
	s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare storage bucket", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
	}
	return s3Store
}

func newMailer(cfg *config.Config, log *zap.Logger) tradeapp.Mailer {
	if !cfg.Mail.Enabled {
		log.Warn("Mail disabled, outgoing emails are only logged")
		return mail.NewLogMailer(log)
	}
	resendMailer, err := mail.NewResendMailer(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to create mailer", zap.Error(err))
	}
	return resendMailer
}

// checkoutUnavailable answers checkout requests when Stripe is not configured.
type checkoutUnavailable struct{}

func (checkoutUnavailable) CreateCheckoutSession(context.Context, billingapp.CheckoutInput) (string, error) {
	return "", shared.InvalidState("Billing is not configured")
}

func newCheckoutGateway(cfg *config.Config, log *zap.Logger) billingapp.CheckoutGateway {
	gateway, err := billing.NewStripeCheckoutGateway(cfg.Stripe, nil, log)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal("Failed to create Stripe gateway", zap.Error(err))
		}
		log.Warn("Stripe checkout disabled", zap.Error(err))
		return checkoutUnavailable{}
	}
	return gateway
}
