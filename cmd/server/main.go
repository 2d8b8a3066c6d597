package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/liyaqa/backend/internal/application/billing"
	complianceapp "github.com/liyaqa/backend/internal/application/compliance"
	dunningapp "github.com/liyaqa/backend/internal/application/dunning"
	eventapp "github.com/liyaqa/backend/internal/application/event"
	featureflagapp "github.com/liyaqa/backend/internal/application/featureflag"
	identityapp "github.com/liyaqa/backend/internal/application/identity"
	membershipapp "github.com/liyaqa/backend/internal/application/membership"
	printingapp "github.com/liyaqa/backend/internal/application/printing"
	"github.com/liyaqa/backend/internal/domain/dunning"
	"github.com/liyaqa/backend/internal/infrastructure/auth"
	"github.com/liyaqa/backend/internal/infrastructure/cache"
	infracompliance "github.com/liyaqa/backend/internal/infrastructure/compliance"
	"github.com/liyaqa/backend/internal/infrastructure/config"
	"github.com/liyaqa/backend/internal/infrastructure/event"
	"github.com/liyaqa/backend/internal/infrastructure/logger"
	"github.com/liyaqa/backend/internal/infrastructure/notification"
	"github.com/liyaqa/backend/internal/infrastructure/payment"
	"github.com/liyaqa/backend/internal/infrastructure/persistence"
	infraprinting "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/liyaqa/backend/internal/infrastructure/scheduler"
	"github.com/liyaqa/backend/internal/interfaces/http/handler"
	"github.com/liyaqa/backend/internal/interfaces/http/middleware"
	"github.com/liyaqa/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/liyaqa/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Gym Platform Billing API
//	@version		1.0
//	@description	Multi-tenant gym platform backend covering membership subscriptions, invoicing, tax compliance and dunning
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/liyaqa/backend
//	@contact.email	support@gym.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

// subscriptionReactivator adapts the membership application service to the
// dunning engine's reactivation port, dropping the response payload.
type subscriptionReactivator struct {
	service *membershipapp.SubscriptionService
}

func (r *subscriptionReactivator) ReactivateFromDunning(ctx context.Context, tenantID, subscriptionID, actorID uuid.UUID) error {
	_, err := r.service.ReactivateFromDunning(ctx, tenantID, subscriptionID, actorID)
	return err
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Gym Platform Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	taxSubmissionRepo := persistence.NewGormTaxSubmissionRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	flagRepo := persistence.NewGormFeatureFlagRepository(db.DB)
	flagOverrideRepo := persistence.NewGormFlagOverrideRepository(db.DB)
	flagAuditLogRepo := persistence.NewGormFlagAuditLogRepository(db.DB)
	printTemplateRepo := persistence.NewGormPrintTemplateRepository(db.DB)
	printJobRepo := persistence.NewGormPrintJobRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	// The outbox processor reads events from the outbox_events table and publishes them to the event bus
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
	if err := outboxProcessor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxProcessorConfig.BatchSize),
		zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
	)

	// Idempotency store guards tax submissions against duplicate dispatch.
	// Redis is preferred; a single-instance deployment can fall back to memory.
	idemFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idemFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Outbound gateways. Each is optional in development: the owning service
	// reports the affected step or submission as failed when unconfigured.
	var chargeGateway dunningapp.PaymentGateway
	if cfg.Payment.StripeSecretKey != "" {
		stripeGateway, err := payment.NewStripeGateway(&payment.StripeGatewayConfig{
			SecretKey:           cfg.Payment.StripeSecretKey,
			StatementDescriptor: cfg.Payment.StatementDescriptor,
		}, log)
		if err != nil {
			log.Fatal("Failed to create Stripe gateway", zap.Error(err))
		}
		chargeGateway = stripeGateway
	} else {
		log.Warn("Stripe secret key not configured, dunning charge retries will fail")
	}

	var taxClient complianceapp.TaxAuthorityClient
	if cfg.TaxAuthority.BaseURL != "" && cfg.TaxAuthority.APIKey != "" {
		httpTaxClient, err := infracompliance.NewHTTPTaxAuthorityClient(&infracompliance.TaxAuthorityConfig{
			BaseURL: cfg.TaxAuthority.BaseURL,
			APIKey:  cfg.TaxAuthority.APIKey,
			Timeout: cfg.TaxAuthority.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to create tax authority client", zap.Error(err))
		}
		taxClient = httpTaxClient
	} else {
		log.Warn("Tax authority not configured, invoice submissions will fail")
	}

	var notifier dunningapp.NotificationDispatcher
	if cfg.Notification.EndpointURL != "" {
		webhookDispatcher, err := notification.NewWebhookDispatcher(&notification.WebhookDispatcherConfig{
			EndpointURL:   cfg.Notification.EndpointURL,
			SigningSecret: cfg.Notification.SigningSecret,
			Timeout:       cfg.Notification.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to create notification dispatcher", zap.Error(err))
		}
		notifier = webhookDispatcher
	} else {
		log.Warn("Notification endpoint not configured, dunning reminders will fail")
	}

	// Initialize application services
	subscriptionService := membershipapp.NewSubscriptionService(subscriptionRepo, contractRepo, invoiceRepo, outboxRepo, log)
	contractService := membershipapp.NewContractService(contractRepo, subscriptionRepo, outboxRepo, log)

	dunningTemplate := make(dunning.StepTemplate, 0, len(cfg.Dunning.Steps))
	for _, step := range cfg.Dunning.Steps {
		dunningTemplate = append(dunningTemplate, dunning.StepSpec{
			Kind:      dunning.StepKind(step.Kind),
			DelayDays: step.DelayDays,
		})
	}
	dunningService := dunningapp.NewDunningService(
		sequenceRepo,
		invoiceRepo,
		chargeGateway,
		notifier,
		&subscriptionReactivator{service: subscriptionService},
		outboxRepo,
		dunningapp.DunningServiceConfig{
			DefaultTemplate: dunningTemplate,
			CSMAssignee:     cfg.Dunning.CSMAssignee,
		},
		log,
	)

	invoiceService := billingapp.NewInvoiceService(
		invoiceRepo,
		taxSubmissionRepo,
		dunningService,
		outboxRepo,
		billingapp.InvoiceServiceConfig{
			PaymentTermsDays: cfg.Billing.PaymentTermsDays,
			DefaultVATRate:   decimal.NewFromFloat(cfg.Billing.VATRate),
		},
		log,
	)

	taxService := complianceapp.NewTaxSubmissionService(
		taxSubmissionRepo,
		invoiceRepo,
		taxClient,
		idempotencyStore,
		outboxRepo,
		complianceapp.TaxSubmissionConfig{
			BaseDelay:  cfg.TaxAuthority.BaseDelay,
			MaxDelay:   cfg.TaxAuthority.MaxDelay,
			MaxRetries: cfg.TaxAuthority.MaxRetries,
		},
		log,
	)

	// Identity services (auth, user, role, tenant)
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, roleRepo, jwtService, identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, roleRepo, log)
	roleService := identityapp.NewRoleService(roleRepo, userRepo, log)
	tenantService := identityapp.NewTenantService(tenantRepo, log)

	// Feature flag services (per-tenant rollout control)
	flagService := featureflagapp.NewFlagService(flagRepo, flagAuditLogRepo, outboxRepo, log)
	evaluationService := featureflagapp.NewEvaluationService(flagRepo, flagOverrideRepo, log)
	overrideService := featureflagapp.NewOverrideService(flagRepo, flagOverrideRepo, flagAuditLogRepo, outboxRepo, log)

	// Outbox operations service
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Lifecycle scheduler drives the recurring sweeps: dunning ticks, overdue
	// marking, tax submission dispatch and retry, subscription expiry.
	lifecycleScheduler := scheduler.NewLifecycleScheduler(
		subscriptionService,
		invoiceService,
		taxService,
		dunningService,
		log,
		scheduler.LifecycleSchedulerConfig{
			Enabled:              cfg.Lifecycle.Enabled,
			DunningTickInterval:  cfg.Lifecycle.DunningTickInterval,
			OverdueSweepInterval: cfg.Lifecycle.OverdueSweepInterval,
			TaxSubmitInterval:    cfg.Lifecycle.TaxSubmitInterval,
			TaxRetryInterval:     cfg.Lifecycle.TaxRetryInterval,
			ExpirySweepInterval:  cfg.Lifecycle.ExpirySweepInterval,
			BatchSize:            cfg.Lifecycle.BatchSize,
			SweepTimeout:         cfg.Lifecycle.SweepTimeout,
		},
	)
	if err := lifecycleScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start lifecycle scheduler", zap.Error(err))
	}
	defer func() {
		if err := lifecycleScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping lifecycle scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	contractHandler := handler.NewContractHandler(contractService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	taxSubmissionHandler := handler.NewTaxSubmissionHandler(taxService)
	dunningHandler := handler.NewDunningHandler(dunningService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	featureFlagHandler := handler.NewFeatureFlagHandler(flagService, evaluationService, overrideService)
	planFeatureHandler := handler.NewPlanFeatureHandler(tenantRepo)
	outboxHandler := handler.NewOutboxHandler(outboxService)

	// PDF printing stack. Optional: a missing Chrome binary or an unwritable
	// storage path disables the print API instead of failing startup.
	var printHandler *handler.PrintHandler
	pdfRenderer, err := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{Logger: log})
	if err != nil {
		log.Warn("PDF renderer unavailable, print API disabled", zap.Error(err))
	} else if pdfStorage, err := infraprinting.NewFileSystemStorage(&infraprinting.FileSystemStorageConfig{Logger: log}); err != nil {
		log.Warn("PDF storage unavailable, print API disabled", zap.Error(err))
	} else {
		defer pdfRenderer.Close()
		printService := printingapp.NewPrintService(
			printTemplateRepo, printJobRepo,
			infraprinting.NewTemplateEngine(), pdfRenderer, pdfStorage, log)
		printHandler = handler.NewPrintHandler(printService)
	}

	// SSE stream for flag changes, backed by Redis pub/sub. Optional: worth
	// skipping rather than failing startup when Redis is unreachable.
	var flagSSEHandler *handler.FeatureFlagSSEHandler
	flagInvalidator, err := cache.NewRedisFlagCacheInvalidator(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithInvalidatorLogger(log))
	if err != nil {
		log.Warn("Flag cache invalidator unavailable, SSE stream disabled", zap.Error(err))
	} else {
		flagSSEHandler = handler.NewFeatureFlagSSEHandler(flagInvalidator, handler.WithSSELogger(log))
		if err := flagSSEHandler.Start(); err != nil {
			log.Warn("Failed to start flag SSE handler, SSE stream disabled", zap.Error(err))
			flagSSEHandler = nil
		} else {
			defer flagSSEHandler.Stop()
		}
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Membership domain (subscriptions, contracts)
	membershipRoutes := router.NewDomainGroup("membership", "/membership")
	membershipRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "membership service ready"})
	})

	// Subscription routes
	membershipRoutes.POST("/subscriptions", subscriptionHandler.Create)
	membershipRoutes.GET("/subscriptions", subscriptionHandler.List)
	membershipRoutes.GET("/subscriptions/:id", subscriptionHandler.Get)
	membershipRoutes.GET("/subscriptions/:id/summary", subscriptionHandler.Summary)
	membershipRoutes.GET("/subscriptions/:id/history", subscriptionHandler.History)
	membershipRoutes.POST("/subscriptions/:id/activate", subscriptionHandler.Activate)
	membershipRoutes.POST("/subscriptions/:id/freeze", subscriptionHandler.Freeze)
	membershipRoutes.POST("/subscriptions/:id/unfreeze", subscriptionHandler.Unfreeze)
	membershipRoutes.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)
	membershipRoutes.POST("/subscriptions/:id/transfer", subscriptionHandler.Transfer)
	membershipRoutes.POST("/subscriptions/:id/renew", subscriptionHandler.Renew)
	membershipRoutes.POST("/subscriptions/:id/use-class", subscriptionHandler.UseClass)
	membershipRoutes.POST("/subscriptions/:id/use-guest-pass", subscriptionHandler.UseGuestPass)

	// Contract routes
	membershipRoutes.POST("/contracts", contractHandler.Create)
	membershipRoutes.GET("/contracts", contractHandler.List)
	membershipRoutes.GET("/contracts/:id", contractHandler.Get)
	membershipRoutes.GET("/contracts/:id/termination-fee", contractHandler.PreviewTerminationFee)
	membershipRoutes.POST("/contracts/:id/send", contractHandler.Send)
	membershipRoutes.POST("/contracts/:id/sign", contractHandler.Sign)
	membershipRoutes.POST("/contracts/:id/activate", contractHandler.Activate)
	membershipRoutes.POST("/contracts/:id/renew", contractHandler.Renew)
	membershipRoutes.POST("/contracts/:id/terminate", contractHandler.Terminate)

	// Billing domain (invoices, dunning sequences)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "billing service ready"})
	})

	// Invoice routes
	billingRoutes.POST("/invoices", invoiceHandler.Create)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/:id", invoiceHandler.Get)
	billingRoutes.GET("/invoices/:id/summary", invoiceHandler.Summary)
	billingRoutes.POST("/invoices/:id/items", invoiceHandler.AddLineItem)
	billingRoutes.DELETE("/invoices/:id/items/:itemId", invoiceHandler.RemoveLineItem)
	billingRoutes.POST("/invoices/:id/issue", invoiceHandler.Issue)
	billingRoutes.POST("/invoices/:id/payments", invoiceHandler.RecordPayment)
	billingRoutes.POST("/invoices/:id/cancel", invoiceHandler.Cancel)

	// Tax submission routes scoped to an invoice
	billingRoutes.GET("/invoices/:id/tax-submissions", taxSubmissionHandler.ListForInvoice)
	billingRoutes.POST("/invoices/:id/tax-submissions/resubmit", taxSubmissionHandler.Resubmit)

	// Dunning sequence routes
	billingRoutes.GET("/dunning-sequences", dunningHandler.List)
	billingRoutes.GET("/dunning-sequences/:id", dunningHandler.Get)
	billingRoutes.POST("/dunning-sequences/:id/pause", dunningHandler.Pause)
	billingRoutes.POST("/dunning-sequences/:id/resume", dunningHandler.Resume)
	billingRoutes.POST("/dunning-sequences/:id/escalate", dunningHandler.Escalate)
	billingRoutes.POST("/dunning-sequences/:id/recover", dunningHandler.Recover)
	billingRoutes.POST("/dunning-sequences/:id/cancel", dunningHandler.Cancel)

	// Compliance domain (tax submission audit trail)
	complianceRoutes := router.NewDomainGroup("compliance", "/compliance")
	complianceRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "compliance service ready"})
	})
	complianceRoutes.GET("/tax-submissions", taxSubmissionHandler.List)
	complianceRoutes.GET("/tax-submissions/:id", taxSubmissionHandler.Get)

	// Identity domain (authentication, users, roles) - public routes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)

	// Identity domain - protected routes
	identityRoutes := router.NewDomainGroup("identity", "/identity")
	identityRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "identity service ready"})
	})

	// Auth routes requiring authentication
	identityRoutes.POST("/auth/logout", authHandler.Logout)
	identityRoutes.GET("/auth/me", authHandler.GetCurrentUser)
	identityRoutes.PUT("/auth/password", authHandler.ChangePassword)

	// User management routes
	identityRoutes.POST("/users", userHandler.Create)
	identityRoutes.GET("/users", userHandler.List)
	identityRoutes.GET("/users/stats/count", userHandler.Count)
	identityRoutes.GET("/users/:id", userHandler.GetByID)
	identityRoutes.PUT("/users/:id", userHandler.Update)
	identityRoutes.DELETE("/users/:id", userHandler.Delete)
	identityRoutes.POST("/users/:id/activate", userHandler.Activate)
	identityRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	identityRoutes.POST("/users/:id/lock", userHandler.Lock)
	identityRoutes.POST("/users/:id/unlock", userHandler.Unlock)
	identityRoutes.POST("/users/:id/reset-password", userHandler.ResetPassword)
	identityRoutes.PUT("/users/:id/roles", userHandler.AssignRoles)

	// Role management routes
	identityRoutes.POST("/roles", roleHandler.Create)
	identityRoutes.GET("/roles", roleHandler.List)
	identityRoutes.GET("/roles/system", roleHandler.GetSystemRoles)
	identityRoutes.GET("/roles/stats/count", roleHandler.Count)
	identityRoutes.GET("/roles/:id", roleHandler.GetByID)
	identityRoutes.GET("/roles/code/:code", roleHandler.GetByCode)
	identityRoutes.PUT("/roles/:id", roleHandler.Update)
	identityRoutes.DELETE("/roles/:id", roleHandler.Delete)
	identityRoutes.POST("/roles/:id/enable", roleHandler.Enable)
	identityRoutes.POST("/roles/:id/disable", roleHandler.Disable)
	identityRoutes.PUT("/roles/:id/permissions", roleHandler.SetPermissions)

	// Permission management
	identityRoutes.GET("/permissions", roleHandler.GetPermissions)

	// Tenant management routes
	identityRoutes.POST("/tenants", tenantHandler.Create)
	identityRoutes.GET("/tenants", tenantHandler.List)
	identityRoutes.GET("/tenants/stats", tenantHandler.GetStats)
	identityRoutes.GET("/tenants/stats/count", tenantHandler.Count)
	identityRoutes.GET("/tenants/:id", tenantHandler.GetByID)
	identityRoutes.GET("/tenants/code/:code", tenantHandler.GetByCode)
	identityRoutes.PUT("/tenants/:id", tenantHandler.Update)
	identityRoutes.PUT("/tenants/:id/config", tenantHandler.UpdateConfig)
	identityRoutes.PUT("/tenants/:id/plan", tenantHandler.SetPlan)
	identityRoutes.DELETE("/tenants/:id", tenantHandler.Delete)
	identityRoutes.POST("/tenants/:id/activate", tenantHandler.Activate)
	identityRoutes.POST("/tenants/:id/deactivate", tenantHandler.Deactivate)
	identityRoutes.POST("/tenants/:id/suspend", tenantHandler.Suspend)

	// Plan feature lookup for the authenticated tenant
	identityRoutes.GET("/tenants/current/features", planFeatureHandler.GetCurrentTenantFeatures)

	// Admin plan catalog (plan tiers and their feature matrices)
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.GET("/plans", planFeatureHandler.ListPlans)
	adminRoutes.GET("/plans/:plan/features", planFeatureHandler.GetPlanFeatures)
	adminRoutes.PUT("/plans/:plan/features", planFeatureHandler.UpdatePlanFeatures)

	// Feature flag routes (per-tenant rollout control)
	flagRoutes := router.NewDomainGroup("feature-flags", "/feature-flags")
	flagRoutes.GET("", featureFlagHandler.ListFlags)
	flagRoutes.POST("", featureFlagHandler.CreateFlag)
	flagRoutes.POST("/evaluate-batch", featureFlagHandler.BatchEvaluate)
	flagRoutes.POST("/client-config", featureFlagHandler.GetClientConfig)
	flagRoutes.GET("/:key", featureFlagHandler.GetFlag)
	flagRoutes.PUT("/:key", featureFlagHandler.UpdateFlag)
	flagRoutes.DELETE("/:key", featureFlagHandler.ArchiveFlag)
	flagRoutes.POST("/:key/enable", featureFlagHandler.EnableFlag)
	flagRoutes.POST("/:key/disable", featureFlagHandler.DisableFlag)
	flagRoutes.POST("/:key/evaluate", featureFlagHandler.EvaluateFlag)
	flagRoutes.GET("/:key/overrides", featureFlagHandler.ListOverrides)
	flagRoutes.POST("/:key/overrides", featureFlagHandler.CreateOverride)
	flagRoutes.DELETE("/:key/overrides/:id", featureFlagHandler.DeleteOverride)
	flagRoutes.GET("/:key/audit-logs", featureFlagHandler.GetAuditLogs)
	if flagSSEHandler != nil {
		flagRoutes.GET("/stream", flagSSEHandler.Stream)
	}

	// Register all domain groups
	r.Register(membershipRoutes).
		Register(billingRoutes).
		Register(complianceRoutes).
		Register(authRoutes).
		Register(identityRoutes).
		Register(adminRoutes).
		Register(flagRoutes)
	if printHandler != nil {
		r.Register(handler.PrintRoutes(printHandler))
	}

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
