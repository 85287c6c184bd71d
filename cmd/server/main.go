package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	eventapp "github.com/bidhouse/backend/internal/application/event"
	identityapp "github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/bidhouse/backend/internal/infrastructure/cache"
	"github.com/bidhouse/backend/internal/infrastructure/config"
	"github.com/bidhouse/backend/internal/infrastructure/event"
	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"github.com/bidhouse/backend/internal/infrastructure/metrics"
	"github.com/bidhouse/backend/internal/infrastructure/migration"
	"github.com/bidhouse/backend/internal/infrastructure/notification"
	"github.com/bidhouse/backend/internal/infrastructure/persistence"
	"github.com/bidhouse/backend/internal/infrastructure/ratelimit"
	"github.com/bidhouse/backend/internal/infrastructure/scheduler"
	"github.com/bidhouse/backend/internal/infrastructure/storage"
	"github.com/bidhouse/backend/internal/infrastructure/telemetry"
	"github.com/bidhouse/backend/internal/interfaces/http/handler"
	"github.com/bidhouse/backend/internal/interfaces/http/middleware"
	"github.com/bidhouse/backend/internal/interfaces/http/router"
	"github.com/bidhouse/backend/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "github.com/bidhouse/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			BidHouse API
//	@version		1.0
//	@description	Online auction marketplace: accounts with email OTP, seller listings, bidding and administration
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.email	support@bidhouse.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: map[string]string{"service": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BidHouse API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Database with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseFromConfig(cfg, gormLog, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// OTP codes and revoked tokens live in Redis when configured
	stores, err := cache.NewStores(ctx, cfg.Redis, cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()))
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	buyerRepo := persistence.NewGormBuyerProfileRepository(db.DB)
	sellerRepo := persistence.NewGormSellerProfileRepository(db.DB)
	adminRepo := persistence.NewGormAdminProfileRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	bidRepo := persistence.NewGormBidRepository(db.DB)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	otpThrottle := ratelimit.Every(cfg.OTP.ResendInterval, 1)
	otpThrottle.RunCleanup(ctx, 5*time.Minute)
	otpService := identityapp.NewOTPService(
		stores.OTP,
		notification.NewLogNotifier(log, !cfg.IsProduction()),
		otpThrottle,
		identityapp.OTPServiceConfig{
			TTL:            cfg.OTP.TTL,
			MaxAttempts:    cfg.OTP.MaxAttempts,
			ResendInterval: cfg.OTP.ResendInterval,
		},
		log,
	)
	authService := identityapp.NewAuthService(userRepo, otpService, jwtService, stores.Blacklist,
		identityapp.DefaultAuthServiceConfig(), log)
	profileService := identityapp.NewProfileService(userRepo, buyerRepo, sellerRepo, adminRepo, log)
	adminService := identityapp.NewAdminService(userRepo, sellerRepo, productRepo, bidRepo,
		profileService, jwtService, stores.Blacklist, log)

	// Auction services
	commissionRate, err := decimal.NewFromString(cfg.Auction.DefaultCommissionRate)
	if err != nil {
		log.Fatal("Invalid default commission rate", zap.String("value", cfg.Auction.DefaultCommissionRate))
	}
	imageStorage, err := newImageStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	listingService := auctionapp.NewListingService(productRepo, imageStorage, auctionapp.ListingServiceConfig{
		Policy: auction.ListingPolicy{
			MinDuration:           cfg.Auction.MinDuration,
			MaxDuration:           cfg.Auction.MaxDuration,
			DefaultCommissionRate: commissionRate,
		},
		QuoteSteps: cfg.Auction.QuoteSteps,
	}, log)
	biddingService := auctionapp.NewBiddingService(productRepo, bidRepo, userRepo, auctionapp.BiddingServiceConfig{
		MaxRetries: cfg.Bidding.MaxRetries,
		QuoteSteps: cfg.Auction.QuoteSteps,
	}, log)
	closeService := auctionapp.NewAuctionCloseService(productRepo, cfg.Scheduler.BatchSize, log)

	// Metrics
	appMetrics := metrics.New()
	biddingService.SetRecorder(appMetrics)

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log, event.WithAsync(2, 1024))
	metricsHandler := eventapp.NewMetricsHandler(appMetrics)
	notificationHandler := eventapp.NewNotificationHandler(log)
	eventBus.Subscribe(metricsHandler)
	eventBus.Subscribe(notificationHandler)
	log.Info("Event handlers registered",
		zap.Strings("metrics_events", metricsHandler.EventTypes()),
		zap.Strings("notification_events", notificationHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	authService.SetEventPublisher(eventBus)
	adminService.SetEventPublisher(eventBus)
	listingService.SetEventPublisher(eventBus)
	biddingService.SetEventPublisher(eventBus)
	closeService.SetEventPublisher(eventBus)

	// Auction close sweeper
	if cfg.Scheduler.Enabled {
		closer := scheduler.NewCronScheduler(log,
			scheduler.WithTimeout(cfg.Scheduler.Timeout),
			scheduler.WithObserver(appMetrics.ObserveJob),
		)
		err := closer.Register(cfg.Scheduler.CloseSpec, scheduler.JobFunc{
			JobName: "auction_close",
			Fn: func(ctx context.Context) error {
				summary, err := closeService.CloseEnded(ctx)
				if summary.Closed() > 0 || summary.Failed > 0 {
					log.Info("Auction close sweep finished",
						zap.Int("sold", summary.Sold),
						zap.Int("unsold", summary.Unsold),
						zap.Int("skipped", summary.Skipped),
						zap.Int("failed", summary.Failed),
					)
				}
				return err
			},
		})
		if err != nil {
			log.Fatal("Failed to register auction close job", zap.Error(err))
		}
		if err := closer.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := closer.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Auction close sweeper started",
			zap.String("spec", cfg.Scheduler.CloseSpec),
			zap.Int("batch_size", cfg.Scheduler.BatchSize),
		)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanDecorator())
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics.Enabled {
		engine.Use(appMetrics.GinMiddleware(cfg.Metrics.Path, "/health", "/health/ready"))
	}
	secure := middleware.DefaultSecurityConfig()
	if cfg.IsProduction() {
		secure.HSTSMaxAge = 365 * 24 * time.Hour
	}
	engine.Use(middleware.SecureWithConfig(secure))
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	if cfg.HTTP.RateLimitEnabled {
		perSecond := rate.Limit(float64(cfg.HTTP.RateLimitRequests) / cfg.HTTP.RateLimitWindow.Seconds())
		limiter := ratelimit.NewKeyedLimiter(perSecond, cfg.HTTP.RateLimitRequests, 2*cfg.HTTP.RateLimitWindow)
		limiter.RunCleanup(ctx, time.Minute)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	authLimit := func(c *gin.Context) { c.Next() }
	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := ratelimit.NewKeyedLimiter(rate.Limit(cfg.HTTP.AuthRateLimitRPS), cfg.HTTP.AuthRateLimitBurst, 0)
		limiter.RunCleanup(ctx, time.Minute)
		authLimit = middleware.AuthRateLimit(limiter)
	}

	// Probes and metrics live outside API versioning
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": db,
		"cache":    stores,
	})
	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(appMetrics.Handler()))
	}

	authenticate := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: stores.Blacklist,
		Logger:         log,
	})

	// Swagger is refused in production by config validation
	engine.GET("/swagger/*any",
		middleware.DocsAccess(middleware.DocsAccessConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authenticate),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	groups := router.MarketplaceGroups(router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Profile: handler.NewProfileHandler(profileService),
		Product: handler.NewProductHandler(listingService, biddingService),
		Seller:  handler.NewSellerHandler(listingService),
		Buyer:   handler.NewBuyerHandler(biddingService),
		Admin:   handler.NewAdminHandler(adminService, listingService),
	}, router.Guards{
		Authenticate:    authenticate,
		Identify:        middleware.OptionalJWTAuthMiddleware(jwtService, stores.Blacklist),
		AuthLimit:       authLimit,
		SellerApprovals: profileService,
		Logger:          log,
	})
	routes := 0
	for _, g := range groups {
		r.Register(g)
		routes += len(g.Routes())
	}
	log.Info("API routes mounted", zap.String("base", r.Setup()), zap.Int("routes", routes))

	// Create HTTP server with config
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("Server exited gracefully")
}

// newImageStorage returns S3 storage when enabled, an in-process stub outside
// production, and nil otherwise, which disables image endpoints
func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (auctionapp.ImageStorage, error) {
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		log.Info("Image storage enabled", zap.String("bucket", cfg.Storage.Bucket))
		return s3, nil
	}
	if !cfg.IsProduction() {
		log.Warn("Image storage disabled, using in-process stub")
		return storage.NewStubImageStorage(), nil
	}
	log.Warn("Image storage disabled, image endpoints will fail")
	return nil, nil
}

// runMigrations applies the embedded migrations on a dedicated connection,
// since closing the migrator closes the database handle it was given
func runMigrations(cfg *config.Config, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, ".", log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
