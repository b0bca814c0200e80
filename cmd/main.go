package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/tracker/config"
	"github.com/Payphone-Digital/tracker/internal/authz"
	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/handler"
	"github.com/Payphone-Digital/tracker/internal/middleware"
	"github.com/Payphone-Digital/tracker/internal/repository"
	"github.com/Payphone-Digital/tracker/internal/router"
	"github.com/Payphone-Digital/tracker/internal/service"
	"github.com/Payphone-Digital/tracker/pkg/cache"
	"github.com/Payphone-Digital/tracker/pkg/circuit"
	"github.com/Payphone-Digital/tracker/pkg/database"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/Payphone-Digital/tracker/pkg/metrics"
	"github.com/Payphone-Digital/tracker/pkg/redis"
	"github.com/Payphone-Digital/tracker/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	dbConfig := database.DefaultConfig()
	dbConfig.Driver = config.Database.Driver
	dbConfig.DSN = config.DatabaseConnectionString()
	dbConfig.MaxOpenConns = config.Database.MaxOpenConns
	dbConfig.MaxIdleConns = config.Database.MaxIdleConns
	dbConfig.ConnMaxLifetime = config.Database.ConnMaxLifetime

	db, err := database.NewDB(dbConfig)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if config.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
		}
		if err := database.CreateIndexes(db); err != nil {
			logger.GetLogger().Warn("Failed to create indexes", zap.Error(err))
		}
		logger.GetLogger().Info("Database migrated successfully")
	}

	// Seed roles and the bootstrap admin
	if err := database.Seed(db, database.DefaultAdmin{
		FirstName: "System",
		LastName:  "Administrator",
		Email:     config.Auth.AdminEmail,
		Password:  config.Auth.AdminPassword,
	}); err != nil {
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	} else {
		logger.GetLogger().Info("Database seeded successfully")
	}

	// Reset tokens live in redis when enabled, in process memory otherwise
	var (
		tokenStore  service.PurposeTokenStore
		redisPinger handler.Pinger
	)
	memoryCache := cache.NewCache()
	defer memoryCache.Close()

	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		tokenStore = repository.NewRedisTokenStore(redisClient)
		redisPinger = redisClient
	} else {
		logger.GetLogger().Warn("Redis disabled, reset tokens are kept in memory and do not survive restarts")
		tokenStore = repository.NewMemoryTokenStore(memoryCache)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	eventRepo := repository.NewAuthEventRepository(db)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authMetrics, err := metrics.NewAuthMetrics(registry, config.Metrics.Namespace)
	if err != nil {
		logger.GetLogger().Fatal("Failed to register auth metrics", zap.Error(err))
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry, config.Metrics.Namespace)
	if err != nil {
		logger.GetLogger().Fatal("Failed to register http metrics", zap.Error(err))
	}

	// Services
	issuer, err := service.NewTokenIssuer(service.TokenIssuerConfig{
		Secret:             config.JWT.Secret,
		SigningAlgorithm:   config.JWT.SigningAlgorithm,
		AccessTokenExpiry:  time.Duration(config.JWT.AccessExpiryMinute) * time.Minute,
		RefreshTokenExpiry: time.Duration(config.JWT.RefreshExpiryDays) * 24 * time.Hour,
		Issuer:             config.JWT.Issuer,
		Audience:           config.JWT.Audience,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	userManager := service.NewUserManager(
		userRepo,
		roleRepo,
		tokenStore,
		security.DefaultPasswordPolicy(constants.MinPasswordLength, config.Auth.MinPasswordScore),
		service.UserManagerConfig{ResetTokenTTL: config.Auth.ResetTokenTTL},
	)

	exposeResetToken := config.Auth.ExposeResetToken && !config.IsProduction()
	resetSink := service.NewBreakerSink(
		service.NewLogSink(exposeResetToken),
		circuit.NewBreaker("reset-delivery", circuit.DefaultConfig(), logger.GetLogger()),
	)
	notifier, err := service.NewTemplateNotifier(resetSink, config.Auth.ResetTokenTTL, "", "")
	if err != nil {
		logger.GetLogger().Fatal("Failed to parse reset templates", zap.Error(err))
	}

	auditService := service.NewAuditService(eventRepo)
	authService := service.NewAuthService(userManager, issuer, auditService, notifier, authMetrics, service.AuthServiceConfig{
		MaxFailedAccessAttempts: config.Auth.MaxFailedAccessAttempts,
		LockoutDuration:         config.Auth.LockoutDuration,
	})
	userService := service.NewUserService(userRepo)
	orgService := service.NewOrganizationService(orgRepo, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userService, auditService, exposeResetToken)
	userHandler := handler.NewUserHandler(userService)
	orgHandler := handler.NewOrganizationHandler(orgService)
	healthHandler := handler.NewHealthHandler(dbPinger(db), redisPinger)

	// Initialize middleware
	jwtMiddleware := middleware.NewJWTMiddleware(issuer, authz.NewChecker(orgRepo))

	r := router.NewRouter(
		authHandler,
		userHandler,
		orgHandler,
		healthHandler,

		jwtMiddleware,
		httpMetrics,
		registry,
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}

func dbPinger(db *gorm.DB) handler.Pinger {
	return handler.PingerFunc(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})
}
