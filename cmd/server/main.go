package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
	"github.com/ordersuite/backend/internal/infrastructure/config"
	"github.com/ordersuite/backend/internal/infrastructure/logger"
	"github.com/ordersuite/backend/internal/infrastructure/persistence"
	"github.com/ordersuite/backend/internal/infrastructure/scheduler"
	"github.com/ordersuite/backend/internal/infrastructure/sheets"
	"github.com/ordersuite/backend/internal/interfaces/http/handler"
	"github.com/ordersuite/backend/internal/interfaces/http/middleware"
	"github.com/ordersuite/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting OrderSuite Sync Backend",
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
	sourceRepo := persistence.NewGormSheetSourceRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	lockRepo := persistence.NewGormSyncLockRepository(db.DB)

	// Sheet fetcher reads XLSX workbooks from the configured directory
	fetcher := sheets.NewXLSXSheetFetcher(cfg.SheetSync.SheetDir, log)

	// Progress broker carries run milestones to SSE subscribers
	broker := sheetsyncapp.NewProgressBroker(cfg.SheetSync.ProgressBufferSize, log)

	// Initialize application services
	syncService := sheetsyncapp.NewSyncService(
		sourceRepo, orderRepo, lockRepo, fetcher, broker, log,
		sheetsyncapp.WithLockTTL(cfg.SheetSync.LockTTL),
	)
	sourceService := sheetsyncapp.NewSourceService(sourceRepo, log)
	orderService := sheetsyncapp.NewOrderService(orderRepo, log)

	// Periodic sync sweep (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.SheetSyncSchedulerConfig{
			Enabled:       cfg.Scheduler.Enabled,
			SweepInterval: cfg.Scheduler.SweepInterval,
			StartTimeout:  10 * time.Second,
		}
		syncScheduler, err := scheduler.NewSheetSyncScheduler(schedulerConfig, sourceRepo, syncService, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("sweep_interval", cfg.Scheduler.SweepInterval),
		)
	}

	// Initialize HTTP handlers
	sourceHandler := handler.NewSheetSourceHandler(sourceService)
	orderHandler := handler.NewOrderHandler(orderService)
	syncHandler := handler.NewSyncHandler(syncService,
		handler.WithSyncLogger(log),
		handler.WithSyncHeartbeat(cfg.HTTP.SSEHeartbeatInterval),
		handler.WithSyncStreamTimeout(cfg.HTTP.SSEStreamTimeout),
	)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
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

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body limit, tenant scoping
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Every API route below is tenant scoped
	engine.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/api/v1/system"},
		Required:  true,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Mount API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(sourceHandler).
		Register(syncHandler).
		Register(orderHandler).
		Register(systemHandler).
		Setup()

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
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
