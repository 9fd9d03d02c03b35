package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/application/scanning"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/cache"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/export"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/logger"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/persistence"
	upstreaminfra "github.com/chafiq1992/order-scanner/internal/infrastructure/upstream"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/dto"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/handler"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/middleware"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order scanner",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Upstream store registry and client
	stores := upstreaminfra.BuildRegistry(cfg.Stores.JSON, os.Environ(), log)
	log.Info("Store registry built", zap.Int("stores", len(stores)))
	storeClient := upstreaminfra.NewHTTPStoreClient(
		upstreaminfra.WithTimeout(cfg.Scanner.RequestTimeout),
		upstreaminfra.WithLogger(log),
	)

	resolutionCache := cache.NewResolutionCache(cfg.Cache, cfg.Redis, log)

	// Export sink. Without sheet credentials scans are still accepted, the
	// rows just go nowhere.
	var exporter export.Exporter = export.NoopExporter{}
	if cfg.Sheets.SpreadsheetID != "" && cfg.Sheets.CredentialsBase64 != "" {
		sheetsExporter, err := export.NewSheetsExporter(context.Background(), cfg.Sheets)
		if err != nil {
			log.Error("Failed to create sheets exporter, export disabled", zap.Error(err))
		} else {
			exporter = sheetsExporter
			log.Info("Sheets export enabled", zap.String("spreadsheet", cfg.Sheets.SpreadsheetID))
		}
	}
	dispatcher := export.NewAsyncDispatcher(exporter, cfg.Sheets.QueueSize, log)
	defer dispatcher.Close()

	// Application services
	scanRepo := persistence.NewGormScanRepository(db.DB)
	resolver := scanning.NewResolver(stores, storeClient, resolutionCache,
		cfg.Scanner, cfg.Cache,
		scanning.WithResolverLogger(log),
	)
	scanService := scanning.NewScanService(scanRepo, resolver, dispatcher, cfg.Scanner,
		scanning.WithScanLogger(log),
	)
	summaryService := scanning.NewSummaryService(scanRepo)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			log.Fatal("Failed to register validators", zap.Error(err))
		}
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewScanHandler(scanService, summaryService)).
		Register(handler.NewHealthHandler(db, len(stores))).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
