package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/builder"
	"github.com/smart-dostup/marketsync/internal/cache"
	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/database"
	"github.com/smart-dostup/marketsync/internal/handler"
	"github.com/smart-dostup/marketsync/internal/middleware"
	"github.com/smart-dostup/marketsync/internal/pricing"
	"github.com/smart-dostup/marketsync/internal/reconciler"
	"github.com/smart-dostup/marketsync/internal/repository"
	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/worker"
	"github.com/smart-dostup/marketsync/pkg/assistant"
	"github.com/smart-dostup/marketsync/pkg/imagesearch"
	"github.com/smart-dostup/marketsync/pkg/telegram"
)

// main is the application entrypoint for the catalog sync service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting marketsync")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Pricing tables
	registry := pricing.NewRegistry()
	if cfg.Pricing.TablePath != "" {
		if err := registry.LoadFile(cfg.Pricing.TablePath); err != nil {
			log.Error().Err(err).Str("path", cfg.Pricing.TablePath).Msg("failed to load pricing tables")
			os.Exit(1)
		}
	}
	table, err := registry.Resolve(cfg.Pricing.Table)
	if err != nil {
		log.Error().Err(err).Str("table", cfg.Pricing.Table).Msg("unknown pricing table")
		os.Exit(1)
	}

	// 5. External collaborators
	assistantClient := assistant.NewClient(assistant.Config{
		BaseURL:     cfg.Assistant.BaseURL,
		APIKey:      cfg.Assistant.APIKey,
		AssistantID: cfg.Assistant.AssistantID,
		MaxAttempts: cfg.Assistant.MaxRetries,
	})
	enricher := cache.NewEnrichmentCache(redisClient, assistantClient, cfg.Assistant.CacheTTL)

	searcher := imagesearch.NewSearcher(imagesearch.Config{
		BaseURL:    cfg.Images.BaseURL,
		MaxResults: cfg.Images.MaxResults,
	})

	// 6. Core engine
	entryBuilder := builder.New(table, enricher, searcher, cfg.Worker.BuildWorkers)
	rec := reconciler.New(table, entryBuilder)

	// 7. Repositories and services
	overrideRepo := repository.NewOverrideRepository(db)
	runRepo := repository.NewRunRepository(db)

	syncSvc := service.NewSyncService(cfg.Catalog, rec, entryBuilder, overrideRepo, runRepo)
	catalogSvc := service.NewCatalogService(cfg.Catalog, registry, entryBuilder, overrideRepo)
	overrideSvc := service.NewOverrideService(overrideRepo)
	authSvc := service.NewAuthService(cfg.Admin, cfg.JWTSecret)

	// 8. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(cfg.Catalog),
		Auth:         handler.NewAuthHandler(authSvc),
		Override:     handler.NewOverrideHandler(overrideSvc),
		Sync:         handler.NewSyncHandler(syncSvc, runRepo),
		AdminCatalog: handler.NewAdminCatalogHandler(catalogSvc),
	}

	// 9. Setup router
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewSyncWorker(syncSvc, cfg.Worker.SyncInterval).Start(ctx)
	if cfg.Feed.BotToken != "" && cfg.Feed.ChatID != "" {
		bot := telegram.NewClient(telegram.Config{
			BotToken: cfg.Feed.BotToken,
			ChatID:   cfg.Feed.ChatID,
		})
		go worker.NewFeedWorker(bot, syncSvc, cfg.Catalog, cfg.Feed.RequestMessage, cfg.Worker.FeedInterval).Start(ctx)
	} else {
		log.Warn().Msg("Telegram feed not configured, snapshots must be placed on disk manually")
	}

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Override     *handler.OverrideHandler
	Sync         *handler.SyncHandler
	AdminCatalog *handler.AdminCatalogHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.POST("/v1/auth/login", handlers.Auth.Login)

	// Override editor: reading is open, mutations need the operator token.
	router.GET("/v1/overrides", handlers.Override.List)

	protected := router.Group("/v1")
	protected.Use(jwtMiddleware.Handle())
	{
		protected.POST("/overrides", handlers.Override.Set)
		protected.DELETE("/overrides/:id", handlers.Override.Delete)
		protected.DELETE("/overrides", handlers.Override.Clear)

		protected.POST("/sync", handlers.Sync.Trigger)
		protected.GET("/runs", handlers.Sync.ListRuns)

		protected.POST("/admin/rebuild-missing", handlers.AdminCatalog.RebuildMissing)
		protected.POST("/admin/reprice", handlers.AdminCatalog.Reprice)
		protected.POST("/admin/export-snapshot", handlers.AdminCatalog.ExportSnapshot)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
