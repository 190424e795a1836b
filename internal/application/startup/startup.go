// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/container"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/cleanup"
	schema "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/presentation/http/routes"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize(configPath string) error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  ▄▄▄▄ ▄▄▄   ▄▄▄       ▄ ▄▄▄ ▄▄▄  ▄  ▄   ▄    ▄▄▄
  █▄▄  █▄█  █   █      █ █▄▄ █  █ █▄ █   █    █  █
  █    █ █   ▀▀▄█    ▄▄█ ▄▄█ █▄▄█ █ ▀█   █▄▄▄ █▄▄▀
` + "\033[97m" + `
  made by At Risk Media
` + "\033[0m")

	// Step 1: Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Step 2: Initialize channeled logging
	log.Println("Initializing channeled logging...")
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    cfg.Logging.ToFile,
		OutputToConsole: true,
		LogDirectory:    cfg.Logging.Directory,
		JSONFormat:      cfg.Logging.JSON,
		DefaultLevel:    logging.ParseLevel(cfg.Logging.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	// Step 3: Open database
	log.Printf("Opening %s database...", cfg.Database.Driver)
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.Printf("✓ Database connected (%s)", db.GetConnectionInfo())

	// Step 4: Ensure schema and seed settings
	log.Println("Ensuring schema...")
	tableCreator := schema.NewTableCreator()
	if err := tableCreator.CreateSchema(db.DB.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := tableCreator.SeedSettings(db.DB.DB, cfg.Defaults.CacheTTL, cfg.Defaults.BatchSize, cfg.Defaults.OutputType); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	// Step 5: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer(cfg, logger, db)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	log.Println("✓ Dependency injection container created with singleton services.")

	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 6: Load runtime settings
	settingsStart := time.Now()
	if err := appContainer.SettingsService.Load(ctx); err != nil {
		return err
	}
	snap := appContainer.SettingsService.Snapshot()
	logger.LogStartupPhase("settings", time.Since(settingsStart), true, map[string]any{
		"cacheTtl":   snap.CacheTTL.String(),
		"batchSize":  snap.BatchSize,
		"outputType": string(snap.OutputType),
	})

	// Step 7: Start background worker and health stream
	if cfg.Queue.WorkerEnabled {
		logger.Startup().Info("Starting background queue worker...")
		worker := cleanup.NewWorker(appContainer.QueueService, appContainer.QueueService, cleanup.NewConfig(cfg))
		go worker.Start(ctx)
	} else {
		logger.Startup().Warn("Background queue worker disabled, drain the queue from faqctl")
	}
	go appContainer.Broadcaster.Run(ctx)

	// Step 8: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()
	httpServer := server.New(cfg.Server, routes.SetupRoutes(appContainer))
	logger.Startup().Info("HTTP server initialized", "address", httpServer.Addr(), "duration", time.Since(startServerTime))

	// Step 9: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+cfg.Server.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			serverErr <- err
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"site", cfg.Site.URL,
		"port", cfg.Server.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		cancelBackgroundTasks()
		return err
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
