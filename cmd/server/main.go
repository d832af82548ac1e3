package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"medref-portal/internal/adapters/http/middleware"
	"medref-portal/internal/adapters/http/routes"
	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/config"
	"medref-portal/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "medref-portal/docs" // Swagger docs
)

// @title MedRef Portal API
// @version 1.0
// @description Citizen-facing medical referral application portal API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@medref.example.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed service catalog and bootstrap admin
	if err := config.SeedMasterData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Nightly legacy document sweep
	documentService := services.NewDocumentService(cfg.Storage.UploadDir)
	migrationService := services.NewMigrationService(
		repositories.NewApplicationRepository(db),
		documentService,
		cfg.Migration.Schedule,
	)
	if cfg.Migration.Enabled {
		if err := migrationService.Start(); err != nil {
			log.Fatalf("❌ Failed to start document migration scheduler: %v", err)
		}
		defer migrationService.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MedRef Portal API v1.0",
		BodyLimit:    12 * 1024 * 1024, // documents up to 10 MiB plus form overhead
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, migrationService)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
