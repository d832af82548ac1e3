package routes

import (
	"medref-portal/internal/adapters/http/handlers"
	"medref-portal/internal/adapters/http/middleware"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/config"
	"medref-portal/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. The migration service is
// built in main so its cron scheduler shares the process lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, migrationService services.MigrationService) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	archiveRepo := repositories.NewArchiveRepository(db)

	// Initialize services
	documentService := services.NewDocumentService(cfg.Storage.UploadDir)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenMins, cfg.JWT.RefreshTokenDays)
	catalogService := services.NewCatalogService(serviceRepo)
	applicationService := services.NewApplicationService(applicationRepo, serviceRepo, documentService, cfg.Review.StrictTransitions)
	archiveService := services.NewArchiveService(archiveRepo, applicationRepo, documentService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	reviewHandler := handlers.NewReviewHandler(applicationService)
	archiveHandler := handlers.NewArchiveHandler(archiveService)
	migrationHandler := handlers.NewMigrationHandler(migrationService)

	// Health check
	app.Get("/health", healthHandler.Check)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Service catalog (public, cacheable)
	serviceRoutes := apiV1.Group("/services")
	serviceRoutes.Use(middleware.MasterDataCache())
	serviceRoutes.Get("/", catalogHandler.List)
	serviceRoutes.Get("/:id", catalogHandler.Get)

	// Citizen application routes (authenticated)
	applicationRoutes := apiV1.Group("/applications")
	applicationRoutes.Use(middleware.AuthMiddleware(cfg))
	setupApplicationRoutes(applicationRoutes, applicationHandler)

	// Staff routes (Reviewer/Admin)
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	setupReviewRoutes(adminRoutes, reviewHandler)
	setupAdminRoutes(adminRoutes, archiveHandler, migrationHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.Refresh)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupApplicationRoutes configures citizen application routes
func setupApplicationRoutes(router fiber.Router, handler *handlers.ApplicationHandler) {
	router.Post("/", middleware.SubmitRateLimiter(), handler.Submit)
	router.Get("/", handler.ListMine)
	router.Get("/check", handler.CheckActive)
	router.Get("/:id", handler.Get)
	router.Get("/:id/documents/:index", middleware.NoCacheHeaders(), handler.DownloadDocument)
}

// setupReviewRoutes configures reviewer routes (Reviewer/Admin)
func setupReviewRoutes(router fiber.Router, handler *handlers.ReviewHandler) {
	reviewRoutes := router.Group("/applications")
	reviewRoutes.Use(middleware.ReviewerOrAdmin())

	reviewRoutes.Get("/", handler.List)
	reviewRoutes.Get("/:id", handler.Get)
	reviewRoutes.Put("/:id/review", handler.Review)
	reviewRoutes.Post("/:id/official-document", handler.IssueOfficialDocument)
	reviewRoutes.Get("/:id/documents/:index", middleware.NoCacheHeaders(), handler.DownloadDocument)
	reviewRoutes.Get("/:id/official-documents/:index", middleware.NoCacheHeaders(), handler.DownloadOfficialDocument)
}

// setupAdminRoutes configures admin-only routes
func setupAdminRoutes(router fiber.Router, archiveHandler *handlers.ArchiveHandler, migrationHandler *handlers.MigrationHandler) {
	adminOnly := router.Group("")
	adminOnly.Use(middleware.AdminOnly())

	// Archival
	adminOnly.Post("/applications/:id/archive", archiveHandler.Archive)
	adminOnly.Get("/applications/:id/archive", archiveHandler.Get)
	adminOnly.Get("/archives", archiveHandler.List)

	// Legacy document migration
	adminOnly.Post("/migrate-documents", migrationHandler.Trigger)
	adminOnly.Get("/migrate-documents/status", migrationHandler.Status)
}
