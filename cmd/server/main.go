package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"shop_visit_app_go/config"
	"shop_visit_app_go/db"
	"shop_visit_app_go/handlers"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
	"shop_visit_app_go/services/jobs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default form option lists
	if err := services.SeedDefaultConfigurations(db.DB); err != nil {
		log.Fatalf("Failed to seed configurations: %v", err)
	}

	// Storage for visit photos and signatures
	services.InitializeStorage(cfg)

	// Editor session registry backing the visit form endpoints
	handlers.Editors = services.NewEditorSessionManager(services.NewGormVisitStore(db.DB), nil)
	handlers.Editors.StartJanitor(5*time.Minute, make(chan struct{}))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes
	e.POST("/api/login", handlers.LoginHandler, middleware.LoginRateLimiter.Middleware())

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth())
	api.Use(middleware.APIRateLimiter.Middleware())
	{
		api.POST("/logout", handlers.LogoutHandler)
		api.GET("/me", handlers.MeHandler)
		api.POST("/me/password", handlers.ChangePasswordHandler)

		// Customers
		api.GET("/customers", handlers.ListCustomersHandler)
		api.GET("/customers/:id", handlers.GetCustomerHandler)
		api.POST("/customers", handlers.CreateCustomerHandler)
		api.PATCH("/customers/:id", handlers.UpdateCustomerHandler)

		// Visits
		api.GET("/visits", handlers.ListVisitsHandler)
		api.GET("/visits/planned", handlers.PlannedVisitsHandler)
		api.GET("/visits/follow-ups", handlers.FollowUpsHandler)
		api.GET("/visits/export", handlers.ExportVisitsHandler)
		api.GET("/visits/:id", handlers.GetVisitHandler)
		api.DELETE("/visits/:id", handlers.DeleteVisitHandler)
		api.GET("/visits/:id/history", handlers.VisitHistoryHandler)
		api.GET("/visits/:id/pdf", handlers.VisitReportPDFHandler)
		api.POST("/visits/:id/photos", handlers.UploadVisitPhotoHandler)
		api.GET("/visits/:id/photos", handlers.GetVisitPhotoHandler)

		// Visit editor sessions (debounced draft creation + autosave)
		api.POST("/visit-editor", handlers.StartEditorHandler)
		api.GET("/visit-editor/:id", handlers.EditorStateHandler)
		api.PATCH("/visit-editor/:id/fields", handlers.UpdateEditorHandler)
		api.POST("/visit-editor/:id/sections/:section/advance", handlers.AdvanceSectionHandler)
		api.POST("/visit-editor/:id/signature", handlers.AttachSignatureHandler)
		api.POST("/visit-editor/:id/flush", handlers.FlushEditorHandler)
		api.POST("/visit-editor/:id/submit", handlers.SubmitEditorHandler)
		api.DELETE("/visit-editor/:id", handlers.CloseEditorHandler)

		// Form option lists
		api.GET("/configurations", handlers.ListConfigOptionsHandler)

		// Manager & admin routes
		managerRoutes := api.Group("")
		managerRoutes.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
		{
			managerRoutes.GET("/audit-logs", handlers.GetAuditLogsHandler)
			managerRoutes.GET("/import/template", handlers.ImportTemplateHandler)
			managerRoutes.POST("/import", handlers.ImportHandler, middleware.ImportRateLimiter.Middleware())
		}

		// Admin-only routes
		adminRoutes := api.Group("")
		adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminRoutes.GET("/users", handlers.ListUsersHandler)
			adminRoutes.POST("/users", handlers.CreateUserHandler)
			adminRoutes.PATCH("/users/:id", handlers.UpdateUserHandler)
			adminRoutes.DELETE("/customers/:id", handlers.DeleteCustomerHandler)
			adminRoutes.POST("/configurations", handlers.CreateConfigOptionHandler)
			adminRoutes.PATCH("/configurations/:id", handlers.UpdateConfigOptionHandler)
			adminRoutes.DELETE("/configurations/:id", handlers.DeleteConfigOptionHandler)
		}
	}

	// Background jobs (follow-up reminders, session cleanup)
	jobs.StartScheduler(db.DB, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
