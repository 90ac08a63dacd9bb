package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shop_visit_app_go/models"
)

var DB *gorm.DB

// Initialize sets up the database connection with WAL mode for concurrency
func Initialize(dbPath string, environment string) error {
	var err error

	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}

	// Enable WAL mode for better concurrency support
	dsn := dbPath + "?_journal_mode=WAL"

	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (WAL mode enabled)")
	return nil
}

// Migrate runs the schema migrations for every application model
func Migrate() error {
	return AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Customer{},
		&models.ShopVisit{},
		&models.AuditLog{},
		&models.Configuration{},
	)
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(targets ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(targets...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
