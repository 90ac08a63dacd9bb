package handlers

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop_visit_app_go/config"
	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique shared memory name isolates tests while async goroutines
	// keep seeing the same database
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)

	err = testDB.Exec("PRAGMA journal_mode=WAL;").Error
	assert.NoError(t, err)

	if services.Storage == nil {
		services.Storage = services.NewLocalStorage("tmp/test_uploads")
	}

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Customer{},
		&models.ShopVisit{},
		&models.AuditLog{},
		&models.Configuration{},
	)
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	// Fresh editor registry per test database
	Editors = services.NewEditorSessionManager(services.NewGormVisitStore(testDB), nil)

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment: "test",
	})

	return e, c, rec
}

func seedUser(t *testing.T, testDB *gorm.DB, role string) *models.User {
	t.Helper()
	hash, err := services.HashPassword("secret-password")
	assert.NoError(t, err)
	user := &models.User{
		Name:     "Anna Kelly",
		Email:    "anna+" + uuid.New().String()[:8] + "@shopvisits.app",
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	assert.NoError(t, testDB.Create(user).Error)
	return user
}

func seedShop(t *testing.T, testDB *gorm.DB) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		ShopName:      "Corner Stores Ltd",
		ShopType:      "convenience",
		City:          "Cork",
		ContactPerson: "Pat Murphy",
	}
	assert.NoError(t, testDB.Create(customer).Error)
	return customer
}

// asUser puts an authenticated user into the request context the way
// the auth middleware would
func asUser(c echo.Context, user *models.User) {
	c.Set(middleware.ContextKeyUser, user)
}

// assertHTTPError checks a handler returned an echo HTTP error with
// the given status
func assertHTTPError(t *testing.T, err error, status int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if assert.True(t, ok, "expected an *echo.HTTPError, got %v", err) {
		assert.Equal(t, status, httpErr.Code)
	}
}
