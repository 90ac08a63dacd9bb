package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"shop_visit_app_go/db"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

// ListCustomersHandler returns customers, optionally filtered by a
// search term on shop name or city
func ListCustomersHandler(c echo.Context) error {
	customers, err := services.ListCustomers(db.DB, c.QueryParam("search"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch customers")
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": customers})
}

// GetCustomerHandler returns a single customer
func GetCustomerHandler(c echo.Context) error {
	customer, err := services.GetCustomerByID(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch customer")
	}
	return c.JSON(http.StatusOK, echo.Map{"customer": customer})
}

// CreateCustomerHandler creates a new customer record
func CreateCustomerHandler(c echo.Context) error {
	var customer models.Customer
	if err := c.Bind(&customer); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if customer.ShopName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "shop name is required")
	}

	customer.ID = ""
	if err := services.CreateCustomer(db.DB, &customer); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create customer")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionCreate,
		"Customer", customer.ID, customer.ShopName, "Customer created", nil, customer)

	return c.JSON(http.StatusCreated, echo.Map{"customer": customer})
}

// UpdateCustomerHandler applies partial updates to a customer
func UpdateCustomerHandler(c echo.Context) error {
	customer, err := services.GetCustomerByID(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch customer")
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	delete(updates, "id")
	delete(updates, "created_at")
	delete(updates, "updated_at")

	before := *customer
	if err := services.UpdateCustomer(db.DB, customer.ID, updates); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update customer")
	}

	updated, err := services.GetCustomerByID(db.DB, customer.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch customer")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionUpdate,
		"Customer", customer.ID, updated.ShopName, "Customer updated", before, updated)

	return c.JSON(http.StatusOK, echo.Map{"customer": updated})
}

// DeleteCustomerHandler soft-deletes a customer
func DeleteCustomerHandler(c echo.Context) error {
	customer, err := services.GetCustomerByID(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch customer")
	}

	if err := services.DeleteCustomer(db.DB, customer.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete customer")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionDelete,
		"Customer", customer.ID, customer.ShopName, "Customer deleted", customer, nil)

	return c.NoContent(http.StatusNoContent)
}
