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

// ListConfigOptionsHandler returns form option lists. With a type
// query param only that list is returned, otherwise all lists grouped
// by type.
func ListConfigOptionsHandler(c echo.Context) error {
	if configType := c.QueryParam("type"); configType != "" {
		options, err := services.GetConfigOptions(db.DB, configType)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch options")
		}
		return c.JSON(http.StatusOK, echo.Map{"options": options})
	}

	grouped, err := services.GetAllConfigOptions(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch options")
	}
	return c.JSON(http.StatusOK, echo.Map{"options": grouped})
}

// CreateConfigOptionHandler adds an option to a form option list
func CreateConfigOptionHandler(c echo.Context) error {
	var option models.Configuration
	if err := c.Bind(&option); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	option.ID = ""
	if err := services.CreateConfigOption(db.DB, &option); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"option": option})
}

// UpdateConfigOptionHandler updates an option's label, order or active flag
func UpdateConfigOptionHandler(c echo.Context) error {
	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	allowed := map[string]bool{"config_name": true, "display_order": true, "is_active": true}
	for key := range updates {
		if !allowed[key] {
			delete(updates, key)
		}
	}

	option, err := services.UpdateConfigOption(db.DB, c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Option not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update option")
	}
	return c.JSON(http.StatusOK, echo.Map{"option": option})
}

// DeleteConfigOptionHandler deactivates an option
func DeleteConfigOptionHandler(c echo.Context) error {
	if err := services.DeleteConfigOption(db.DB, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete option")
	}
	return c.NoContent(http.StatusNoContent)
}
