package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/services"
)

// ImportTemplateHandler streams the xlsx import template
func ImportTemplateHandler(c echo.Context) error {
	buf, err := services.GenerateImportTemplate()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate template")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="import_template.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportHandler accepts an xlsx upload and bulk-creates customers and
// appointment visits
func ImportHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > 20*1024*1024 {
		return echo.NewHTTPError(http.StatusBadRequest, "file exceeds maximum allowed size of 20MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	started := time.Now()
	result, err := services.BulkImportFromExcel(db.DB, user.ID, file)
	if err != nil {
		if result != nil {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":  err.Error(),
				"result": result,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"result":   result,
		"duration": fmt.Sprintf("%dms", time.Since(started).Milliseconds()),
	})
}
