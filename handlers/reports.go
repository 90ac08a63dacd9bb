package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportVisitsHandler streams the filtered visit list as an xlsx file
func ExportVisitsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	filters := services.VisitFilters{
		Status:     c.QueryParam("status"),
		CustomerID: c.QueryParam("customer_id"),
	}
	if !user.CanViewAllVisits() {
		filters.CreatedBy = user.ID
	}
	if dateFrom := c.QueryParam("date_from"); dateFrom != "" {
		if t, err := services.ParseDate(dateFrom); err == nil {
			filters.DateFrom = t
		}
	}
	if dateTo := c.QueryParam("date_to"); dateTo != "" {
		if t, err := services.ParseDate(dateTo); err == nil {
			filters.DateTo = t.Add(24*time.Hour - time.Second)
		}
	}

	buf, err := services.ExportVisitsToExcel(db.DB, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export visits")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionExport,
		"ShopVisit", "", "", "Visit list exported to Excel", nil, filters)

	filename := fmt.Sprintf("visits_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// VisitReportPDFHandler renders a submitted visit as a PDF document
func VisitReportPDFHandler(c echo.Context) error {
	visit, err := services.GetVisitByID(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch visit")
	}
	if !middleware.CanAccessVisit(c, visit) {
		return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
	}

	pdf, err := services.GenerateVisitReportPDF(visit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate PDF")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionExport,
		"ShopVisit", visit.ID, visit.ShopName, "Visit report exported to PDF", nil, nil)

	filename := fmt.Sprintf("visit_report_%s.pdf", visit.VisitDate.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
