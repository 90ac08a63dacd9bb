package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

// ListVisitsHandler returns visits matching the query filters. Sales
// reps only see their own reports.
func ListVisitsHandler(c echo.Context) error {
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
			filters.DateTo = t.Add(24*time.Hour - time.Second) // End of day
		}
	}

	visits, err := services.ListVisits(db.DB, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch visits")
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits})
}

// GetVisitHandler returns a single visit record
func GetVisitHandler(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"visit": visit})
}

// DeleteVisitHandler soft-deletes a visit. Submitted reports can only
// be removed by admins.
func DeleteVisitHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

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
	if visit.IsDone() && user.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Submitted reports can only be deleted by an admin")
	}

	if err := services.DeleteVisit(db.DB, visit.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete visit")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionDelete,
		"ShopVisit", visit.ID, visit.ShopName, "Visit deleted", visit, nil)

	return c.NoContent(http.StatusNoContent)
}

// PlannedVisitsHandler returns upcoming appointments
func PlannedVisitsHandler(c echo.Context) error {
	visits, err := services.GetPlannedVisits(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch planned visits")
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits})
}

// FollowUpsHandler returns submitted visits with an open follow-up
func FollowUpsHandler(c echo.Context) error {
	visits, err := services.GetVisitsRequiringFollowUp(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch follow-ups")
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits})
}

// VisitHistoryHandler returns the audit history of a visit
func VisitHistoryHandler(c echo.Context) error {
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

	logs, err := services.GetResourceAuditHistory(db.DB, "ShopVisit", visit.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch history")
	}
	return c.JSON(http.StatusOK, echo.Map{"history": logs})
}

// UploadVisitPhotoHandler attaches a photo to a visit
func UploadVisitPhotoHandler(c echo.Context) error {
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
	if visit.IsDone() {
		return echo.NewHTTPError(http.StatusConflict, "Submitted reports are locked")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	if err := services.ValidatePhotoUpload(fileHeader); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	key := services.GenerateVisitPhotoKey(visit.ID, fileHeader.Filename)
	result, err := services.Storage.Upload(c.Request().Context(), fileHeader, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store photo")
	}

	photos := append(visit.VisitPhotos, result.Key)
	if err := db.DB.Model(visit).Update("visit_photos", photos).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to attach photo")
	}

	return c.JSON(http.StatusCreated, echo.Map{"key": result.Key, "url": result.URL})
}

// GetVisitPhotoHandler streams a stored visit photo
func GetVisitPhotoHandler(c echo.Context) error {
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

	key := c.QueryParam("key")
	found := false
	for _, photo := range visit.VisitPhotos {
		if photo == key {
			found = true
			break
		}
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Photo not found on this visit")
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Photo not found")
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, contentType, reader)
}
