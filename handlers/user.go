package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func isValidRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleSalesRep:
		return true
	}
	return false
}

// ListUsersHandler returns all user accounts
func ListUsersHandler(c echo.Context) error {
	var users []models.User
	if err := db.DB.Order("name asc").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// CreateUserHandler creates a new user account
func CreateUserHandler(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name, email and password are required")
	}
	if req.Role == "" {
		req.Role = models.RoleSalesRep
	}
	if !isValidRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     req.Role,
		IsActive: true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "A user with this email already exists")
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionCreate,
		"User", user.ID, user.Name, "User account created", nil, user)

	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

// UpdateUserHandler updates name, role or active flag of an account
func UpdateUserHandler(c echo.Context) error {
	var user models.User
	if err := db.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	allowed := map[string]bool{"name": true, "role": true, "is_active": true}
	for key := range updates {
		if !allowed[key] {
			delete(updates, key)
		}
	}
	if role, ok := updates["role"].(string); ok && !isValidRole(role) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
	}

	before := user
	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
	}

	// Deactivated users lose their sessions immediately
	if active, ok := updates["is_active"].(bool); ok && !active {
		if err := services.DeleteAllUserSessions(db.DB, user.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke sessions")
		}
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionUpdate,
		"User", user.ID, user.Name, "User account updated", before, user)

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordHandler lets the authenticated user rotate their own
// password. All other sessions are revoked.
func ChangePasswordHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if !services.CheckPassword(req.CurrentPassword, user.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}

	hash, err := services.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	if err := db.DB.Model(user).Update("password", hash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update password")
	}
	if err := services.DeleteAllUserSessions(db.DB, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke sessions")
	}

	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}
