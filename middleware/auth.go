package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shop_visit_app_go/config"
	"shop_visit_app_go/db"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "shop_visit_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// RequireAuth is middleware that requires a valid session
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			session, err := services.ValidateSession(db.DB, cookie.Value)
			if err != nil {
				ClearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Session invalid or expired")
			}

			if !session.User.IsActive {
				ClearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentSession retrieves the current session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionCookie writes the session cookie to the response
func SetSessionCookie(c echo.Context, session *models.Session) {
	var isProduction bool
	if cfg, ok := c.Get("config").(*config.Config); ok {
		isProduction = cfg.Environment == "production"
	}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	var isProduction bool
	if cfg, ok := c.Get("config").(*config.Config); ok {
		isProduction = cfg.Environment == "production"
	}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}

// CanAccessVisit checks whether the current user may read a visit
func CanAccessVisit(c echo.Context, visit *models.ShopVisit) bool {
	user := GetCurrentUser(c)
	if user == nil {
		return false
	}
	if user.CanViewAllVisits() {
		return true
	}
	if visit.CreatedByID != nil && *visit.CreatedByID == user.ID {
		return true
	}
	if visit.AssignedUserID != nil && *visit.AssignedUserID == user.ID {
		return true
	}
	return false
}
