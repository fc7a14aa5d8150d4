package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/auth"
	"github.com/bizkart/backend/internal/models"
)

type Auth struct {
	DB        *gorm.DB
	JWTSecret []byte
}

// RequireUser resolves the bearer token into a user and stores it on the
// context. A valid signature whose user is gone maps to 404, anything else
// that fails maps to 401.
func (a *Auth) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		rawToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if rawToken == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		user, err := auth.VerifyToken(a.DB, rawToken, a.JWTSecret)
		if err != nil {
			if errors.Is(err, auth.ErrUserGone) {
				return echo.NewHTTPError(http.StatusNotFound, "user no longer exists")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user", user)
		return next(c)
	}
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get("user").(*models.User); ok {
		return u
	}
	return nil
}
