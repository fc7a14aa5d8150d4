package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/middleware"
	"github.com/bizkart/backend/internal/models"
)

const joinDateLayout = "Jan 02 2006"

type UserHandler struct {
	DB      *gorm.DB
	BaseURL string
}

func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var business models.Business
	if err := h.DB.Where("owner_id = ?", user.ID).First(&business).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "business profile not found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"data": echo.Map{
			"username":    user.Username,
			"email":       user.Email,
			"verified":    user.IsVerified,
			"joined_date": user.JoinDate.Format(joinDateLayout),
			"logo":        h.BaseURL + "/static/images/" + business.Logo,
		},
	})
}
