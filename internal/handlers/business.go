package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/middleware"
	"github.com/bizkart/backend/internal/models"
)

type BusinessHandler struct {
	DB *gorm.DB
}

func (h *BusinessHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		BusinessName        string `json:"business_name"`
		City                string `json:"city"`
		Region              string `json:"region"`
		BusinessDescription string `json:"business_description"`
		Logo                string `json:"logo"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var business models.Business
	if err := h.DB.First(&business, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "business not found")
	}

	if business.OwnerID != user.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated to perform this action")
	}

	business.BusinessName = req.BusinessName
	business.City = req.City
	business.Region = req.Region
	business.BusinessDescription = req.BusinessDescription
	if req.Logo != "" {
		business.Logo = req.Logo
	}

	if err := h.DB.Save(&business).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "data": business})
}
