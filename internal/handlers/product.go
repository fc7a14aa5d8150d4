package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/middleware"
	"github.com/bizkart/backend/internal/models"
	"github.com/bizkart/backend/internal/mykafka"
	"github.com/bizkart/backend/internal/service/search"
	"github.com/bizkart/backend/internal/util"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type productRequest struct {
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	OriginalPrice       float64   `json:"original_price"`
	NewPrice            float64   `json:"new_price"`
	OfferExpirationDate time.Time `json:"offer_expiration_date"`
	ProductImage        string    `json:"product_image"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// discount is derived from the two prices, never client-supplied.
func discountPercent(original, newPrice float64) int {
	return int((original - newPrice) / original * 100)
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) indexProduct(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) removeFromIndex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.RemoveProduct(ctx, h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("ES remove error: %v", err)
	}
}

// ownerChain re-derives Product -> Business -> User for authorization.
func (h *ProductHandler) ownerChain(id uint) (*models.Product, *models.Business, *models.User, error) {
	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return nil, nil, nil, err
	}
	var business models.Business
	if err := h.DB.First(&business, product.BusinessID).Error; err != nil {
		return nil, nil, nil, err
	}
	var owner models.User
	if err := h.DB.First(&owner, business.OwnerID).Error; err != nil {
		return nil, nil, nil, err
	}
	return &product, &business, &owner, nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if req.OriginalPrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error"})
	}

	var business models.Business
	if err := h.DB.Where("owner_id = ?", user.ID).First(&business).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "business profile not found")
	}

	prod := models.Product{
		Name:                req.Name,
		Category:            req.Category,
		OriginalPrice:       req.OriginalPrice,
		NewPrice:            req.NewPrice,
		PercentageDiscount:  discountPercent(req.OriginalPrice, req.NewPrice),
		OfferExpirationDate: req.OfferExpirationDate,
		ProductImage:        req.ProductImage,
		BusinessID:          business.ID,
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	h.indexProduct(c, prod)

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "data": prod})
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	var items []models.Product
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"data":   items,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	product, business, owner, err := h.ownerChain(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"data": echo.Map{
			"product_details": product,
			"business_details": echo.Map{
				"name":        business.BusinessName,
				"city":        business.City,
				"region":      business.Region,
				"description": business.BusinessDescription,
				"logo":        business.Logo,
				"owner_id":    owner.ID,
				"business_id": business.ID,
				"email":       owner.Email,
				"join_date":   owner.JoinDate.Format(joinDateLayout),
			},
		},
	})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	product, _, owner, err := h.ownerChain(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	// Not a 404: the product exists, the caller just does not own it.
	if owner.ID != user.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated to perform this action")
	}

	if req.OriginalPrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error"})
	}

	product.Name = req.Name
	product.Category = req.Category
	product.OriginalPrice = req.OriginalPrice
	product.NewPrice = req.NewPrice
	product.PercentageDiscount = discountPercent(req.OriginalPrice, req.NewPrice)
	product.OfferExpirationDate = req.OfferExpirationDate
	if req.ProductImage != "" {
		product.ProductImage = req.ProductImage
	}

	if err := h.DB.Save(product).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})
	h.indexProduct(c, *product)

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "data": product})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	product, _, owner, err := h.ownerChain(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	if owner.ID != user.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated to perform this action")
	}

	if err := h.DB.Delete(&models.Product{}, product.ID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
	})
	h.removeFromIndex(c, product.ID)

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
