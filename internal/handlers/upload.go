package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/middleware"
	"github.com/bizkart/backend/internal/models"
)

const imageSize = 200

var allowedExtensions = map[string]bool{
	"png": true,
	"jpg": true,
}

var (
	errExtensionNotAllowed = errors.New("File extension not allowed")
	errNotAnImage          = errors.New("File content is not an image")
)

type UploadHandler struct {
	DB        *gorm.DB
	StaticDir string
	BaseURL   string
}

func randomName(ext string) (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + "." + ext, nil
}

// saveImage validates, persists and resizes an uploaded image. The extension
// check runs before anything touches disk; the content sniff catches renamed
// non-image files that would pass it.
func (h *UploadHandler) saveImage(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedExtensions[ext] {
		return "", errExtensionNotAllowed
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return "", errNotAnImage
	}

	name, err := randomName(ext)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(h.StaticDir, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}
	resized := imaging.Resize(img, imageSize, imageSize, imaging.Lanczos)
	if err := imaging.Save(resized, path); err != nil {
		return "", err
	}

	return name, nil
}

func uploadError(c echo.Context, err error) error {
	if errors.Is(err, errExtensionNotAllowed) || errors.Is(err, errNotAnImage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "detail": err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err)
}

func (h *UploadHandler) Profile(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var business models.Business
	if err := h.DB.Where("owner_id = ?", user.ID).First(&business).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "business profile not found")
	}

	name, err := h.saveImage(file)
	if err != nil {
		return uploadError(c, err)
	}

	business.Logo = name
	if err := h.DB.Save(&business).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"filename": h.BaseURL + "/static/images/" + name,
	})
}

func (h *UploadHandler) ProductImage(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	var business models.Business
	if err := h.DB.First(&business, product.BusinessID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "business not found")
	}

	if business.OwnerID != user.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated to perform this action")
	}

	name, err := h.saveImage(file)
	if err != nil {
		return uploadError(c, err)
	}

	product.ProductImage = name
	if err := h.DB.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"filename": h.BaseURL + "/static/images/" + name,
	})
}
