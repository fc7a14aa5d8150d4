package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/handlers"
	"github.com/bizkart/backend/internal/middleware"
)

type Deps struct {
	DB              *gorm.DB
	Auth            *middleware.Auth
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	ProductHandler  *handlers.ProductHandler
	BusinessHandler *handlers.BusinessHandler
	UploadHandler   *handlers.UploadHandler
	SearchHandler   *handlers.SearchHandler
	StaticDir       string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.JSON(200, echo.Map{"Message": "Hello World"}) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Static("/static", d.StaticDir)

	e.POST("/token", d.AuthHandler.Token)
	e.POST("/registration", d.AuthHandler.Register)
	e.GET("/verification", d.AuthHandler.Verification)

	e.GET("/search", d.SearchHandler.Search)
	e.GET("/product", d.ProductHandler.GetProducts)
	e.GET("/product/:id", d.ProductHandler.GetProduct)

	authed := e.Group("", d.Auth.RequireUser)

	authed.POST("/user/me", d.UserHandler.Me)
	authed.POST("/uploadfile/profile", d.UploadHandler.Profile)
	authed.POST("/uploadfile/product/:id", d.UploadHandler.ProductImage)
	authed.POST("/products", d.ProductHandler.CreateProduct)
	authed.PUT("/product/:id", d.ProductHandler.UpdateProduct)
	authed.DELETE("/product/:id", d.ProductHandler.DeleteProduct)
	authed.POST("/business/:id", d.BusinessHandler.Update)
}
