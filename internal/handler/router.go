package handler

import (
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(productService service.ProductService, logger *zap.Logger) *gin.Engine {
	productHandler := NewProductHandler(productService, logger)
	categoryHandler := NewCategoryHandler(productService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	api := router.Group("/api")
	{
		api.GET("/products", productHandler.ListProducts)
		api.POST("/products", productHandler.CreateProduct)
		api.GET("/products/:id", productHandler.GetProduct)
		api.DELETE("/products/:id", productHandler.DeleteProduct)
		api.GET("/products-by-category", productHandler.ProductsByCategory)
		api.GET("/categories", categoryHandler.ListCategories)
		api.POST("/categories", categoryHandler.CreateCategory)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "healthy"})
		})
	}

	return router
}
