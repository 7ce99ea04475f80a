package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// queryInt returns 0 for absent or malformed values so the service default
// applies.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	q := domain.ProductQuery{
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     domain.SortOrder(c.Query("sort")),
	}

	page, err := h.productService.QueryProducts(c.Request.Context(), q)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, domain.ProductListResponse{
		Success: true,
		Data:    page.Items,
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	})
}

// GetProduct answers unknown ids with success and null data.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	product, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusOK, domain.ProductResponse{Success: true, Data: nil})
			return
		}

		h.logger.Error("Failed to get product",
			zap.String("product_id", productID),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, domain.ProductResponse{Success: true, Data: product})
}

func (h *ProductHandler) ProductsByCategory(c *gin.Context) {
	grouped, err := h.productService.ProductsByCategory(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, domain.ProductsByCategoryResponse{Success: true, Data: grouped})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		fail(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrProductExists) {
			fail(c, http.StatusConflict, "Product already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, domain.ProductResponse{Success: true, Data: product})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	err := h.productService.DeleteProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusOK, domain.ProductResponse{Success: true, Data: nil})
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
