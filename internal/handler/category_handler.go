package handler

import (
	"errors"
	"net/http"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

func NewCategoryHandler(productService service.ProductService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		productService: productService,
		logger:         logger,
	}
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, domain.CategoryListResponse{Success: true, Data: categories})
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req domain.CreateCategoryRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		fail(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	category, err := h.productService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryExists) {
			fail(c, http.StatusConflict, "Category already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, domain.CategoryResponse{Success: true, Data: category})
}
