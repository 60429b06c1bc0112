package handlers

import (
	"github.com/gin-gonic/gin"

	"quotis/internal/domain/catalogs/category"
	"quotis/internal/infrastructure/http/v1/dto"
)

// CategoryHandler extends the generic catalog handler with group-scoped
// listing.
type CategoryHandler struct {
	*CatalogHandler[*category.Category, dto.CreateCategoryRequest, dto.UpdateCategoryRequest]
	service *category.Service
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(
	catalog *CatalogHandler[*category.Category, dto.CreateCategoryRequest, dto.UpdateCategoryRequest],
	service *category.Service,
) *CategoryHandler {
	return &CategoryHandler{
		CatalogHandler: catalog,
		service:        service,
	}
}

// ListByGroup handles GET /catalog/categories/by-group/:id
func (h *CategoryHandler) ListByGroup(c *gin.Context) {
	groupID, ok := h.ParseID(c)
	if !ok {
		return
	}

	categories, err := h.service.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": categories})
}
