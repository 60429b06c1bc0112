package handlers

import (
	"github.com/gin-gonic/gin"

	"quotis/internal/domain/catalogs/product"
	"quotis/internal/infrastructure/http/v1/dto"
)

// ProductHandler extends the generic catalog handler with category-scoped
// listing.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(
	catalog *CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest],
	service *product.Service,
) *ProductHandler {
	return &ProductHandler{
		CatalogHandler: catalog,
		service:        service,
	}
}

// ListByCategory handles GET /catalog/products/by-category/:id
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	categoryID, ok := h.ParseID(c)
	if !ok {
		return
	}

	products, err := h.service.ListByCategory(c.Request.Context(), categoryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": products})
}
