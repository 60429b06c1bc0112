package product

import (
	"context"

	"quotis/internal/core/id"
	"quotis/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// ListByCategory retrieves all products of a category.
	ListByCategory(ctx context.Context, categoryID id.ID) ([]*Product, error)
}
