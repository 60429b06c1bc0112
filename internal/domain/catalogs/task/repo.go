package task

import (
	"context"

	"quotis/internal/core/id"
	"quotis/internal/domain"
)

// Repository defines the interface for Task persistence.
// Implementations load and save items with their bracket tables.
type Repository interface {
	domain.CatalogRepository[*Task]

	// ListByCategory retrieves all tasks of a category.
	ListByCategory(ctx context.Context, categoryID id.ID) ([]*Task, error)
}
