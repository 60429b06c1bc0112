package category

import (
	"context"

	"quotis/internal/core/id"
	"quotis/internal/domain"
)

// Repository defines the interface for Category persistence.
type Repository interface {
	domain.CatalogRepository[*Category]

	// ListByGroup retrieves all categories belonging to a group.
	ListByGroup(ctx context.Context, groupID id.ID) ([]*Category, error)
}
