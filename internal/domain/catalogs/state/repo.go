package state

import (
	"quotis/internal/domain"
)

// Repository defines the interface for State persistence.
type Repository interface {
	domain.CatalogRepository[*State]
}
