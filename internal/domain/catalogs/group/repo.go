package group

import (
	"quotis/internal/domain"
)

// Repository defines the interface for Group persistence.
// Implementations load and save the margin table together with the group.
type Repository interface {
	domain.CatalogRepository[*Group]
}
