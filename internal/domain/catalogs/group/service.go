package group

import (
	"quotis/internal/core/tx"
	"quotis/internal/domain"
)

// Service provides business logic for the Group catalog.
// Uses composition with domain.CatalogService for common CRUD operations;
// margin-table validation lives on the model.
type Service struct {
	*domain.CatalogService[*Group]
	repo Repository
}

// NewService creates a new Group service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Group]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "group",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
