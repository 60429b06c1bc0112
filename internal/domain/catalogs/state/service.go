package state

import (
	"quotis/internal/core/tx"
	"quotis/internal/domain"
)

// Service provides business logic for the State catalog.
type Service struct {
	*domain.CatalogService[*State]
	repo Repository
}

// NewService creates a new State service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*State]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "state",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
