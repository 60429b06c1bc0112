package product

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/core/tx"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/category"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo       Repository
	categories category.Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, categories category.Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		categories:     categories,
	}

	base.Hooks().OnBeforeCreate(svc.checkCategoryExists)
	base.Hooks().OnBeforeUpdate(svc.checkCategoryExists)

	return svc
}

func (s *Service) checkCategoryExists(ctx context.Context, p *Product) error {
	exists, err := s.categories.Exists(ctx, p.CategoryID)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("field", "categoryId")
	}
	if !exists {
		return apperror.NewValidation("category does not exist").
			WithDetail("field", "categoryId").
			WithDetail("value", p.CategoryID.String())
	}
	return nil
}

// ListByCategory retrieves all products of a category.
func (s *Service) ListByCategory(ctx context.Context, categoryID id.ID) ([]*Product, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}
