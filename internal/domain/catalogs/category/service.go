package category

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/core/tx"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/group"
)

// Service provides business logic for the Category catalog.
type Service struct {
	*domain.CatalogService[*Category]
	repo   Repository
	groups group.Repository
}

// NewService creates a new Category service.
func NewService(repo Repository, groups group.Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "category",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		groups:         groups,
	}

	base.Hooks().OnBeforeCreate(svc.checkGroupExists)
	base.Hooks().OnBeforeUpdate(svc.checkGroupExists)

	return svc
}

// checkGroupExists verifies the parent group reference.
func (s *Service) checkGroupExists(ctx context.Context, c *Category) error {
	exists, err := s.groups.Exists(ctx, c.GroupID)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("field", "groupId")
	}
	if !exists {
		return apperror.NewValidation("group does not exist").
			WithDetail("field", "groupId").
			WithDetail("value", c.GroupID.String())
	}
	return nil
}

// ListByGroup retrieves all categories of a group.
func (s *Service) ListByGroup(ctx context.Context, groupID id.ID) ([]*Category, error) {
	return s.repo.ListByGroup(ctx, groupID)
}
