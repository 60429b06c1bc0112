package task

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/core/tx"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/category"
)

// Service provides business logic for the Task catalog.
type Service struct {
	*domain.CatalogService[*Task]
	repo       Repository
	categories category.Repository
}

// NewService creates a new Task service.
func NewService(repo Repository, categories category.Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Task]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "task",
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

func (s *Service) checkCategoryExists(ctx context.Context, t *Task) error {
	exists, err := s.categories.Exists(ctx, t.CategoryID)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("field", "categoryId")
	}
	if !exists {
		return apperror.NewValidation("category does not exist").
			WithDetail("field", "categoryId").
			WithDetail("value", t.CategoryID.String())
	}
	return nil
}

// ListByCategory retrieves all tasks of a category.
func (s *Service) ListByCategory(ctx context.Context, categoryID id.ID) ([]*Task, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

// Compute prices a task for the given quantity. Quantity must be positive;
// an unknown task maps to a not-found error.
func (s *Service) Compute(ctx context.Context, taskID id.ID, quantity float64) ([]ItemResult, float64, error) {
	if quantity <= 0 {
		return nil, 0, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	t, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, 0, err
	}

	results, overall := t.Compute(quantity)
	return results, overall, nil
}
