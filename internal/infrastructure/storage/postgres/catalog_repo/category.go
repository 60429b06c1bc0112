package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/infrastructure/storage/postgres"
)

const (
	categoryTable       = "cat_categories"
	categoryMarginTable = "cat_category_margins"
)

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
	margins marginStore
}

var _ category.Repository = (*CategoryRepo)(nil)

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			categoryTable,
			postgres.ExtractDBColumns[category.Category](),
			func() *category.Category { return &category.Category{} },
		),
		margins: marginStore{txm: txm, table: categoryMarginTable, ownerCol: "category_id"},
	}
}

// Create inserts the category and its margin bands.
func (r *CategoryRepo) Create(ctx context.Context, c *category.Category) error {
	if err := r.BaseCatalogRepo.Create(ctx, c); err != nil {
		return err
	}
	return r.margins.save(ctx, c.ID, c.Margins)
}

// Update saves the category and replaces its margin bands.
func (r *CategoryRepo) Update(ctx context.Context, c *category.Category) error {
	if err := r.BaseCatalogRepo.Update(ctx, c); err != nil {
		return err
	}
	return r.margins.save(ctx, c.ID, c.Margins)
}

// GetByID loads the category with its margin table.
func (r *CategoryRepo) GetByID(ctx context.Context, categoryID id.ID) (*category.Category, error) {
	c, err := r.BaseCatalogRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if c.Margins, err = r.margins.load(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByCode loads the category with its margin table.
func (r *CategoryRepo) GetByCode(ctx context.Context, code string) (*category.Category, error) {
	c, err := r.BaseCatalogRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.Margins, err = r.margins.load(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// List loads categories and attaches their margin tables in one batch.
func (r *CategoryRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*category.Category], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	if err := r.attachMargins(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

// ListByGroup retrieves all non-deleted categories of a group.
func (r *CategoryRepo) ListByGroup(ctx context.Context, groupID id.ID) ([]*category.Category, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"group_id": groupID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*category.Category
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by group: %w", err)
	}
	if err := r.attachMargins(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CategoryRepo) attachMargins(ctx context.Context, items []*category.Category) error {
	ids := make([]id.ID, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.ID)
	}
	tables, err := r.margins.loadMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range items {
		c.Margins = tables[c.ID]
	}
	return nil
}
