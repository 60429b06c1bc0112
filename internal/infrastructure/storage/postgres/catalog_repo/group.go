package catalog_repo

import (
	"context"

	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/infrastructure/storage/postgres"
)

const (
	groupTable       = "cat_groups"
	groupMarginTable = "cat_group_margins"
)

// GroupRepo implements group.Repository.
type GroupRepo struct {
	*BaseCatalogRepo[*group.Group]
	margins marginStore
}

var _ group.Repository = (*GroupRepo)(nil)

// NewGroupRepo creates a new group repository.
func NewGroupRepo(txm *postgres.TxManager) *GroupRepo {
	return &GroupRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			groupTable,
			postgres.ExtractDBColumns[group.Group](),
			func() *group.Group { return &group.Group{} },
		),
		margins: marginStore{txm: txm, table: groupMarginTable, ownerCol: "group_id"},
	}
}

// Create inserts the group and its margin bands.
func (r *GroupRepo) Create(ctx context.Context, g *group.Group) error {
	if err := r.BaseCatalogRepo.Create(ctx, g); err != nil {
		return err
	}
	return r.margins.save(ctx, g.ID, g.Margins)
}

// Update saves the group and replaces its margin bands.
func (r *GroupRepo) Update(ctx context.Context, g *group.Group) error {
	if err := r.BaseCatalogRepo.Update(ctx, g); err != nil {
		return err
	}
	return r.margins.save(ctx, g.ID, g.Margins)
}

// GetByID loads the group with its margin table.
func (r *GroupRepo) GetByID(ctx context.Context, groupID id.ID) (*group.Group, error) {
	g, err := r.BaseCatalogRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Margins, err = r.margins.load(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

// GetByCode loads the group with its margin table.
func (r *GroupRepo) GetByCode(ctx context.Context, code string) (*group.Group, error) {
	g, err := r.BaseCatalogRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if g.Margins, err = r.margins.load(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

// List loads groups and attaches their margin tables in one batch.
func (r *GroupRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*group.Group], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, g := range result.Items {
		ids = append(ids, g.ID)
	}
	tables, err := r.margins.loadMany(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, g := range result.Items {
		g.Margins = tables[g.ID]
	}
	return result, nil
}
