package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/task"
	"quotis/internal/infrastructure/storage/postgres"
)

const (
	taskTable           = "cat_tasks"
	taskItemTable       = "cat_task_items"
	taskItemMarginTable = "cat_task_item_margins"
)

// TaskRepo implements task.Repository. Items are child rows; each item owns
// a bracket table stored like the catalog margin tables.
type TaskRepo struct {
	*BaseCatalogRepo[*task.Task]
	txm      *postgres.TxManager
	brackets marginStore
}

var _ task.Repository = (*TaskRepo)(nil)

// NewTaskRepo creates a new task repository.
func NewTaskRepo(txm *postgres.TxManager) *TaskRepo {
	return &TaskRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			taskTable,
			postgres.ExtractDBColumns[task.Task](),
			func() *task.Task { return &task.Task{} },
		),
		txm:      txm,
		brackets: marginStore{txm: txm, table: taskItemMarginTable, ownerCol: "item_id"},
	}
}

// Create inserts the task and its items.
func (r *TaskRepo) Create(ctx context.Context, t *task.Task) error {
	if err := r.BaseCatalogRepo.Create(ctx, t); err != nil {
		return err
	}
	return r.saveItems(ctx, t)
}

// Update saves the task and replaces its items.
func (r *TaskRepo) Update(ctx context.Context, t *task.Task) error {
	if err := r.BaseCatalogRepo.Update(ctx, t); err != nil {
		return err
	}
	return r.saveItems(ctx, t)
}

// GetByID loads the task with its items and bracket tables.
func (r *TaskRepo) GetByID(ctx context.Context, taskID id.ID) (*task.Task, error) {
	t, err := r.BaseCatalogRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByCode loads the task with its items and bracket tables.
func (r *TaskRepo) GetByCode(ctx context.Context, code string) (*task.Task, error) {
	t, err := r.BaseCatalogRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List loads tasks with their items.
func (r *TaskRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*task.Task], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, t := range result.Items {
		if err := r.loadItems(ctx, t); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ListByCategory retrieves all non-deleted tasks of a category.
func (r *TaskRepo) ListByCategory(ctx context.Context, categoryID id.ID) ([]*task.Task, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"category_id": categoryID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*task.Task
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by category: %w", err)
	}
	for _, t := range items {
		if err := r.loadItems(ctx, t); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *TaskRepo) loadItems(ctx context.Context, t *task.Task) error {
	q := r.Builder().
		Select("id", "name", "position").
		From(taskItemTable).
		Where(squirrel.Eq{"task_id": t.ID}).
		OrderBy("position")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build item query: %w", err)
	}

	t.Items = nil
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &t.Items, sql, args...); err != nil {
		return fmt.Errorf("load task items: %w", err)
	}

	itemIDs := make([]id.ID, 0, len(t.Items))
	for i := range t.Items {
		itemIDs = append(itemIDs, t.Items[i].ID)
	}
	tables, err := r.brackets.loadMany(ctx, itemIDs)
	if err != nil {
		return err
	}
	for i := range t.Items {
		t.Items[i].Margins = tables[t.Items[i].ID]
	}
	return nil
}

// saveItems replaces the task's items and bracket rows wholesale.
// The bracket table has ON DELETE CASCADE from items, so deleting the
// items clears both levels.
func (r *TaskRepo) saveItems(ctx context.Context, t *task.Task) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + taskItemTable + " WHERE task_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, t.ID); err != nil {
		return fmt.Errorf("delete task items: %w", err)
	}

	if len(t.Items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(taskItemTable).
		Columns("id", "task_id", "name", "position")
	for i := range t.Items {
		q = q.Values(t.Items[i].ID, t.ID, t.Items[i].Name, t.Items[i].Position)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build item insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert task items: %w", err)
	}

	for i := range t.Items {
		if err := r.brackets.save(ctx, t.Items[i].ID, t.Items[i].Margins); err != nil {
			return err
		}
	}
	return nil
}
