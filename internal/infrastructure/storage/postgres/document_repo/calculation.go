package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/documents/calculation"
	"quotis/internal/infrastructure/storage/postgres"
)

const (
	calculationTable         = "doc_calculations"
	calculationGroupTable    = "doc_calculation_groups"
	calculationCategoryTable = "doc_calculation_categories"
	calculationItemTable     = "doc_calculation_items"
	calculationNumberSeq     = "doc_calculations_number_seq"
)

// CalculationRepo implements calculation.Repository. The hierarchy lives in
// three child tables chained by ON DELETE CASCADE; saving replaces it
// wholesale under the document's optimistic lock.
type CalculationRepo struct {
	*BaseDocumentRepo[*calculation.Calculation]
	txm    *postgres.TxManager
	states state.Repository
}

var _ calculation.Repository = (*CalculationRepo)(nil)

// NewCalculationRepo creates a new calculation repository.
func NewCalculationRepo(txm *postgres.TxManager, states state.Repository) *CalculationRepo {
	return &CalculationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			calculationTable,
			postgres.ExtractDBColumns[calculation.Calculation](),
			func() *calculation.Calculation { return &calculation.Calculation{} },
		),
		txm:    txm,
		states: states,
	}
}

// Create inserts the document and its hierarchy.
func (r *CalculationRepo) Create(ctx context.Context, calc *calculation.Calculation) error {
	if err := r.BaseDocumentRepo.Create(ctx, calc); err != nil {
		return err
	}
	return r.saveHierarchy(ctx, calc)
}

// Update saves the document under its optimistic lock and replaces the
// hierarchy.
func (r *CalculationRepo) Update(ctx context.Context, calc *calculation.Calculation) error {
	if err := r.BaseDocumentRepo.Update(ctx, calc); err != nil {
		return err
	}
	calc.Version++
	return r.saveHierarchy(ctx, calc)
}

// GetByID loads the document with its hierarchy and resolved state.
func (r *CalculationRepo) GetByID(ctx context.Context, calcID id.ID) (*calculation.Calculation, error) {
	calc, err := r.BaseDocumentRepo.GetByID(ctx, calcID)
	if err != nil {
		return nil, err
	}
	if err := r.loadHierarchy(ctx, calc); err != nil {
		return nil, err
	}
	if err := r.resolveState(ctx, calc); err != nil {
		return nil, err
	}
	return calc, nil
}

// List retrieves headers with their states resolved; the hierarchy stays
// unloaded for listings.
func (r *CalculationRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*calculation.Calculation], error) {
	result, err := r.BaseDocumentRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, calc := range result.Items {
		if err := r.resolveState(ctx, calc); err != nil {
			return result, err
		}
	}
	return result, nil
}

// NextNumber reserves the next document number from the sequence.
func (r *CalculationRepo) NextNumber(ctx context.Context) (string, error) {
	var next int64
	sql := fmt.Sprintf("SELECT nextval('%s')", calculationNumberSeq)
	if err := r.querier(ctx).QueryRow(ctx, sql).Scan(&next); err != nil {
		return "", fmt.Errorf("next calculation number: %w", err)
	}
	return fmt.Sprintf("Q-%06d", next), nil
}

func (r *CalculationRepo) resolveState(ctx context.Context, calc *calculation.Calculation) error {
	if calc.StateID == nil {
		calc.State = nil
		return nil
	}
	st, err := r.states.GetByID(ctx, *calc.StateID)
	if err != nil {
		if apperror.IsNotFound(err) {
			// dangling reference behaves like a locked document
			calc.State = nil
			return nil
		}
		return fmt.Errorf("resolve state %s: %w", calc.StateID, err)
	}
	calc.State = st
	return nil
}

// row types carry the parent references and positions the domain model
// does not need.

type groupRow struct {
	calculation.Group
	DocumentID id.ID `db:"document_id"`
	Position   int   `db:"position"`
}

type categoryRow struct {
	calculation.Category
	GroupRowID id.ID `db:"group_row_id"`
	Position   int   `db:"position"`
}

type itemRow struct {
	calculation.Item
	CategoryRowID id.ID `db:"category_row_id"`
	Position      int   `db:"position"`
}

func (r *CalculationRepo) loadHierarchy(ctx context.Context, calc *calculation.Calculation) error {
	querier := r.txm.GetQuerier(ctx)

	gq := r.Builder().
		Select("id", "group_id", "code", "amount", "margin", "document_id", "position").
		From(calculationGroupTable).
		Where(squirrel.Eq{"document_id": calc.ID}).
		OrderBy("position")
	gsql, gargs, err := gq.ToSql()
	if err != nil {
		return fmt.Errorf("build group query: %w", err)
	}

	var groupRows []groupRow
	if err := pgxscan.Select(ctx, querier, &groupRows, gsql, gargs...); err != nil {
		return fmt.Errorf("load calculation groups: %w", err)
	}

	calc.Groups = make([]calculation.Group, 0, len(groupRows))
	groupIndex := make(map[id.ID]int, len(groupRows))
	var groupIDs []id.ID
	for _, row := range groupRows {
		groupIndex[row.ID] = len(calc.Groups)
		groupIDs = append(groupIDs, row.ID)
		calc.Groups = append(calc.Groups, row.Group)
	}
	if len(groupIDs) == 0 {
		return nil
	}

	cq := r.Builder().
		Select("id", "category_id", "code", "amount", "group_row_id", "position").
		From(calculationCategoryTable).
		Where(squirrel.Eq{"group_row_id": groupIDs}).
		OrderBy("position")
	csql, cargs, err := cq.ToSql()
	if err != nil {
		return fmt.Errorf("build category query: %w", err)
	}

	var categoryRows []categoryRow
	if err := pgxscan.Select(ctx, querier, &categoryRows, csql, cargs...); err != nil {
		return fmt.Errorf("load calculation categories: %w", err)
	}

	categoryLoc := make(map[id.ID][2]int, len(categoryRows))
	var categoryIDs []id.ID
	for _, row := range categoryRows {
		gi, ok := groupIndex[row.GroupRowID]
		if !ok {
			continue
		}
		categoryLoc[row.ID] = [2]int{gi, len(calc.Groups[gi].Categories)}
		categoryIDs = append(categoryIDs, row.ID)
		calc.Groups[gi].Categories = append(calc.Groups[gi].Categories, row.Category)
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	iq := r.Builder().
		Select("id", "description", "unit", "quantity", "price", "category_row_id", "position").
		From(calculationItemTable).
		Where(squirrel.Eq{"category_row_id": categoryIDs}).
		OrderBy("position")
	isql, iargs, err := iq.ToSql()
	if err != nil {
		return fmt.Errorf("build item query: %w", err)
	}

	var itemRows []itemRow
	if err := pgxscan.Select(ctx, querier, &itemRows, isql, iargs...); err != nil {
		return fmt.Errorf("load calculation items: %w", err)
	}

	for _, row := range itemRows {
		loc, ok := categoryLoc[row.CategoryRowID]
		if !ok {
			continue
		}
		cat := &calc.Groups[loc[0]].Categories[loc[1]]
		cat.Items = append(cat.Items, row.Item)
	}
	return nil
}

// saveHierarchy replaces the whole table part. Deleting the group rows
// cascades through categories and items.
func (r *CalculationRepo) saveHierarchy(ctx context.Context, calc *calculation.Calculation) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + calculationGroupTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, calc.ID); err != nil {
		return fmt.Errorf("delete calculation groups: %w", err)
	}
	if len(calc.Groups) == 0 {
		return nil
	}

	gq := r.Builder().
		Insert(calculationGroupTable).
		Columns("id", "document_id", "group_id", "code", "amount", "margin", "position")
	cq := r.Builder().
		Insert(calculationCategoryTable).
		Columns("id", "group_row_id", "category_id", "code", "amount", "position")
	iq := r.Builder().
		Insert(calculationItemTable).
		Columns("id", "category_row_id", "description", "unit", "quantity", "price", "position")

	haveCategories := false
	haveItems := false

	for gi := range calc.Groups {
		g := &calc.Groups[gi]
		gq = gq.Values(g.ID, calc.ID, g.GroupID, g.Code, g.Amount, g.Margin, gi)

		for ci := range g.Categories {
			c := &g.Categories[ci]
			cq = cq.Values(c.ID, g.ID, c.CategoryID, c.Code, c.Amount, ci)
			haveCategories = true

			for ii := range c.Items {
				item := &c.Items[ii]
				iq = iq.Values(item.ID, c.ID, item.Description, item.Unit, item.Quantity, item.Price, ii)
				haveItems = true
			}
		}
	}

	sql, args, err := gq.ToSql()
	if err != nil {
		return fmt.Errorf("build group insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert calculation groups: %w", err)
	}

	if haveCategories {
		sql, args, err = cq.ToSql()
		if err != nil {
			return fmt.Errorf("build category insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert calculation categories: %w", err)
		}
	}

	if haveItems {
		sql, args, err = iq.ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert calculation items: %w", err)
		}
	}
	return nil
}
