package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"quotis/internal/core/id"
	"quotis/internal/domain/margin"
	"quotis/internal/infrastructure/storage/postgres"
)

// marginStore persists the margin bands of one owner kind (group,
// category, task item) as child rows, replaced wholesale on save.
type marginStore struct {
	txm      *postgres.TxManager
	table    string
	ownerCol string
}

type marginRow struct {
	margin.Range
	OwnerID id.ID `db:"owner_id"`
}

func (s marginStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// load returns the margin table of one owner.
func (s marginStore) load(ctx context.Context, ownerID id.ID) (margin.Table, error) {
	tables, err := s.loadMany(ctx, []id.ID{ownerID})
	if err != nil {
		return nil, err
	}
	return tables[ownerID], nil
}

// loadMany returns margin tables keyed by owner, one query for the batch.
func (s marginStore) loadMany(ctx context.Context, ownerIDs []id.ID) (map[id.ID]margin.Table, error) {
	tables := make(map[id.ID]margin.Table, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return tables, nil
	}

	q := s.builder().
		Select("id", "minimum", "maximum", "rate", s.ownerCol+" AS owner_id").
		From(s.table).
		Where(squirrel.Eq{s.ownerCol: ownerIDs}).
		OrderBy("minimum")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build margin query: %w", err)
	}

	var rows []marginRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("load margins from %s: %w", s.table, err)
	}

	for _, row := range rows {
		tables[row.OwnerID] = append(tables[row.OwnerID], row.Range)
	}
	return tables, nil
}

// save replaces the owner's bands (delete existing, insert current).
func (s marginStore) save(ctx context.Context, ownerID id.ID, table margin.Table) error {
	querier := s.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + s.table + " WHERE " + s.ownerCol + " = $1"
	if _, err := querier.Exec(ctx, deleteSQL, ownerID); err != nil {
		return fmt.Errorf("delete margins from %s: %w", s.table, err)
	}

	if len(table) == 0 {
		return nil
	}

	q := s.builder().
		Insert(s.table).
		Columns("id", s.ownerCol, "minimum", "maximum", "rate")
	for _, band := range table {
		q = q.Values(band.ID, ownerID, band.Minimum, band.Maximum, band.Rate)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build margin insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert margins into %s: %w", s.table, err)
	}
	return nil
}
