package catalog_repo

import (
	"testing"

	"quotis/internal/domain/filter"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "price"}, func() any { return nil })
}

func TestApplyAdvancedFiltersOperators(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "greater",
			item:     filter.Item{Field: "price", Operator: filter.Greater, Value: 10},
			wantSQL:  "SELECT id, price FROM test_table WHERE price > $1",
			wantArgs: []any{10},
		},
		{
			name:     "less",
			item:     filter.Item{Field: "price", Operator: filter.Less, Value: 5},
			wantSQL:  "SELECT id, price FROM test_table WHERE price < $1",
			wantArgs: []any{5},
		},
		{
			name:     "contains",
			item:     filter.Item{Field: "price", Operator: filter.Contains, Value: "99"},
			wantSQL:  "SELECT id, price FROM test_table WHERE price ILIKE $1",
			wantArgs: []any{"%99%"},
		},
		{
			name:     "null",
			item:     filter.Item{Field: "price", Operator: filter.IsNull},
			wantSQL:  "SELECT id, price FROM test_table WHERE price IS NULL",
			wantArgs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{tt.item})
			if err != nil {
				t.Fatalf("applyAdvancedFilters failed: %v", err)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args count mismatch: want %d, got %d", len(tt.wantArgs), len(args))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("arg %d mismatch: want %v, got %v", i, tt.wantArgs[i], args[i])
				}
			}
		})
	}
}

func TestApplyAdvancedFiltersRejectsUnknownColumn(t *testing.T) {
	repo := testRepo()

	_, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{
		{Field: "password", Operator: filter.Equal, Value: "x"},
	})
	if err == nil {
		t.Fatal("unknown column must be rejected")
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "name ASC", false},
		{"price", "price ASC", false},
		{"-price", "price DESC", false},
		{"+id", "id ASC", false},
		{"drop table", "", true},
	}

	for _, tt := range tests {
		got, err := repo.parseOrderBy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseOrderBy(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOrderBy(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOrderBy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
