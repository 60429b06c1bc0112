package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quotis/internal/core/entity"
	"quotis/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	Price  float64 `db:"price" json:"price"`
	Note   string  `db:"-" json:"note"`
	Hidden string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "code", "name", "price"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "note")
	assert.NotContains(t, cols, "Hidden")
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
			Code: "HW",
			Name: "Hardware",
		},
		Price: 9.95,
		Note:  "ignored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "HW", m["code"])
	assert.Equal(t, "Hardware", m["name"])
	assert.Equal(t, 9.95, m["price"])
	assert.NotContains(t, m, "note")
}

func TestStructToMapPointer(t *testing.T) {
	cat := &mockCatalog{Price: 1.5}
	m := StructToMap(cat)
	assert.Equal(t, 1.5, m["price"])
}
