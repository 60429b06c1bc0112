// Package task provides the Task catalog: reusable composite operations.
// A task carries ordered items, each priced through a quantity-bracket table
// with the same half-open range shape as margin tables.
package task

import (
	"context"
	"fmt"

	"quotis/internal/core/apperror"
	"quotis/internal/core/entity"
	"quotis/internal/core/id"
	"quotis/internal/core/types"
	"quotis/internal/domain/margin"
)

// Task is a composite operation attached to a category.
type Task struct {
	entity.Catalog

	// CategoryID references the Category the task belongs to
	CategoryID id.ID `db:"category_id" json:"categoryId"`

	// Unit is the unit of measure label (optional)
	Unit *string `db:"unit" json:"unit,omitempty"`

	// Items is the ordered table part, stored as child rows
	Items []Item `db:"-" json:"items"`
}

// Item is a priced step of a task. Margins map quantity brackets to a unit
// value; Rate carries the value for that bracket.
type Item struct {
	ID       id.ID        `db:"id" json:"id"`
	Name     string       `db:"name" json:"name"`
	Position int          `db:"position" json:"position"`
	Margins  margin.Table `db:"-" json:"margins"`
}

// New creates a new Task with required fields.
func New(code, name string, categoryID id.ID) *Task {
	return &Task{
		Catalog:    entity.NewCatalog(code, name),
		CategoryID: categoryID,
	}
}

// AddItem appends a task item and assigns its position.
func (t *Task) AddItem(name string, brackets margin.Table) *Item {
	t.Items = append(t.Items, Item{
		ID:       id.New(),
		Name:     name,
		Position: len(t.Items),
		Margins:  brackets,
	})
	return &t.Items[len(t.Items)-1]
}

// Validate implements entity.Validatable.
// Item bracket tables require contiguity, like group margin tables: a
// quantity must always resolve to exactly one bracket.
func (t *Task) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.CategoryID) {
		return apperror.NewValidation("category is required").
			WithDetail("field", "categoryId")
	}

	for i, item := range t.Items {
		if item.Name == "" {
			return apperror.NewValidation("item name is required").
				WithDetail("field", fmt.Sprintf("items[%d].name", i))
		}
		if violations := margin.Validate(item.Margins, margin.Contiguous); violations != nil {
			for vi := range violations {
				violations[vi].Path = fmt.Sprintf("items[%d].%s", i, violations[vi].Path)
			}
			return apperror.NewValidation("invalid item bracket table").
				WithDetail("violations", violations)
		}
	}

	return nil
}

// FindValue returns the item's unit value for the given quantity, 0 when the
// quantity falls outside every bracket.
func (i *Item) FindValue(quantity float64) float64 {
	return i.Margins.FindRate(quantity)
}

// ItemResult is one line of a task computation.
type ItemResult struct {
	ItemID id.ID   `json:"itemId"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
}

// Compute prices every item of the task for the given quantity.
// Each amount is Round2(value × quantity); the overall total is the sum.
func (t *Task) Compute(quantity float64) (results []ItemResult, overall float64) {
	results = make([]ItemResult, 0, len(t.Items))
	for i := range t.Items {
		item := &t.Items[i]
		value := item.FindValue(quantity)
		amount := types.Round2(value * quantity)
		results = append(results, ItemResult{
			ItemID: item.ID,
			Name:   item.Name,
			Value:  value,
			Amount: amount,
		})
		overall = types.Round2(overall + amount)
	}
	return results, overall
}
