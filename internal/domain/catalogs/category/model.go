// Package category provides the Category catalog: the middle level of the
// calculation hierarchy. Categories belong to a group and may carry their
// own margin table.
package category

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/entity"
	"quotis/internal/core/id"
	"quotis/internal/domain/margin"
)

// Category groups products inside a Group and owns a margin table applied
// to category-level amounts.
type Category struct {
	entity.Catalog

	// GroupID references the parent Group catalog entry
	GroupID id.ID `db:"group_id" json:"groupId"`

	// Description is an optional free-text note
	Description *string `db:"description" json:"description,omitempty"`

	// Margins is the tiered margin table, stored as child rows
	Margins margin.Table `db:"-" json:"margins"`
}

// New creates a new Category with required fields.
func New(code, name string, groupID id.ID) *Category {
	return &Category{
		Catalog: entity.NewCatalog(code, name),
		GroupID: groupID,
	}
}

// Validate implements entity.Validatable.
// Unlike group tables, category margin tables tolerate gaps between bands;
// amounts falling into a hole resolve to a zero rate. Overlaps are still
// rejected. See DESIGN.md for the recorded asymmetry decision.
func (c *Category) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(c.GroupID) {
		return apperror.NewValidation("group is required").
			WithDetail("field", "groupId")
	}

	if violations := margin.Validate(c.Margins, margin.AllowGaps); violations != nil {
		return apperror.NewValidation("invalid margin table").
			WithDetail("violations", violations)
	}

	return nil
}

// FindRate returns the margin rate for the given amount, 0 when the amount
// falls outside every band.
func (c *Category) FindRate(amount float64) float64 {
	return c.Margins.FindRate(amount)
}

// AddMargin appends a margin band. The table is validated as a whole on save.
func (c *Category) AddMargin(minimum, maximum, rate float64) {
	c.Margins = append(c.Margins, margin.NewRange(minimum, maximum, rate))
}
