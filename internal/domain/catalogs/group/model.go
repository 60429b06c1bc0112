// Package group provides the Group catalog: the coarsest level of the
// calculation hierarchy. Each group owns a margin table applied to the
// aggregated amount of its calculation groups.
package group

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/entity"
	"quotis/internal/domain/margin"
)

// Group is a top-level category family with a contiguous margin table.
type Group struct {
	entity.Catalog

	// Description is an optional free-text note
	Description *string `db:"description" json:"description,omitempty"`

	// Margins is the tiered margin table, stored as child rows
	Margins margin.Table `db:"-" json:"margins"`
}

// New creates a new Group with required fields.
func New(code, name string) *Group {
	return &Group{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
// Group margin tables must be contiguous: a gap between bands would leave
// amounts without a defined rate and is reported as "minimum_discontinued".
func (g *Group) Validate(ctx context.Context) error {
	if err := g.Catalog.Validate(ctx); err != nil {
		return err
	}

	if violations := margin.Validate(g.Margins, margin.Contiguous); violations != nil {
		return apperror.NewValidation("invalid margin table").
			WithDetail("violations", violations)
	}

	return nil
}

// FindRate returns the margin rate for the given amount, 0 when the amount
// falls outside every band.
func (g *Group) FindRate(amount float64) float64 {
	return g.Margins.FindRate(amount)
}

// AddMargin appends a margin band. The table is validated as a whole on save.
func (g *Group) AddMargin(minimum, maximum, rate float64) {
	g.Margins = append(g.Margins, margin.NewRange(minimum, maximum, rate))
}
