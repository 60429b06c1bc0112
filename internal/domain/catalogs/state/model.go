// Package state provides the CalculationState catalog: user-configured
// workflow labels controlling whether a calculation may still be edited.
//
// There is no transition table. A calculation's editability is a pure
// function of (is-new OR no-state OR state.editable); transitions happen by
// assigning a different state entry.
package state

import (
	"context"

	"quotis/internal/core/entity"
)

// State is a workflow label with an editable flag and a display color.
type State struct {
	entity.Catalog

	// Editable allows modifying calculations carrying this state
	Editable bool `db:"editable" json:"editable"`

	// Color is the display color used by the UI (hex string)
	Color string `db:"color" json:"color,omitempty"`
}

// New creates a new State with required fields.
func New(code, name string, editable bool) *State {
	return &State{
		Catalog:  entity.NewCatalog(code, name),
		Editable: editable,
	}
}

// Validate implements entity.Validatable.
func (s *State) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}
