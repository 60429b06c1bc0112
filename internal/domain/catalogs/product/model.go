// Package product provides the Product catalog: sellable entries copied
// into calculation items.
package product

import (
	"context"

	"quotis/internal/core/apperror"
	"quotis/internal/core/entity"
	"quotis/internal/core/id"
	"quotis/internal/core/types"
)

// Product is a catalog entry with a unit price. The name doubles as the
// item description when the product is added to a calculation.
type Product struct {
	entity.Catalog

	// CategoryID references the owning Category catalog entry
	CategoryID id.ID `db:"category_id" json:"categoryId"`

	// Unit is the unit of measure label (optional)
	Unit *string `db:"unit" json:"unit,omitempty"`

	// Price is the unit price, kept as decimal for exact catalog values
	Price types.Money `db:"price" json:"price"`

	// Supplier is an optional supplier reference text
	Supplier *string `db:"supplier" json:"supplier,omitempty"`
}

// New creates a new Product with required fields.
func New(code, name string, categoryID id.ID, price types.Money) *Product {
	return &Product{
		Catalog:    entity.NewCatalog(code, name),
		CategoryID: categoryID,
		Price:      price,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.CategoryID) {
		return apperror.NewValidation("category is required").
			WithDetail("field", "categoryId")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	return nil
}

// UnitOrEmpty returns the unit label or an empty string.
func (p *Product) UnitOrEmpty() string {
	if p.Unit == nil {
		return ""
	}
	return *p.Unit
}

// PriceFloat returns the unit price as float64, rounded to 2 decimals the way
// calculation items store it.
func (p *Product) PriceFloat() float64 {
	f, _ := p.Price.Round(types.MoneyScale).Float64()
	return f
}
