// Package margin implements tiered margin bands: half-open amount ranges
// carrying a rate, with lookup and overlap/contiguity validation.
//
// Group and task-item tables must be contiguous; category tables tolerate
// gaps. An amount outside every band resolves to a zero rate rather than an
// error, so an incomplete table degrades to "no margin" instead of failing
// a quote.
package margin

import (
	"sort"

	"quotis/internal/core/id"
)

// Range is a half-open amount interval [Minimum, Maximum) with a margin rate.
// The rate is stored as a fraction (0.15 for 15%). For task items the same
// shape carries a unit value instead of a rate.
type Range struct {
	ID      id.ID   `db:"id" json:"id"`
	Minimum float64 `db:"minimum" json:"minimum"`
	Maximum float64 `db:"maximum" json:"maximum"`
	Rate    float64 `db:"rate" json:"rate"`
}

// NewRange creates a margin range with a generated identifier.
func NewRange(minimum, maximum, rate float64) Range {
	return Range{
		ID:      id.New(),
		Minimum: minimum,
		Maximum: maximum,
		Rate:    rate,
	}
}

// Contains reports whether amount falls inside [Minimum, Maximum).
func (r Range) Contains(amount float64) bool {
	return amount >= r.Minimum && amount < r.Maximum
}

// Table is an ordered collection of margin ranges belonging to a catalog
// group, category or task item.
type Table []Range

// Sorted returns a copy of the table ordered ascending by Minimum.
func (t Table) Sorted() Table {
	out := make(Table, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Minimum < out[j].Minimum
	})
	return out
}

// FindRate returns the rate of the first range containing amount, iterating
// in ascending Minimum order. It returns 0 when no range matches; an
// out-of-range amount is not an error.
func (t Table) FindRate(amount float64) float64 {
	for _, r := range t.Sorted() {
		if r.Contains(amount) {
			return r.Rate
		}
	}
	return 0
}
