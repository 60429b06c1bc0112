package margin

import "testing"

func TestRangeContains(t *testing.T) {
	r := NewRange(100, 200, 0.15)

	tests := []struct {
		name   string
		amount float64
		want   bool
	}{
		{"below minimum", 99.99, false},
		{"at minimum", 100, true},
		{"inside", 150, true},
		{"just below maximum", 199.999, true},
		{"at maximum", 200, false},
		{"above maximum", 250, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.amount); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestTableFindRate(t *testing.T) {
	table := Table{
		NewRange(100, 200, 0.2),
		NewRange(0, 100, 0.1),
		NewRange(200, 1000, 0.3),
	}

	tests := []struct {
		amount float64
		want   float64
	}{
		{0, 0.1},
		{50, 0.1},
		{100, 0.2},
		{199.99, 0.2},
		{200, 0.3},
		{999.99, 0.3},
		{1000, 0}, // outside every band: deliberate zero default
		{-1, 0},
	}

	for _, tt := range tests {
		if got := table.FindRate(tt.amount); got != tt.want {
			t.Errorf("FindRate(%v) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestTableFindRateEmpty(t *testing.T) {
	var table Table
	for _, amount := range []float64{0, 1, 100, 1e9} {
		if got := table.FindRate(amount); got != 0 {
			t.Errorf("empty table FindRate(%v) = %v, want 0", amount, got)
		}
	}
}

func TestTableSortedDoesNotMutate(t *testing.T) {
	table := Table{
		NewRange(100, 200, 0.2),
		NewRange(0, 100, 0.1),
	}

	sorted := table.Sorted()
	if sorted[0].Minimum != 0 || sorted[1].Minimum != 100 {
		t.Errorf("Sorted() order wrong: %v", sorted)
	}
	if table[0].Minimum != 100 {
		t.Error("Sorted() must not reorder the receiver")
	}
}
