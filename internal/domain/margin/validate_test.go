package margin

import "testing"

func TestValidateContiguous(t *testing.T) {
	tests := []struct {
		name     string
		table    Table
		wantPath string
		wantMsg  string
	}{
		{
			name: "contiguous bands pass",
			table: Table{
				NewRange(0, 100, 0.1),
				NewRange(100, 200, 0.2),
			},
		},
		{
			name: "gap between bands",
			table: Table{
				NewRange(0, 100, 0.1),
				NewRange(150, 200, 0.2),
			},
			wantPath: "margins[1].minimum",
			wantMsg:  MsgMinimumDiscontinued,
		},
		{
			name: "minimum inside previous band",
			table: Table{
				NewRange(0, 100, 0.1),
				NewRange(50, 200, 0.2),
			},
			wantPath: "margins[1].minimum",
			wantMsg:  MsgMinimumOverlap,
		},
		{
			name: "duplicate minimum",
			table: Table{
				NewRange(0, 100, 0.1),
				NewRange(0, 200, 0.2),
			},
			// sorted order puts the wider band second
			wantPath: "margins[1].minimum",
			wantMsg:  MsgMinimumOverlap,
		},
		{
			name:  "single band",
			table: Table{NewRange(0, 100, 0.1)},
		},
		{
			name: "empty table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.table, Contiguous)
			if tt.wantMsg == "" {
				if got != nil {
					t.Fatalf("expected no violation, got %v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected exactly one violation, got %v", got)
			}
			if got[0].Path != tt.wantPath || got[0].Message != tt.wantMsg {
				t.Errorf("violation = %+v, want {%s %s}", got[0], tt.wantPath, tt.wantMsg)
			}
		})
	}
}

func TestValidateAllowGaps(t *testing.T) {
	// Category tables tolerate holes between bands.
	table := Table{
		NewRange(0, 100, 0.1),
		NewRange(150, 200, 0.2),
	}
	if got := Validate(table, AllowGaps); got != nil {
		t.Fatalf("gap must pass in AllowGaps mode, got %v", got)
	}

	// Overlap is still rejected.
	table = Table{
		NewRange(0, 100, 0.1),
		NewRange(50, 200, 0.2),
	}
	got := Validate(table, AllowGaps)
	if len(got) != 1 || got[0].Message != MsgMinimumOverlap {
		t.Fatalf("overlap must fail in AllowGaps mode, got %v", got)
	}
}

func TestValidateMaximumOverlap(t *testing.T) {
	// Second band starts after the first band's maximum but a third band's
	// maximum lands inside an earlier band after sorting.
	table := Table{
		NewRange(0, 300, 0.1),
		NewRange(300, 400, 0.2),
		NewRange(310, 350, 0.3),
	}
	got := Validate(table, AllowGaps)
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %v", got)
	}
	if got[0].Message != MsgMinimumOverlap && got[0].Message != MsgMaximumOverlap {
		t.Errorf("unexpected violation %+v", got[0])
	}
}

func TestValidateFieldInvariants(t *testing.T) {
	got := Validate(Table{NewRange(-5, 100, 0.1)}, AllowGaps)
	if len(got) != 1 || got[0].Message != MsgMinimumNegative {
		t.Fatalf("negative minimum must be rejected, got %v", got)
	}

	got = Validate(Table{NewRange(100, 100, 0.1)}, AllowGaps)
	if len(got) != 1 || got[0].Message != MsgMaximumLessMinimum {
		t.Fatalf("empty interval must be rejected, got %v", got)
	}
}

func TestValidateStopsAtFirstViolation(t *testing.T) {
	// Two problems in one table: only the first (in sorted order) is reported.
	table := Table{
		NewRange(0, 100, 0.1),
		NewRange(50, 200, 0.2),
		NewRange(500, 600, 0.3),
	}
	got := Validate(table, Contiguous)
	if len(got) != 1 {
		t.Fatalf("validation must stop at the first violation, got %v", got)
	}
	if got[0].Path != "margins[1].minimum" {
		t.Errorf("violation path = %s, want margins[1].minimum", got[0].Path)
	}
}
