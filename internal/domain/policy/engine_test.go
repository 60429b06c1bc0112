package policy

import "testing"

func TestDefaultAlertRule(t *testing.T) {
	engine, err := NewEngine(DefaultAlertRule)
	if err != nil {
		t.Fatalf("compile default rule: %v", err)
	}

	tests := []struct {
		name      string
		margin    float64
		minMargin float64
		want      bool
	}{
		{"below threshold", 0.05, 0.10, true},
		{"at threshold", 0.10, 0.10, false},
		{"above threshold", 0.15, 0.10, false},
	}

	for _, tt := range tests {
		got, err := engine.Evaluate(Metrics{OverallMargin: tt.margin}, tt.minMargin)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Evaluate() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCustomRule(t *testing.T) {
	engine, err := NewEngine("overall_margin < min_margin && items_total > 1000.0")
	if err != nil {
		t.Fatalf("compile custom rule: %v", err)
	}

	got, err := engine.Evaluate(Metrics{OverallMargin: 0.05, ItemsTotal: 500}, 0.10)
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("small calculations should not fire with the amount clause")
	}

	got, err = engine.Evaluate(Metrics{OverallMargin: 0.05, ItemsTotal: 2000}, 0.10)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("large calculation below threshold should fire")
	}
}

func TestRuleMustBeBool(t *testing.T) {
	if _, err := NewEngine("overall_margin + 1.0"); err == nil {
		t.Error("non-boolean rule must fail to compile")
	}
}

func TestRuleSyntaxError(t *testing.T) {
	if _, err := NewEngine("overall_margin <"); err == nil {
		t.Error("malformed rule must fail to compile")
	}
}
