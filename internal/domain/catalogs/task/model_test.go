package task

import (
	"context"
	"testing"

	"quotis/internal/core/id"
	"quotis/internal/domain/margin"
)

func bracketTable() margin.Table {
	return margin.Table{
		margin.NewRange(0, 10, 25),
		margin.NewRange(10, 50, 20),
		margin.NewRange(50, 1000, 15),
	}
}

func TestItemFindValue(t *testing.T) {
	task := New("T1", "Assembly", id.New())
	item := task.AddItem("Setup", bracketTable())

	tests := []struct {
		quantity float64
		want     float64
	}{
		{0, 25},
		{9.99, 25},
		{10, 20},
		{49.99, 20},
		{50, 15},
		{1000, 0}, // outside every bracket
	}

	for _, tt := range tests {
		if got := item.FindValue(tt.quantity); got != tt.want {
			t.Errorf("FindValue(%v) = %v, want %v", tt.quantity, got, tt.want)
		}
	}
}

func TestTaskCompute(t *testing.T) {
	task := New("T1", "Assembly", id.New())
	task.AddItem("Setup", bracketTable())
	task.AddItem("Finish", margin.Table{margin.NewRange(0, 100, 2.5)})

	results, overall := task.Compute(12)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Value != 20 || results[0].Amount != 240 {
		t.Errorf("setup line = %+v, want value 20 amount 240", results[0])
	}
	if results[1].Value != 2.5 || results[1].Amount != 30 {
		t.Errorf("finish line = %+v, want value 2.5 amount 30", results[1])
	}
	if overall != 270 {
		t.Errorf("overall = %v, want 270", overall)
	}
}

func TestTaskValidateBrackets(t *testing.T) {
	ctx := context.Background()

	task := New("T1", "Assembly", id.New())
	task.AddItem("Setup", bracketTable())
	if err := task.Validate(ctx); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	// A gap in an item bracket table must be rejected (contiguous mode).
	task = New("T2", "Assembly", id.New())
	task.AddItem("Setup", margin.Table{
		margin.NewRange(0, 10, 25),
		margin.NewRange(20, 50, 20),
	})
	if err := task.Validate(ctx); err == nil {
		t.Fatal("discontinued bracket table must fail validation")
	}
}
