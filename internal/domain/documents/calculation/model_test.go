package calculation

import (
	"testing"

	"quotis/internal/core/id"
	"quotis/internal/core/types"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
)

func catalogChain() (*group.Group, *category.Category, *product.Product) {
	grp := group.New("HW", "Hardware")
	grp.AddMargin(0, 100000, 0.10)
	cat := category.New("SRV", "Servers", grp.ID)
	prod := product.New("P1", "Rack server", cat.ID, types.MustMoney("50"))
	return grp, cat, prod
}

// tableLookup derives rates from a single catalog group's margin table,
// the way the service builds the lookup from loaded groups.
func tableLookup(grp *group.Group) RateLookup {
	return func(groupID id.ID, amount float64) float64 {
		if groupID != grp.ID {
			return 0
		}
		return grp.FindRate(amount)
	}
}

func TestItemTotalRounding(t *testing.T) {
	item := NewItem("Cable", "pc", 3, 9.995)

	if got := item.Total(); got != 29.99 {
		t.Errorf("Total() = %v, want 29.99", got)
	}
}

func TestItemKeepsUnitPrecision(t *testing.T) {
	// the sub-cent price must survive assignment; rounding it to 10.00
	// up front would make the total 30.00 instead of 29.99
	item := NewItem("Cable", "pc", 3, 9.995)
	if item.Price != 9.995 {
		t.Errorf("Price = %v, want 9.995 stored as given", item.Price)
	}

	item.SetPrice(0.125)
	item.SetQuantity(0.5)
	if item.Price != 0.125 || item.Quantity != 0.5 {
		t.Errorf("setters must not round: price %v, quantity %v", item.Price, item.Quantity)
	}
}

func TestItemIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		price    float64
		want     bool
	}{
		{"priced", 2, 10, false},
		{"zero price", 2, 0, true},
		{"zero quantity", 0, 10, true},
		{"price rounds to zero", 1, 0.004, true},
	}

	for _, tt := range tests {
		item := NewItem("x", "", tt.quantity, tt.price)
		if got := item.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAddProductBuildsHierarchy(t *testing.T) {
	grp, cat, prod := catalogChain()
	calc := New("ACME", "Datacenter refresh")

	calc.AddProduct(prod, cat, grp, 2)
	calc.AddProduct(prod, cat, grp, 3)

	if len(calc.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(calc.Groups))
	}
	if len(calc.Groups[0].Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(calc.Groups[0].Categories))
	}
	if got := len(calc.Groups[0].Categories[0].Items); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if calc.Groups[0].Code != "HW" || calc.Groups[0].Categories[0].Code != "SRV" {
		t.Errorf("codes not copied from catalogs: %+v", calc.Groups[0])
	}
}

func TestUpdateTotals(t *testing.T) {
	grp, cat, prod := catalogChain()
	calc := New("ACME", "Datacenter refresh")
	calc.AddProduct(prod, cat, grp, 2)       // 100.00
	item := NewItem("Cable", "pc", 3, 9.995) // 29.99
	calc.Groups[0].Categories[0].AddItem(item)

	calc.UpdateTotals(tableLookup(grp))

	if got := calc.Groups[0].Amount; got != 129.99 {
		t.Errorf("group amount = %v, want 129.99", got)
	}
	if got := calc.Groups[0].Margin; got != 0.10 {
		t.Errorf("group margin = %v, want 0.10", got)
	}
	if got := calc.Groups[0].MarginAmount(); got != 13.00 {
		t.Errorf("group margin amount = %v, want 13.00", got)
	}
	if got := calc.Groups[0].Total(); got != 142.99 {
		t.Errorf("group total = %v, want 142.99", got)
	}
	if got := calc.ItemsTotal; got != 129.99 {
		t.Errorf("items total = %v, want 129.99", got)
	}
	if got := calc.OverallTotal; got != 142.99 {
		t.Errorf("overall total = %v, want 142.99", got)
	}
}

func TestUpdateTotalsIdempotent(t *testing.T) {
	grp, cat, prod := catalogChain()
	calc := New("ACME", "Refresh")
	calc.GlobalMargin = 0.05
	calc.UserMargin = 0.02
	calc.AddProduct(prod, cat, grp, 2)

	lookup := tableLookup(grp)
	calc.UpdateTotals(lookup)
	items, overall := calc.ItemsTotal, calc.OverallTotal
	calc.UpdateTotals(lookup)

	if calc.ItemsTotal != items || calc.OverallTotal != overall {
		t.Errorf("second pass changed totals: items %v→%v, overall %v→%v",
			items, calc.ItemsTotal, overall, calc.OverallTotal)
	}
}

func TestOverallMargin(t *testing.T) {
	grp, cat, _ := catalogChain()
	prod := product.New("P2", "Switch", cat.ID, types.MustMoney("100"))
	grp.Margins = nil // rate 0 so the chain stays at cost

	calc := New("ACME", "Network")
	calc.GlobalMargin = 0.05
	calc.AddProduct(prod, cat, grp, 1)
	calc.UpdateTotals(tableLookup(grp))

	if got := calc.ItemsTotal; got != 100 {
		t.Fatalf("items total = %v, want 100", got)
	}
	if got := calc.OverallTotal; got != 105 {
		t.Fatalf("overall total = %v, want 105", got)
	}
	if got := calc.OverallMargin(); got != 0.05 {
		t.Errorf("overall margin = %v, want 0.05", got)
	}
	if got := calc.OverallMarginAmount(); got != 5 {
		t.Errorf("overall margin amount = %v, want 5", got)
	}
}

func TestOverallMarginZeroItemsTotal(t *testing.T) {
	calc := New("ACME", "Empty")

	if got := calc.OverallMargin(); got != 0 {
		t.Errorf("overall margin on empty calculation = %v, want 0", got)
	}
	if got := calc.OverallMarginAmount(); got != 0 {
		t.Errorf("overall margin amount on empty calculation = %v, want 0", got)
	}
}

func TestIsMarginBelow(t *testing.T) {
	grp, cat, _ := catalogChain()
	prod := product.New("P2", "Switch", cat.ID, types.MustMoney("100"))
	grp.Margins = nil

	calc := New("ACME", "Network")
	calc.GlobalMargin = 0.05
	calc.AddProduct(prod, cat, grp, 1)
	calc.UpdateTotals(nil)

	if !calc.IsMarginBelow(0.10) {
		t.Error("margin 0.05 should flag below threshold 0.10")
	}
	if calc.IsMarginBelow(0.05) {
		t.Error("margin 0.05 should not flag below threshold 0.05")
	}

	empty := New("ACME", "Empty")
	if empty.IsMarginBelow(0.10) {
		t.Error("empty calculation must never flag")
	}
}

func TestDuplicateItems(t *testing.T) {
	grp, cat, prod := catalogChain()
	calc := New("ACME", "Dups")
	calc.AddProduct(prod, cat, grp, 1)

	catRow := &calc.Groups[0].Categories[0]
	catRow.Items = nil
	a1 := NewItem("A", "", 1, 1)
	b := NewItem("B", "", 1, 1)
	a2 := NewItem("A", "", 1, 1)
	a3 := NewItem("A", "", 1, 1)
	for _, item := range []Item{a1, b, a2, a3} {
		catRow.AddItem(item)
	}

	dups := calc.DuplicateItems()
	if len(dups) != 4 {
		t.Fatalf("expected 4 entries for A,B,A,A, got %d", len(dups))
	}
	// every repeat pairs with the first occurrence
	if dups[0].ID != a1.ID || dups[1].ID != a2.ID {
		t.Errorf("first pair = (%v,%v), want (first A, second A)", dups[0].ID, dups[1].ID)
	}
	if dups[2].ID != a1.ID || dups[3].ID != a3.ID {
		t.Errorf("second pair = (%v,%v), want (first A, third A)", dups[2].ID, dups[3].ID)
	}

	if !calc.HasDuplicateItems() {
		t.Error("HasDuplicateItems() = false, want true")
	}
}

func TestHasEmptyItems(t *testing.T) {
	grp, cat, prod := catalogChain()
	calc := New("ACME", "Check")
	calc.AddProduct(prod, cat, grp, 2)

	if calc.HasEmptyItems() {
		t.Error("no empty items expected")
	}

	calc.Groups[0].Categories[0].AddItem(NewItem("Freebie", "", 1, 0))
	if !calc.HasEmptyItems() {
		t.Error("zero-price item should be reported")
	}
}

func TestCategorySortKeepsIdentifiers(t *testing.T) {
	cat := Category{Items: []Item{
		NewItem("Zebra", "", 1, 1),
		NewItem("alpha", "", 2, 2),
		NewItem("Mango", "", 3, 3),
	}}
	id0, id1, id2 := cat.Items[0].ID, cat.Items[1].ID, cat.Items[2].ID

	if !cat.Sort() {
		t.Fatal("Sort() = false, want true")
	}

	want := []string{"alpha", "Mango", "Zebra"}
	for i, desc := range want {
		if cat.Items[i].Description != desc {
			t.Errorf("item %d = %q, want %q", i, cat.Items[i].Description, desc)
		}
	}
	// identifiers stay with their slot, values moved
	if cat.Items[0].ID != id0 || cat.Items[1].ID != id1 || cat.Items[2].ID != id2 {
		t.Error("sort must not move row identifiers")
	}

	if cat.Sort() {
		t.Error("second sort on ordered items should report no change")
	}
}

func TestGroupSortCategoriesKeepsIdentifiers(t *testing.T) {
	grp := Group{Categories: []Category{
		{ID: id.New(), Code: "ZZ"},
		{ID: id.New(), Code: "aa"},
	}}
	id0 := grp.Categories[0].ID

	if !grp.SortCategories() {
		t.Fatal("SortCategories() = false, want true")
	}
	if grp.Categories[0].Code != "aa" || grp.Categories[1].Code != "ZZ" {
		t.Errorf("categories not ordered: %v, %v", grp.Categories[0].Code, grp.Categories[1].Code)
	}
	if grp.Categories[0].ID != id0 {
		t.Error("row identifiers must keep their slot")
	}
}

func TestIsEditable(t *testing.T) {
	calc := New("ACME", "Draft")
	if !calc.IsEditable() {
		t.Error("new calculation must be editable")
	}

	calc.Version = 2
	if !calc.IsEditable() {
		t.Error("saved calculation without state must be editable")
	}

	locked := state.New("WON", "Won", false)
	calc.SetState(locked)
	if calc.IsEditable() {
		t.Error("calculation in non-editable state must be locked")
	}

	open := state.New("DRAFT", "Draft", true)
	calc.SetState(open)
	if !calc.IsEditable() {
		t.Error("calculation in editable state must be editable")
	}

	// state referenced but not resolved counts as locked
	calc.State = nil
	if calc.IsEditable() {
		t.Error("unresolved state reference must count as locked")
	}
}

func TestDuplicate(t *testing.T) {
	grp, cat, prod := catalogChain()
	origState := state.New("SENT", "Sent", false)

	calc := New("ACME", "Original")
	calc.Version = 3
	calc.SetState(origState)
	calc.GlobalMargin = 0.05
	calc.UserMargin = 0.02
	calc.AddProduct(prod, cat, grp, 2)
	calc.UpdateTotals(nil)

	draft := state.New("DRAFT", "Draft", true)
	clone := calc.Duplicate(draft, "alice")

	if !clone.IsNew() {
		t.Error("duplicate must be a new document")
	}
	if clone.ID == calc.ID {
		t.Error("duplicate must get a fresh identifier")
	}
	if clone.StateID == nil || *clone.StateID != draft.ID {
		t.Error("duplicate must carry the override state")
	}
	if clone.CreatedBy != "alice" || clone.UpdatedBy != "alice" {
		t.Errorf("author = %q/%q, want alice", clone.CreatedBy, clone.UpdatedBy)
	}
	if clone.GlobalMargin != 0.05 || clone.UserMargin != 0.02 {
		t.Error("margins must carry over")
	}
	if len(clone.Groups) != 1 || len(clone.Groups[0].Categories) != 1 {
		t.Fatal("hierarchy must be copied")
	}
	if clone.Groups[0].ID == calc.Groups[0].ID {
		t.Error("group rows must get fresh identifiers")
	}
	if clone.Groups[0].Categories[0].Items[0].ID == calc.Groups[0].Categories[0].Items[0].ID {
		t.Error("item rows must get fresh identifiers")
	}
	if clone.Groups[0].Categories[0].Items[0].Description != "Rack server" {
		t.Error("item values must carry over")
	}

	// original untouched
	if len(calc.Groups[0].Categories[0].Items) != 1 || calc.StateID == nil || *calc.StateID != origState.ID {
		t.Error("duplicating must not modify the original")
	}
}
