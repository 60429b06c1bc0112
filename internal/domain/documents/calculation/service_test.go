package calculation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"quotis/internal/core/apperror"
	uctx "quotis/internal/core/context"
	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/policy"
)

// --- in-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	docs    map[id.ID]*Calculation
	updates int
	numbers int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*Calculation)}
}

func (r *fakeRepo) Create(_ context.Context, calc *Calculation) error {
	r.docs[calc.ID] = calc
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, calcID id.ID) (*Calculation, error) {
	calc, ok := r.docs[calcID]
	if !ok {
		return nil, apperror.NewNotFound("calculation", calcID.String())
	}
	return calc, nil
}

func (r *fakeRepo) Update(_ context.Context, calc *Calculation) error {
	existing, ok := r.docs[calc.ID]
	if !ok {
		return apperror.NewNotFound("calculation", calc.ID.String())
	}
	// same version guard as the real repository
	if existing.Version != calc.Version {
		return apperror.NewConcurrentModification("calculation", calc.ID.String())
	}
	calc.Touch()
	r.docs[calc.ID] = calc
	r.updates++
	return nil
}

func (r *fakeRepo) SetDeletionMark(_ context.Context, calcID id.ID, marked bool) error {
	calc, ok := r.docs[calcID]
	if !ok {
		return apperror.NewNotFound("calculation", calcID.String())
	}
	calc.DeletionMark = marked
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Calculation], error) {
	result := domain.ListResult[*Calculation]{}
	for _, calc := range r.docs {
		result.Items = append(result.Items, calc)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeRepo) NextNumber(_ context.Context) (string, error) {
	r.numbers++
	return fmt.Sprintf("CALC-%04d", r.numbers), nil
}

// catalog fakes embed their interface and implement only what the service
// touches; an unexpected call panics, which is what we want in tests.

type fakeGroupRepo struct {
	group.Repository
	byID map[id.ID]*group.Group
}

func (r *fakeGroupRepo) GetByID(_ context.Context, groupID id.ID) (*group.Group, error) {
	grp, ok := r.byID[groupID]
	if !ok {
		return nil, apperror.NewNotFound("group", groupID.String())
	}
	return grp, nil
}

type fakeCategoryRepo struct {
	category.Repository
	byID map[id.ID]*category.Category
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, categoryID id.ID) (*category.Category, error) {
	cat, ok := r.byID[categoryID]
	if !ok {
		return nil, apperror.NewNotFound("category", categoryID.String())
	}
	return cat, nil
}

type fakeProductRepo struct {
	product.Repository
	byID map[id.ID]*product.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	prod, ok := r.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return prod, nil
}

type fakeStateRepo struct {
	state.Repository
	byID map[id.ID]*state.State
}

func (r *fakeStateRepo) GetByID(_ context.Context, stateID id.ID) (*state.State, error) {
	st, ok := r.byID[stateID]
	if !ok {
		return nil, apperror.NewNotFound("state", stateID.String())
	}
	return st, nil
}

type fakeHistory struct {
	actions   []string
	revisions []Revision
}

func (h *fakeHistory) Record(_ context.Context, calc *Calculation, action string) error {
	h.actions = append(h.actions, action)
	snapshot, err := json.Marshal(calc)
	if err != nil {
		return err
	}
	h.revisions = append(h.revisions, Revision{
		ID:            id.New(),
		CalculationID: calc.ID,
		Action:        action,
		Version:       calc.Version,
		Snapshot:      snapshot,
	})
	return nil
}

func (h *fakeHistory) Revisions(_ context.Context, calcID id.ID, _ int) ([]Revision, error) {
	var out []Revision
	for _, rev := range h.revisions {
		if rev.CalculationID == calcID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (h *fakeHistory) Revision(_ context.Context, calcID, revisionID id.ID) (*Revision, error) {
	for i := range h.revisions {
		if h.revisions[i].CalculationID == calcID && h.revisions[i].ID == revisionID {
			return &h.revisions[i], nil
		}
	}
	return nil, apperror.NewNotFound("revision", revisionID.String())
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	history *fakeHistory
	groups  *fakeGroupRepo
	grp     *group.Group
	cat     *category.Category
	prod    *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	grp, cat, prod := catalogChain()
	repo := newFakeRepo()
	history := &fakeHistory{}
	groups := &fakeGroupRepo{byID: map[id.ID]*group.Group{grp.ID: grp}}

	rule, err := policy.NewEngine(policy.DefaultAlertRule)
	if err != nil {
		t.Fatalf("compile alert rule: %v", err)
	}

	svc := NewService(ServiceConfig{
		Repo:       repo,
		Groups:     groups,
		Categories: &fakeCategoryRepo{byID: map[id.ID]*category.Category{cat.ID: cat}},
		Products:   &fakeProductRepo{byID: map[id.ID]*product.Product{prod.ID: prod}},
		States:     &fakeStateRepo{byID: map[id.ID]*state.State{}},
		TxManager:  fakeTxManager{},
		History:    history,
		AlertRule:  rule,
		MinMargin:  0.10,
	})

	return &fixture{svc: svc, repo: repo, history: history, groups: groups, grp: grp, cat: cat, prod: prod}
}

// --- tests ---

func TestServiceCreate(t *testing.T) {
	f := newFixture(t)
	ctx := uctx.WithUser(context.Background(), &uctx.UserContext{Username: "alice"})

	calc := New("ACME", "Refresh")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)

	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if calc.Number != "CALC-0001" {
		t.Errorf("number = %q, want CALC-0001", calc.Number)
	}
	if calc.ItemsTotal != 100 {
		t.Errorf("items total = %v, want 100 (totals must be computed on save)", calc.ItemsTotal)
	}
	if calc.Groups[0].Margin != 0.10 {
		t.Errorf("group margin = %v, want 0.10 from the catalog table", calc.Groups[0].Margin)
	}
	if calc.CreatedBy != "alice" {
		t.Errorf("created by = %q, want alice", calc.CreatedBy)
	}
	if len(f.history.actions) != 1 || f.history.actions[0] != "create" {
		t.Errorf("history actions = %v, want [create]", f.history.actions)
	}
}

func TestServiceCreateRequiresCustomer(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Create(context.Background(), New("", "No customer"))
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceUpdateLockedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}
	calc.Version = 2
	calc.SetState(state.New("WON", "Won", false))

	err := f.svc.Update(ctx, calc)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeNotEditable {
		t.Fatalf("expected %s, got %v", apperror.CodeNotEditable, err)
	}
}

func TestServiceUpdateStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	// first editor saves against the stored version
	first := *calc
	first.Description = "first edit"
	if err := f.svc.Update(ctx, &first); err != nil {
		t.Fatalf("Update with current version: %v", err)
	}

	// second editor still holds the old version and must be rejected
	stale := *calc
	stale.Description = "stale edit"
	err := f.svc.Update(ctx, &stale)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConcurrentModification {
		t.Fatalf("expected %s, got %v", apperror.CodeConcurrentModification, err)
	}

	stored, err := f.svc.GetByID(ctx, calc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Description != "first edit" {
		t.Errorf("stored description = %q, the stale edit must not win", stored.Description)
	}
}

func TestServiceAddProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	// quantity at or below zero defaults to 1
	updated, err := f.svc.AddProduct(ctx, calc.ID, f.prod.ID, 0)
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}

	items := updated.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Quantity != 1 {
		t.Errorf("quantity = %v, want default 1", items[0].Quantity)
	}
	if updated.ItemsTotal != 50 {
		t.Errorf("items total = %v, want 50", updated.ItemsTotal)
	}
	if f.repo.updates != 1 {
		t.Errorf("updates = %d, want 1", f.repo.updates)
	}
}

func TestServiceAddProductUnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AddProduct(ctx, calc.ID, id.New(), 1)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	calc.AddProduct(f.prod, f.cat, f.grp, 2) // 100.00
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}
	itemID := calc.Items()[0].ID

	desc := "Patch cable"
	qty := 3.0
	price := 9.995
	updated, err := f.svc.UpdateItem(ctx, calc.ID, itemID, ItemUpdate{
		Description: &desc,
		Quantity:    &qty,
		Price:       &price,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	item := updated.Items()[0]
	if item.Description != "Patch cable" {
		t.Errorf("description = %q, want Patch cable", item.Description)
	}
	if item.Price != 9.995 {
		t.Errorf("price = %v, want the sub-cent value kept", item.Price)
	}
	if got := updated.ItemsTotal; got != 29.99 {
		t.Errorf("items total = %v, want 29.99", got)
	}

	if _, err := f.svc.UpdateItem(ctx, calc.ID, id.New(), ItemUpdate{Price: &price}); !apperror.IsNotFound(err) {
		t.Errorf("expected not found for unknown item, got %v", err)
	}
}

func TestServiceRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}
	itemID := calc.Items()[0].ID

	updated, err := f.svc.RemoveItem(ctx, calc.ID, itemID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(updated.Items()) != 0 {
		t.Error("item should be removed")
	}
	if updated.ItemsTotal != 0 {
		t.Errorf("items total = %v, want 0 after removal", updated.ItemsTotal)
	}

	if _, err := f.svc.RemoveItem(ctx, calc.ID, id.New()); !apperror.IsNotFound(err) {
		t.Errorf("expected not found for unknown item, got %v", err)
	}
}

func TestServiceDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := uctx.WithUser(context.Background(), &uctx.UserContext{Username: "bob"})

	calc := New("ACME", "Original")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	clone, err := f.svc.Duplicate(ctx, calc.ID, nil)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}

	if clone.ID == calc.ID {
		t.Error("clone must get a fresh identifier")
	}
	if clone.Number == calc.Number {
		t.Errorf("clone must get a fresh number, both have %q", clone.Number)
	}
	if clone.ItemsTotal != calc.ItemsTotal {
		t.Errorf("clone items total = %v, want %v", clone.ItemsTotal, calc.ItemsTotal)
	}
	if clone.UpdatedBy != "bob" {
		t.Errorf("clone author = %q, want bob", clone.UpdatedBy)
	}
	if _, err := f.svc.GetByID(ctx, clone.ID); err != nil {
		t.Errorf("clone must be persisted: %v", err)
	}
}

func TestServiceRecomputeAfterGroupDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Refresh")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	// the catalog group disappears; the document must still save, at rate 0
	delete(f.groups.byID, f.grp.ID)

	updated, err := f.svc.Recompute(ctx, calc.ID)
	if err != nil {
		t.Fatalf("Recompute after group deletion: %v", err)
	}
	if updated.Groups[0].Margin != 0 {
		t.Errorf("group margin = %v, want 0 for a deleted catalog group", updated.Groups[0].Margin)
	}
	if updated.ItemsTotal != 100 {
		t.Errorf("items total = %v, want 100", updated.ItemsTotal)
	}
	if updated.OverallTotal != 100 {
		t.Errorf("overall total = %v, want 100 at rate 0", updated.OverallTotal)
	}
}

func TestServiceSortItemsSkipsSaveWhenOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Sorted")
	calc.AddProduct(f.prod, f.cat, f.grp, 1)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.SortItems(ctx, calc.ID); err != nil {
		t.Fatalf("SortItems: %v", err)
	}
	if f.repo.updates != 0 {
		t.Errorf("updates = %d, want 0 for an already ordered document", f.repo.updates)
	}
}

func TestServiceMarginBelow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// margin table rate 0.10 equals the minimum, so no flag
	calc := New("ACME", "At threshold")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	below, err := f.svc.MarginBelow(ctx, calc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if below {
		t.Error("margin at the threshold must not flag")
	}

	// strip the catalog margin table so the chain stays at cost
	f.grp.Margins = nil
	low := New("ACME", "At cost")
	low.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, low); err != nil {
		t.Fatal(err)
	}

	below, err = f.svc.MarginBelow(ctx, low.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !below {
		t.Error("zero margin must flag below minimum 0.10")
	}
}

func TestServiceDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Gone")
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Delete(ctx, calc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !calc.DeletionMark {
		t.Error("delete must set the deletion mark")
	}

	if err := f.svc.Restore(ctx, calc.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if calc.DeletionMark {
		t.Error("restore must clear the deletion mark")
	}
}

func TestServiceRestoreRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calc := New("ACME", "Before")
	calc.AddProduct(f.prod, f.cat, f.grp, 2)
	if err := f.svc.Create(ctx, calc); err != nil {
		t.Fatal(err)
	}
	itemCount := len(calc.Items())

	// the create snapshot still holds the item
	revs, err := f.svc.Revisions(ctx, calc.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(revs))
	}
	createRev := revs[0].ID

	if _, err := f.svc.RemoveItem(ctx, calc.ID, calc.Items()[0].ID); err != nil {
		t.Fatal(err)
	}

	restored, err := f.svc.RestoreRevision(ctx, calc.ID, createRev)
	if err != nil {
		t.Fatalf("RestoreRevision: %v", err)
	}
	if len(restored.Items()) != itemCount {
		t.Errorf("restored items = %d, want %d", len(restored.Items()), itemCount)
	}
	if restored.ID != calc.ID {
		t.Error("restore must keep the document identifier")
	}

	// the restore is itself recorded
	revs, err = f.svc.Revisions(ctx, calc.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 3 {
		t.Errorf("expected 3 revisions after restore, got %d", len(revs))
	}

	if _, err := f.svc.RestoreRevision(ctx, calc.ID, id.New()); !apperror.IsNotFound(err) {
		t.Errorf("expected not found for unknown revision, got %v", err)
	}
}
