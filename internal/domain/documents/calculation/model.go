// Package calculation provides the Calculation document: the root aggregate
// of a quote. A calculation owns groups, groups own categories, categories
// own priced items; totals and margins are recomputed bottom-up through
// UpdateTotals and snapshotted on the document.
package calculation

import (
	"context"
	"strings"

	"quotis/internal/core/apperror"
	"quotis/internal/core/entity"
	"quotis/internal/core/id"
	"quotis/internal/core/types"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
)

// RateLookup resolves the margin rate of a catalog group for an amount.
// The document model never touches storage; the service builds the lookup
// from loaded margin tables.
type RateLookup func(groupID id.ID, amount float64) float64

// Item is the smallest priced unit of a calculation.
type Item struct {
	ID          id.ID   `db:"id" json:"id"`
	Description string  `db:"description" json:"description"`
	Unit        string  `db:"unit" json:"unit,omitempty"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	Price       float64 `db:"price" json:"price"`
}

// NewItem creates an item. Quantity and price keep their full precision;
// rounding happens only when the total is computed, so a sub-cent unit
// price like 9.995 survives storage.
func NewItem(description, unit string, quantity, price float64) Item {
	return Item{
		ID:          id.New(),
		Description: description,
		Unit:        unit,
		Quantity:    quantity,
		Price:       price,
	}
}

// NewItemFromProduct copies a catalog product into an item.
func NewItemFromProduct(p *product.Product, quantity float64) Item {
	return NewItem(p.Name, p.UnitOrEmpty(), quantity, p.PriceFloat())
}

// SetQuantity assigns a quantity, unrounded.
func (i *Item) SetQuantity(quantity float64) {
	i.Quantity = quantity
}

// SetPrice assigns a unit price, unrounded.
func (i *Item) SetPrice(price float64) {
	i.Price = price
}

// Total returns Round2(quantity × price).
func (i Item) Total() float64 {
	return types.Round2(i.Quantity * i.Price)
}

// IsEmpty reports whether price or quantity rounds to zero.
func (i Item) IsEmpty() bool {
	return types.IsFloatZero(i.Price) || types.IsFloatZero(i.Quantity)
}

// swapValues exchanges every value field with other, leaving both row
// identifiers in place. Used by the sort pass to reorder content without
// disturbing persisted identity.
func (i *Item) swapValues(other *Item) {
	i.Description, other.Description = other.Description, i.Description
	i.Unit, other.Unit = other.Unit, i.Unit
	i.Quantity, other.Quantity = other.Quantity, i.Quantity
	i.Price, other.Price = other.Price, i.Price
}

// Category is the per-category subtotal inside a calculation group.
type Category struct {
	ID         id.ID   `db:"id" json:"id"`
	CategoryID id.ID   `db:"category_id" json:"categoryId"`
	Code       string  `db:"code" json:"code"`
	Amount     float64 `db:"amount" json:"amount"`

	Items []Item `db:"-" json:"items"`
}

// NewCategoryFrom creates a calculation category from a catalog category,
// copying its code at attach time.
func NewCategoryFrom(cat *category.Category) Category {
	return Category{
		ID:         id.New(),
		CategoryID: cat.ID,
		Code:       cat.Code,
	}
}

// AddItem adds an item unless an item with the same identifier is already
// present. Returns true when the item was added.
func (c *Category) AddItem(item Item) bool {
	for _, existing := range c.Items {
		if existing.ID == item.ID {
			return false
		}
	}
	c.Items = append(c.Items, item)
	return true
}

// RemoveItem removes the item with the given identifier.
// Returns true when an item was removed.
func (c *Category) RemoveItem(itemID id.ID) bool {
	for i, existing := range c.Items {
		if existing.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Update recomputes the amount as the sum of item totals.
func (c *Category) Update() {
	amount := 0.0
	for _, item := range c.Items {
		amount += item.Total()
	}
	c.Amount = types.Round2(amount)
}

// Sort orders items by description, case-insensitively. Out-of-order
// adjacent pairs exchange values (not positions) so row identifiers keep
// their slot; passes repeat until a full pass makes no swap. Returns
// whether anything changed.
func (c *Category) Sort() bool {
	changed := false
	for {
		swapped := false
		for i := 0; i+1 < len(c.Items); i++ {
			a := strings.ToLower(c.Items[i].Description)
			b := strings.ToLower(c.Items[i+1].Description)
			if a > b {
				c.Items[i].swapValues(&c.Items[i+1])
				swapped = true
				changed = true
			}
		}
		if !swapped {
			return changed
		}
	}
}

// SwapIdentifiers exchanges persisted identifiers with other. Used when
// reordering categories so that each row id keeps its original slot.
func (c *Category) SwapIdentifiers(other *Category) {
	c.ID, other.ID = other.ID, c.ID
}

// duplicate returns a deep copy with fresh identifiers.
func (c *Category) duplicate() Category {
	out := Category{
		ID:         id.New(),
		CategoryID: c.CategoryID,
		Code:       c.Code,
		Amount:     c.Amount,
		Items:      make([]Item, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		copied := item
		copied.ID = id.New()
		out.Items = append(out.Items, copied)
	}
	return out
}

// Group aggregates categories of one catalog group inside a calculation.
// Margin is always re-derived from the catalog group's margin table; it is
// never set directly by the user.
type Group struct {
	ID      id.ID   `db:"id" json:"id"`
	GroupID id.ID   `db:"group_id" json:"groupId"`
	Code    string  `db:"code" json:"code"`
	Amount  float64 `db:"amount" json:"amount"`
	Margin  float64 `db:"margin" json:"margin"`

	Categories []Category `db:"-" json:"categories"`
}

// NewGroupFrom creates a calculation group from a catalog group, copying
// its code at attach time.
func NewGroupFrom(g *group.Group) Group {
	return Group{
		ID:      id.New(),
		GroupID: g.ID,
		Code:    g.Code,
	}
}

// FindCategory searches categories by catalog reference. When absent and
// create is set, a new category row is attached.
func (g *Group) FindCategory(cat *category.Category, create bool) *Category {
	for i := range g.Categories {
		if g.Categories[i].CategoryID == cat.ID {
			return &g.Categories[i]
		}
	}
	if !create {
		return nil
	}
	g.Categories = append(g.Categories, NewCategoryFrom(cat))
	return &g.Categories[len(g.Categories)-1]
}

// MarginAmount returns Round2(amount × margin).
func (g *Group) MarginAmount() float64 {
	return types.Round2(g.Amount * g.Margin)
}

// Total returns Round2(amount × (1 + margin)).
func (g *Group) Total() float64 {
	return types.Round2(g.Amount * (1 + g.Margin))
}

// Update recomputes categories bottom-up, sums their amounts and re-derives
// the margin rate for the fresh amount through the lookup.
func (g *Group) Update(rates RateLookup) {
	amount := 0.0
	for i := range g.Categories {
		g.Categories[i].Update()
		amount += g.Categories[i].Amount
	}
	g.Amount = types.Round2(amount)

	if rates != nil {
		g.Margin = rates(g.GroupID, g.Amount)
	} else {
		g.Margin = 0
	}
}

// SortCategories orders categories by code, case-insensitively, keeping row
// identifiers slot-stable through SwapIdentifiers. Returns whether anything
// changed.
func (g *Group) SortCategories() bool {
	changed := false
	for {
		swapped := false
		for i := 0; i+1 < len(g.Categories); i++ {
			a := strings.ToLower(g.Categories[i].Code)
			b := strings.ToLower(g.Categories[i+1].Code)
			if a > b {
				g.Categories[i], g.Categories[i+1] = g.Categories[i+1], g.Categories[i]
				g.Categories[i].SwapIdentifiers(&g.Categories[i+1])
				swapped = true
				changed = true
			}
		}
		if !swapped {
			return changed
		}
	}
}

// duplicate returns a deep copy with fresh identifiers.
func (g *Group) duplicate() Group {
	out := Group{
		ID:         id.New(),
		GroupID:    g.GroupID,
		Code:       g.Code,
		Amount:     g.Amount,
		Margin:     g.Margin,
		Categories: make([]Category, 0, len(g.Categories)),
	}
	for i := range g.Categories {
		out.Categories = append(out.Categories, g.Categories[i].duplicate())
	}
	return out
}

// Calculation is the root aggregate of a quote.
type Calculation struct {
	entity.Document

	// Customer and Description identify the quote
	Customer    string `db:"customer" json:"customer"`
	Description string `db:"description" json:"description"`

	// StateID references the workflow state; nil means no state assigned
	StateID *id.ID `db:"state_id" json:"stateId,omitempty"`

	// State is the resolved workflow state (loaded by the repository)
	State *state.State `db:"-" json:"state,omitempty"`

	// GlobalMargin and UserMargin are user-set fractions
	GlobalMargin float64 `db:"global_margin" json:"globalMargin"`
	UserMargin   float64 `db:"user_margin" json:"userMargin"`

	// ItemsTotal and OverallTotal are snapshots, recomputed on save
	ItemsTotal   float64 `db:"items_total" json:"itemsTotal"`
	OverallTotal float64 `db:"overall_total" json:"overallTotal"`

	// Groups is the ordered table part
	Groups []Group `db:"-" json:"groups"`
}

// New creates a calculation for a customer.
func New(customer, description string) *Calculation {
	return &Calculation{
		Document:    entity.NewDocument(),
		Customer:    customer,
		Description: description,
	}
}

// Validate implements entity.Validatable.
func (c *Calculation) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if c.Customer == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customer")
	}

	if c.GlobalMargin < 0 {
		return apperror.NewValidation("global margin cannot be negative").
			WithDetail("field", "globalMargin")
	}

	return nil
}

// SetState assigns a workflow state; nil clears it.
func (c *Calculation) SetState(st *state.State) {
	c.State = st
	if st == nil {
		c.StateID = nil
		return
	}
	stateID := st.ID
	c.StateID = &stateID
}

// SetGlobalMargin assigns a rounded global margin fraction.
func (c *Calculation) SetGlobalMargin(marginRate float64) {
	c.GlobalMargin = types.Round2(marginRate)
}

// SetUserMargin assigns a rounded user margin fraction.
func (c *Calculation) SetUserMargin(marginRate float64) {
	c.UserMargin = types.Round2(marginRate)
}

// IsEditable reports whether the calculation may still be modified:
// never saved yet, no state assigned, or the state allows edits.
// A state reference that has not been resolved counts as locked.
func (c *Calculation) IsEditable() bool {
	if c.IsNew() || c.StateID == nil {
		return true
	}
	if c.State != nil {
		return c.State.Editable
	}
	return false
}

// FindGroup searches groups by catalog group code. When absent and create
// is set, a new group row is attached.
func (c *Calculation) FindGroup(g *group.Group, create bool) *Group {
	for i := range c.Groups {
		if c.Groups[i].Code == g.Code {
			return &c.Groups[i]
		}
	}
	if !create {
		return nil
	}
	c.Groups = append(c.Groups, NewGroupFrom(g))
	return &c.Groups[len(c.Groups)-1]
}

// AddProduct copies a catalog product into the calculation, resolving or
// creating the group and category rows along the product's catalog chain.
// Returns the attached item.
func (c *Calculation) AddProduct(p *product.Product, cat *category.Category, grp *group.Group, quantity float64) *Item {
	calcGroup := c.FindGroup(grp, true)
	calcCategory := calcGroup.FindCategory(cat, true)

	item := NewItemFromProduct(p, quantity)
	calcCategory.AddItem(item)
	return &calcCategory.Items[len(calcCategory.Items)-1]
}

// FindItem returns a pointer to the item with the given identifier, or nil.
func (c *Calculation) FindItem(itemID id.ID) *Item {
	for i := range c.Groups {
		for j := range c.Groups[i].Categories {
			items := c.Groups[i].Categories[j].Items
			for k := range items {
				if items[k].ID == itemID {
					return &items[k]
				}
			}
		}
	}
	return nil
}

// UpdateTotals recomputes the whole hierarchy bottom-up and snapshots
// ItemsTotal and OverallTotal on the document.
func (c *Calculation) UpdateTotals(rates RateLookup) {
	for i := range c.Groups {
		c.Groups[i].Update(rates)
	}
	c.ItemsTotal = c.GroupsAmount()
	c.OverallTotal = types.Round2(c.TotalNet() * (1 + c.UserMargin))
}

// GroupsAmount returns the sum of group amounts.
func (c *Calculation) GroupsAmount() float64 {
	total := 0.0
	for i := range c.Groups {
		total += c.Groups[i].Amount
	}
	return types.Round2(total)
}

// GroupsMarginAmount returns the sum of group margin amounts.
func (c *Calculation) GroupsMarginAmount() float64 {
	total := 0.0
	for i := range c.Groups {
		total += c.Groups[i].MarginAmount()
	}
	return types.Round2(total)
}

// GroupsTotal returns the sum of group totals.
func (c *Calculation) GroupsTotal() float64 {
	total := 0.0
	for i := range c.Groups {
		total += c.Groups[i].Total()
	}
	return types.Round2(total)
}

// GroupsMargin returns the overall group margin ratio, 0 for an empty
// amount.
func (c *Calculation) GroupsMargin() float64 {
	return types.Round2(types.SafeDivide(c.GroupsMarginAmount(), c.GroupsAmount()))
}

// GlobalMarginAmount returns Round2(groups total × global margin).
func (c *Calculation) GlobalMarginAmount() float64 {
	return types.Round2(c.GroupsTotal() * c.GlobalMargin)
}

// TotalNet returns Round2(groups total × (1 + global margin)).
func (c *Calculation) TotalNet() float64 {
	return types.Round2(c.GroupsTotal() * (1 + c.GlobalMargin))
}

// UserMarginAmount returns Round2(total net × user margin).
func (c *Calculation) UserMarginAmount() float64 {
	return types.Round2(c.TotalNet() * c.UserMargin)
}

// OverallMargin returns (overall total ÷ items total) − 1, or 0 when the
// items total rounds to zero.
func (c *Calculation) OverallMargin() float64 {
	if types.IsFloatZero(c.ItemsTotal) {
		return 0
	}
	return types.Round2(c.OverallTotal/c.ItemsTotal - 1)
}

// OverallMarginAmount returns overall total − items total, or 0 when the
// items total rounds to zero.
func (c *Calculation) OverallMarginAmount() float64 {
	if types.IsFloatZero(c.ItemsTotal) {
		return 0
	}
	return types.Round2(c.OverallTotal - c.ItemsTotal)
}

// IsMarginBelow reports whether the overall margin sits under the given
// threshold. Empty calculations and zero overall totals never flag.
func (c *Calculation) IsMarginBelow(threshold float64) bool {
	if c.IsEmpty() || types.IsFloatZero(c.OverallTotal) {
		return false
	}
	return c.OverallMargin() < threshold
}

// IsEmpty reports whether the calculation has no items at all.
func (c *Calculation) IsEmpty() bool {
	for i := range c.Groups {
		for j := range c.Groups[i].Categories {
			if len(c.Groups[i].Categories[j].Items) > 0 {
				return false
			}
		}
	}
	return true
}

// Items returns every item across all groups and categories, in document
// order.
func (c *Calculation) Items() []Item {
	var items []Item
	for i := range c.Groups {
		for j := range c.Groups[i].Categories {
			items = append(items, c.Groups[i].Categories[j].Items...)
		}
	}
	return items
}

// DuplicateItems returns items sharing a description with an earlier item.
// Every repeated sighting appends the first occurrence again together with
// the current item, so N occurrences yield 2×(N−1) entries. Callers display
// the pairs as-is.
func (c *Calculation) DuplicateItems() []Item {
	seen := make(map[string]Item)
	var duplicates []Item

	for _, item := range c.Items() {
		if first, ok := seen[item.Description]; ok {
			duplicates = append(duplicates, first, item)
		} else {
			seen[item.Description] = item
		}
	}

	return duplicates
}

// HasDuplicateItems reports whether any description repeats.
func (c *Calculation) HasDuplicateItems() bool {
	return len(c.DuplicateItems()) > 0
}

// HasEmptyItems reports whether any item has a zero price or quantity.
// The scan short-circuits on the first match.
func (c *Calculation) HasEmptyItems() bool {
	for i := range c.Groups {
		for j := range c.Groups[i].Categories {
			for _, item := range c.Groups[i].Categories[j].Items {
				if item.IsEmpty() {
					return true
				}
			}
		}
	}
	return false
}

// SortItems orders categories inside each group and items inside each
// category. Returns whether anything changed.
func (c *Calculation) SortItems() bool {
	changed := false
	for i := range c.Groups {
		if c.Groups[i].SortCategories() {
			changed = true
		}
		for j := range c.Groups[i].Categories {
			if c.Groups[i].Categories[j].Sort() {
				changed = true
			}
		}
	}
	return changed
}

// Duplicate produces a deep copy with fresh identifiers throughout, a reset
// document (new number, current dates) and an optional state and author
// override. Totals snapshots carry over; the caller recomputes them on save.
func (c *Calculation) Duplicate(newState *state.State, userName string) *Calculation {
	out := New(c.Customer, c.Description)
	out.GlobalMargin = c.GlobalMargin
	out.UserMargin = c.UserMargin
	out.ItemsTotal = c.ItemsTotal
	out.OverallTotal = c.OverallTotal

	if newState != nil {
		out.SetState(newState)
	} else {
		out.State = c.State
		if c.StateID != nil {
			stateID := *c.StateID
			out.StateID = &stateID
		}
	}

	if userName != "" {
		out.CreatedBy = userName
		out.UpdatedBy = userName
	}

	out.Groups = make([]Group, 0, len(c.Groups))
	for i := range c.Groups {
		out.Groups = append(out.Groups, c.Groups[i].duplicate())
	}

	return out
}
