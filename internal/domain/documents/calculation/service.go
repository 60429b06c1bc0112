package calculation

import (
	"context"
	"encoding/json"
	"fmt"

	"quotis/internal/core/apperror"
	uctx "quotis/internal/core/context"
	"quotis/internal/core/id"
	"quotis/internal/core/tx"
	"quotis/internal/domain"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/policy"
	"quotis/pkg/logger"
)

// Service provides business logic for Calculation documents. Every save
// recomputes totals bottom-up with fresh margin rates, records a revision
// snapshot and evaluates the margin alert rule.
type Service struct {
	repo       Repository
	groups     group.Repository
	categories category.Repository
	products   product.Repository
	states     state.Repository
	txManager  tx.Manager

	// history and alertRule are optional; nil disables the concern
	history   HistoryStore
	alertRule *policy.Engine
	minMargin float64
}

// ServiceConfig configures the calculation service.
type ServiceConfig struct {
	Repo       Repository
	Groups     group.Repository
	Categories category.Repository
	Products   product.Repository
	States     state.Repository
	TxManager  tx.Manager

	History   HistoryStore
	AlertRule *policy.Engine
	MinMargin float64
}

// NewService creates a new calculation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:       cfg.Repo,
		groups:     cfg.Groups,
		categories: cfg.Categories,
		products:   cfg.Products,
		states:     cfg.States,
		txManager:  cfg.TxManager,
		history:    cfg.History,
		alertRule:  cfg.AlertRule,
		minMargin:  cfg.MinMargin,
	}
}

// rateLookup preloads the margin table of every catalog group referenced by
// the calculation and returns a lookup over the loaded tables. Unknown or
// deleted groups have no table and resolve to rate 0; the document stays
// saveable.
func (s *Service) rateLookup(ctx context.Context, calc *Calculation) (RateLookup, error) {
	tables := make(map[id.ID]*group.Group, len(calc.Groups))
	for i := range calc.Groups {
		groupID := calc.Groups[i].GroupID
		if _, ok := tables[groupID]; ok {
			continue
		}
		grp, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			if apperror.IsNotFound(err) {
				tables[groupID] = nil
				continue
			}
			return nil, fmt.Errorf("load margin table for group %s: %w", groupID, err)
		}
		tables[groupID] = grp
	}

	return func(groupID id.ID, amount float64) float64 {
		grp := tables[groupID]
		if grp == nil {
			return 0
		}
		return grp.FindRate(amount)
	}, nil
}

// metrics snapshots the calculation's derived figures for rule evaluation.
func (s *Service) metrics(calc *Calculation) policy.Metrics {
	return policy.Metrics{
		ItemsTotal:    calc.ItemsTotal,
		OverallTotal:  calc.OverallTotal,
		OverallMargin: calc.OverallMargin(),
		GroupsMargin:  calc.GroupsMargin(),
		GlobalMargin:  calc.GlobalMargin,
		UserMargin:    calc.UserMargin,
		ItemCount:     len(calc.Items()),
	}
}

// checkAlert evaluates the margin alert rule after a save. A matching rule
// logs a warning; it never fails the operation.
func (s *Service) checkAlert(ctx context.Context, calc *Calculation) {
	if s.alertRule == nil {
		return
	}
	matched, err := s.alertRule.Evaluate(s.metrics(calc), s.minMargin)
	if err != nil {
		logger.Warn(ctx, "margin alert rule failed",
			"calculation_id", calc.ID, "rule", s.alertRule.Expression(), "error", err)
		return
	}
	if matched {
		logger.Warn(ctx, "calculation margin below minimum",
			"calculation_id", calc.ID, "number", calc.Number,
			"overall_margin", calc.OverallMargin(), "min_margin", s.minMargin)
	}
}

// record stores a revision snapshot. Snapshot failures are logged, not
// returned; the document save already committed.
func (s *Service) record(ctx context.Context, calc *Calculation, action string) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, calc, action); err != nil {
		logger.Warn(ctx, "revision snapshot failed",
			"calculation_id", calc.ID, "action", action, "error", err)
	}
}

func (s *Service) stampAuthor(ctx context.Context, calc *Calculation) {
	userName := uctx.GetUsername(ctx)
	if userName == "" {
		return
	}
	if calc.CreatedBy == "" {
		calc.CreatedBy = userName
	}
	calc.UpdatedBy = userName
}

// requireEditable loads the persisted document and rejects the operation
// when its workflow state forbids edits.
func (s *Service) requireEditable(ctx context.Context, calcID id.ID) (*Calculation, error) {
	calc, err := s.repo.GetByID(ctx, calcID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("calculation", calcID.String())
		}
		return nil, err
	}
	if !calc.IsEditable() {
		return nil, apperror.NewNotEditable(calcID.String())
	}
	return calc, nil
}

// Create validates, numbers and saves a new calculation. Totals are
// recomputed before the save so snapshots never go stale.
func (s *Service) Create(ctx context.Context, calc *Calculation) error {
	if err := calc.Validate(ctx); err != nil {
		return err
	}

	lookup, err := s.rateLookup(ctx, calc)
	if err != nil {
		return err
	}
	calc.UpdateTotals(lookup)
	s.stampAuthor(ctx, calc)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if calc.Number == "" {
			number, err := s.repo.NextNumber(ctx)
			if err != nil {
				return fmt.Errorf("reserve document number: %w", err)
			}
			calc.Number = number
		}
		if err := s.repo.Create(ctx, calc); err != nil {
			return fmt.Errorf("create calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "calculation created",
		"calculation_id", calc.ID, "number", calc.Number, "customer", calc.Customer)
	s.record(ctx, calc, "create")
	s.checkAlert(ctx, calc)
	return nil
}

// GetByID loads a calculation with its hierarchy and resolved state.
func (s *Service) GetByID(ctx context.Context, calcID id.ID) (*Calculation, error) {
	calc, err := s.repo.GetByID(ctx, calcID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("calculation", calcID.String())
		}
		return nil, err
	}
	return calc, nil
}

// Update recomputes and saves an edited calculation. The persisted state,
// not the incoming payload, decides editability. The payload's version is
// kept as-is: a stale editor is rejected by the repository's optimistic
// lock with CONCURRENT_MODIFICATION.
func (s *Service) Update(ctx context.Context, calc *Calculation) error {
	if _, err := s.requireEditable(ctx, calc.ID); err != nil {
		return err
	}

	if err := calc.Validate(ctx); err != nil {
		return err
	}

	lookup, err := s.rateLookup(ctx, calc)
	if err != nil {
		return err
	}
	calc.UpdateTotals(lookup)
	s.stampAuthor(ctx, calc)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, calc); err != nil {
			return fmt.Errorf("update calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, calc, "update")
	s.checkAlert(ctx, calc)
	return nil
}

// Delete soft-deletes a calculation.
func (s *Service) Delete(ctx context.Context, calcID id.ID) error {
	if _, err := s.requireEditable(ctx, calcID); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, calcID, true); err != nil {
			return fmt.Errorf("delete calculation: %w", err)
		}
		return nil
	})
}

// Restore clears the soft-delete mark.
func (s *Service) Restore(ctx context.Context, calcID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, calcID, false); err != nil {
			return fmt.Errorf("restore calculation: %w", err)
		}
		return nil
	})
}

// List retrieves calculation headers with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Calculation], error) {
	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return result, apperror.NewInternal(err).WithDetail("entity", "calculation")
	}
	return result, nil
}

// AddProduct copies a catalog product into the calculation, creating group
// and category rows along the product's catalog chain, then recomputes and
// saves. Quantity values at or below zero default to 1.
func (s *Service) AddProduct(ctx context.Context, calcID, productID id.ID, quantity float64) (*Calculation, error) {
	calc, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}

	prod, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, err
	}
	cat, err := s.categories.GetByID(ctx, prod.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category of product %s: %w", productID, err)
	}
	grp, err := s.groups.GetByID(ctx, cat.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group of category %s: %w", cat.ID, err)
	}

	if quantity <= 0 {
		quantity = 1
	}
	calc.AddProduct(prod, cat, grp, quantity)

	if err := s.save(ctx, calc, "add_product"); err != nil {
		return nil, err
	}
	return calc, nil
}

// ItemUpdate carries optional new values for one item row; nil fields keep
// their current value.
type ItemUpdate struct {
	Description *string
	Unit        *string
	Quantity    *float64
	Price       *float64
}

// UpdateItem applies changed fields to one item row, then recomputes and
// saves.
func (s *Service) UpdateItem(ctx context.Context, calcID, itemID id.ID, upd ItemUpdate) (*Calculation, error) {
	calc, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}

	item := calc.FindItem(itemID)
	if item == nil {
		return nil, apperror.NewNotFound("item", itemID.String())
	}

	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Unit != nil {
		item.Unit = *upd.Unit
	}
	if upd.Quantity != nil {
		item.SetQuantity(*upd.Quantity)
	}
	if upd.Price != nil {
		item.SetPrice(*upd.Price)
	}

	if err := s.save(ctx, calc, "update_item"); err != nil {
		return nil, err
	}
	return calc, nil
}

// RemoveItem deletes one item row, then recomputes and saves.
func (s *Service) RemoveItem(ctx context.Context, calcID, itemID id.ID) (*Calculation, error) {
	calc, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}

	removed := false
	for i := range calc.Groups {
		for j := range calc.Groups[i].Categories {
			if calc.Groups[i].Categories[j].RemoveItem(itemID) {
				removed = true
				break
			}
		}
	}
	if !removed {
		return nil, apperror.NewNotFound("item", itemID.String())
	}

	if err := s.save(ctx, calc, "remove_item"); err != nil {
		return nil, err
	}
	return calc, nil
}

// Recompute refreshes all totals from current margin tables and saves.
func (s *Service) Recompute(ctx context.Context, calcID id.ID) (*Calculation, error) {
	calc, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, calc, "recompute"); err != nil {
		return nil, err
	}
	return calc, nil
}

// SortItems orders categories and items alphabetically and saves when
// anything moved.
func (s *Service) SortItems(ctx context.Context, calcID id.ID) (*Calculation, error) {
	calc, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}

	if !calc.SortItems() {
		return calc, nil
	}
	if err := s.save(ctx, calc, "sort"); err != nil {
		return nil, err
	}
	return calc, nil
}

// SetState assigns a workflow state (nil clears it) and saves. Assigning a
// state is allowed even on locked calculations; it is how they unlock.
func (s *Service) SetState(ctx context.Context, calcID id.ID, stateID *id.ID) (*Calculation, error) {
	calc, err := s.GetByID(ctx, calcID)
	if err != nil {
		return nil, err
	}

	if stateID == nil {
		calc.SetState(nil)
	} else {
		st, err := s.states.GetByID(ctx, *stateID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("state", stateID.String())
			}
			return nil, err
		}
		calc.SetState(st)
	}

	if err := s.save(ctx, calc, "set_state"); err != nil {
		return nil, err
	}
	return calc, nil
}

// Duplicate deep-copies a calculation into a fresh document, optionally
// assigning a different state, and saves the copy. The source may be
// locked; duplication does not modify it.
func (s *Service) Duplicate(ctx context.Context, calcID id.ID, stateID *id.ID) (*Calculation, error) {
	source, err := s.GetByID(ctx, calcID)
	if err != nil {
		return nil, err
	}

	var newState *state.State
	if stateID != nil {
		newState, err = s.states.GetByID(ctx, *stateID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("state", stateID.String())
			}
			return nil, err
		}
	}

	clone := source.Duplicate(newState, uctx.GetUsername(ctx))
	if err := s.Create(ctx, clone); err != nil {
		return nil, err
	}

	logger.Info(ctx, "calculation duplicated",
		"source_id", source.ID, "calculation_id", clone.ID, "number", clone.Number)
	return clone, nil
}

// MinMargin returns the configured minimum overall margin.
func (s *Service) MinMargin() float64 {
	return s.minMargin
}

// MarginBelow reports whether the calculation's overall margin sits under
// the configured minimum.
func (s *Service) MarginBelow(ctx context.Context, calcID id.ID) (bool, error) {
	calc, err := s.GetByID(ctx, calcID)
	if err != nil {
		return false, err
	}
	return calc.IsMarginBelow(s.minMargin), nil
}

// Revisions lists stored snapshots for a calculation, newest first.
func (s *Service) Revisions(ctx context.Context, calcID id.ID, limit int) ([]Revision, error) {
	if s.history == nil {
		return nil, nil
	}
	if _, err := s.GetByID(ctx, calcID); err != nil {
		return nil, err
	}
	return s.history.Revisions(ctx, calcID, limit)
}

// RestoreRevision replaces the document body with a stored snapshot. The
// current identifier, number and version are kept so the restore itself is
// another optimistic-locked update (and leaves its own history entry).
func (s *Service) RestoreRevision(ctx context.Context, calcID, revisionID id.ID) (*Calculation, error) {
	if s.history == nil {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "revision history is not enabled")
	}

	current, err := s.requireEditable(ctx, calcID)
	if err != nil {
		return nil, err
	}

	rev, err := s.history.Revision(ctx, calcID, revisionID)
	if err != nil {
		return nil, err
	}

	var restored Calculation
	if err := json.Unmarshal(rev.Snapshot, &restored); err != nil {
		return nil, fmt.Errorf("decode revision snapshot: %w", err)
	}

	restored.ID = current.ID
	restored.Number = current.Number
	restored.Version = current.Version

	if err := s.save(ctx, &restored, "restore"); err != nil {
		return nil, err
	}

	logger.Info(ctx, "calculation restored",
		"calculation_id", calcID, "revision_id", revisionID)
	return &restored, nil
}

// save recomputes totals, persists the document and runs the post-save
// concerns. Used by every mutation that starts from a loaded document.
func (s *Service) save(ctx context.Context, calc *Calculation, action string) error {
	lookup, err := s.rateLookup(ctx, calc)
	if err != nil {
		return err
	}
	calc.UpdateTotals(lookup)
	s.stampAuthor(ctx, calc)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, calc); err != nil {
			return fmt.Errorf("save calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, calc, action)
	s.checkAlert(ctx, calc)
	return nil
}
