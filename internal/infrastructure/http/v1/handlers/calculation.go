package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/domain"
	"quotis/internal/domain/documents/calculation"
	domainFilter "quotis/internal/domain/filter"
	"quotis/internal/infrastructure/http/v1/dto"
)

// CalculationHandler handles calculation document endpoints.
type CalculationHandler struct {
	*BaseHandler
	service *calculation.Service
}

// NewCalculationHandler creates a new calculation handler.
func NewCalculationHandler(base *BaseHandler, service *calculation.Service) *CalculationHandler {
	return &CalculationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /document/calculations
func (h *CalculationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if filterJSON := c.Query("filter"); filterJSON != "" {
		var advFilters []domainFilter.Item
		if err := json.Unmarshal([]byte(filterJSON), &advFilters); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return
		}
		filter.AdvancedFilters = advFilters
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = item
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /document/calculations/:id
func (h *CalculationHandler) Get(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.GetByID(c.Request.Context(), calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// Create handles POST /document/calculations
func (h *CalculationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCalculationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	calc := calculation.New(req.Customer, req.Description)
	calc.Number = req.Number
	if req.Date != nil {
		calc.Date = *req.Date
	}
	calc.SetGlobalMargin(req.GlobalMargin)
	calc.SetUserMargin(req.UserMargin)

	if req.StateID != nil {
		stateID, err := id.Parse(*req.StateID)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("invalid stateId format"))
			return
		}
		calc.StateID = &stateID
	}

	if err := h.service.Create(ctx, calc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCalculation(calc))
}

// Update handles PUT /document/calculations/:id
func (h *CalculationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateCalculationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated := req.Apply(existing)
	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(updated))
}

// Delete handles DELETE /document/calculations/:id
func (h *CalculationHandler) Delete(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), calcID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetDeletionMark handles POST /document/calculations/:id/deletion-mark
func (h *CalculationHandler) SetDeletionMark(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var err error
	if req.Marked {
		err = h.service.Delete(ctx, calcID)
	} else {
		err = h.service.Restore(ctx, calcID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}

// AddItem handles POST /document/calculations/:id/items
func (h *CalculationHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.AddProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid productId format"))
		return
	}

	calc, err := h.service.AddProduct(ctx, calcID, productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// RemoveItem handles DELETE /document/calculations/:id/items/:itemId
func (h *CalculationHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid itemId format"))
		return
	}

	calc, err := h.service.RemoveItem(ctx, calcID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// UpdateItem handles PUT /document/calculations/:id/items/:itemId
func (h *CalculationHandler) UpdateItem(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid itemId format"))
		return
	}

	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	calc, err := h.service.UpdateItem(c.Request.Context(), calcID, itemID, req.ToItemUpdate())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// Recompute handles POST /document/calculations/:id/recompute
func (h *CalculationHandler) Recompute(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.Recompute(c.Request.Context(), calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// Sort handles POST /document/calculations/:id/sort
func (h *CalculationHandler) Sort(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.SortItems(c.Request.Context(), calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// SetState handles POST /document/calculations/:id/state
func (h *CalculationHandler) SetState(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.SetStateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stateID, ok := h.parseOptionalID(c, req.StateID, "stateId")
	if !ok {
		return
	}

	calc, err := h.service.SetState(ctx, calcID, stateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// Duplicate handles POST /document/calculations/:id/duplicate
func (h *CalculationHandler) Duplicate(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.DuplicateCalculationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stateID, ok := h.parseOptionalID(c, req.StateID, "stateId")
	if !ok {
		return
	}

	clone, err := h.service.Duplicate(ctx, calcID, stateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCalculation(clone))
}

// MarginCheck handles GET /document/calculations/:id/margin-check
func (h *CalculationHandler) MarginCheck(c *gin.Context) {
	ctx := c.Request.Context()

	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.GetByID(ctx, calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.MarginCheckResponse{
		Below:         calc.IsMarginBelow(h.service.MinMargin()),
		OverallMargin: calc.OverallMargin(),
		MinMargin:     h.service.MinMargin(),
	})
}

// DuplicateItems handles GET /document/calculations/:id/duplicate-items
func (h *CalculationHandler) DuplicateItems(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.GetByID(c.Request.Context(), calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := calc.DuplicateItems()
	h.OK(c, dto.ItemIssuesResponse{Items: items, Count: len(items)})
}

// EmptyItems handles GET /document/calculations/:id/empty-items
func (h *CalculationHandler) EmptyItems(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	calc, err := h.service.GetByID(c.Request.Context(), calcID)
	if err != nil {
		h.Error(c, err)
		return
	}

	empty := make([]calculation.Item, 0)
	for _, item := range calc.Items() {
		if item.IsEmpty() {
			empty = append(empty, item)
		}
	}

	h.OK(c, dto.ItemIssuesResponse{Items: empty, Count: len(empty)})
}

// Revisions handles GET /document/calculations/:id/revisions
func (h *CalculationHandler) Revisions(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 20)

	revisions, err := h.service.Revisions(c.Request.Context(), calcID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": revisions})
}

// RestoreRevision handles POST /document/calculations/:id/revisions/:revisionId/restore
func (h *CalculationHandler) RestoreRevision(c *gin.Context) {
	calcID, ok := h.ParseID(c)
	if !ok {
		return
	}

	revisionID, err := id.Parse(c.Param("revisionId"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid revisionId format"))
		return
	}

	calc, err := h.service.RestoreRevision(c.Request.Context(), calcID, revisionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCalculation(calc))
}

// parseOptionalID parses a nullable ID from a request body.
func (h *CalculationHandler) parseOptionalID(c *gin.Context, raw *string, field string) (*id.ID, bool) {
	if raw == nil {
		return nil, true
	}
	parsed, err := id.Parse(*raw)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid "+field+" format"))
		return nil, false
	}
	return &parsed, true
}
