package dto

import (
	"time"

	"quotis/internal/domain/documents/calculation"
)

// --- Requests ---

// CreateCalculationRequest for POST /document/calculations.
// The item hierarchy is built through the item endpoints; a new document
// starts empty.
type CreateCalculationRequest struct {
	Number       string     `json:"number"`
	Date         *time.Time `json:"date"`
	Customer     string     `json:"customer" binding:"required"`
	Description  string     `json:"description"`
	StateID      *string    `json:"stateId"`
	GlobalMargin float64    `json:"globalMargin"`
	UserMargin   float64    `json:"userMargin"`
}

// UpdateCalculationRequest for PUT /document/calculations/:id.
type UpdateCalculationRequest struct {
	Customer     *string  `json:"customer"`
	Description  *string  `json:"description"`
	GlobalMargin *float64 `json:"globalMargin"`
	UserMargin   *float64 `json:"userMargin"`
	Version      int      `json:"version" binding:"required,min=1"`
}

// Apply maps changed fields onto an existing calculation.
func (r UpdateCalculationRequest) Apply(c *calculation.Calculation) *calculation.Calculation {
	if r.Customer != nil {
		c.Customer = *r.Customer
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.GlobalMargin != nil {
		c.SetGlobalMargin(*r.GlobalMargin)
	}
	if r.UserMargin != nil {
		c.SetUserMargin(*r.UserMargin)
	}
	c.Version = r.Version
	return c
}

// AddProductRequest for POST /document/calculations/:id/items.
type AddProductRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  float64 `json:"quantity"`
}

// UpdateItemRequest for PUT /document/calculations/:id/items/:itemId.
// Absent fields keep their current value.
type UpdateItemRequest struct {
	Description *string  `json:"description"`
	Unit        *string  `json:"unit"`
	Quantity    *float64 `json:"quantity"`
	Price       *float64 `json:"price"`
}

// ToItemUpdate maps the request onto the domain patch.
func (r UpdateItemRequest) ToItemUpdate() calculation.ItemUpdate {
	return calculation.ItemUpdate{
		Description: r.Description,
		Unit:        r.Unit,
		Quantity:    r.Quantity,
		Price:       r.Price,
	}
}

// SetStateRequest for POST /document/calculations/:id/state.
// A null stateId clears the workflow state, returning the document to the
// editable default.
type SetStateRequest struct {
	StateID *string `json:"stateId"`
}

// DuplicateCalculationRequest for POST /document/calculations/:id/duplicate.
type DuplicateCalculationRequest struct {
	StateID *string `json:"stateId"`
}

// --- Responses ---

// CalculationResponse is the full document view with derived totals.
type CalculationResponse struct {
	*calculation.Calculation

	// Derived figures, recomputed per response
	GroupsMargin       float64 `json:"groupsMargin"`
	GroupsMarginAmount float64 `json:"groupsMarginAmount"`
	GroupsTotal        float64 `json:"groupsTotal"`
	TotalNet           float64 `json:"totalNet"`
	OverallMargin      float64 `json:"overallMargin"`
	OverallMarginAmt   float64 `json:"overallMarginAmount"`
	Editable           bool    `json:"editable"`
}

// FromCalculation builds the response view of a calculation.
func FromCalculation(c *calculation.Calculation) CalculationResponse {
	return CalculationResponse{
		Calculation:        c,
		GroupsMargin:       c.GroupsMargin(),
		GroupsMarginAmount: c.GroupsMarginAmount(),
		GroupsTotal:        c.GroupsTotal(),
		TotalNet:           c.TotalNet(),
		OverallMargin:      c.OverallMargin(),
		OverallMarginAmt:   c.OverallMarginAmount(),
		Editable:           c.IsEditable(),
	}
}

// MarginCheckResponse for GET /document/calculations/:id/margin-check.
type MarginCheckResponse struct {
	Below         bool    `json:"below"`
	OverallMargin float64 `json:"overallMargin"`
	MinMargin     float64 `json:"minMargin"`
}

// ItemIssuesResponse lists items flagged by a document check.
type ItemIssuesResponse struct {
	Items []calculation.Item `json:"items"`
	Count int                `json:"count"`
}
