package dto

import (
	"quotis/internal/core/types"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/catalogs/task"
	"quotis/internal/domain/margin"
)

// ToMarginTable converts request bands into a margin table. Band IDs are
// regenerated; the table is persisted wholesale on save.
func ToMarginTable(bands []MarginRangeRequest) margin.Table {
	if bands == nil {
		return nil
	}
	table := make(margin.Table, 0, len(bands))
	for _, b := range bands {
		table = append(table, margin.NewRange(b.Minimum, b.Maximum, b.Rate))
	}
	return table
}

// --- Group ---

type CreateGroupRequest struct {
	Code        string               `json:"code" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	Description *string              `json:"description"`
	Margins     []MarginRangeRequest `json:"margins"`
}

func (r CreateGroupRequest) ToEntity() *group.Group {
	g := group.New(r.Code, r.Name)
	g.Description = r.Description
	g.Margins = ToMarginTable(r.Margins)
	return g
}

type UpdateGroupRequest struct {
	Code        *string               `json:"code"`
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Margins     *[]MarginRangeRequest `json:"margins"`
	Version     int                   `json:"version" binding:"required,min=1"`
}

func (r UpdateGroupRequest) Apply(g *group.Group) *group.Group {
	if r.Code != nil {
		g.Code = *r.Code
	}
	if r.Name != nil {
		g.Name = *r.Name
	}
	if r.Description != nil {
		g.Description = r.Description
	}
	if r.Margins != nil {
		g.Margins = ToMarginTable(*r.Margins)
	}
	g.Version = r.Version
	return g
}

// --- Category ---

type CreateCategoryRequest struct {
	Code        string               `json:"code" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	GroupID     string               `json:"groupId" binding:"required"`
	Description *string              `json:"description"`
	Margins     []MarginRangeRequest `json:"margins"`
}

type UpdateCategoryRequest struct {
	Code        *string               `json:"code"`
	Name        *string               `json:"name"`
	GroupID     *string               `json:"groupId"`
	Description *string               `json:"description"`
	Margins     *[]MarginRangeRequest `json:"margins"`
	Version     int                   `json:"version" binding:"required,min=1"`
}

func (r UpdateCategoryRequest) Apply(c *category.Category) *category.Category {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Description != nil {
		c.Description = r.Description
	}
	if r.Margins != nil {
		c.Margins = ToMarginTable(*r.Margins)
	}
	c.Version = r.Version
	return c
}

// --- Product ---

type CreateProductRequest struct {
	Code       string   `json:"code" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	CategoryID string   `json:"categoryId" binding:"required"`
	Unit       *string  `json:"unit"`
	Price      float64  `json:"price"`
	Supplier   *string  `json:"supplier"`
}

type UpdateProductRequest struct {
	Code       *string  `json:"code"`
	Name       *string  `json:"name"`
	CategoryID *string  `json:"categoryId"`
	Unit       *string  `json:"unit"`
	Price      *float64 `json:"price"`
	Supplier   *string  `json:"supplier"`
	Version    int      `json:"version" binding:"required,min=1"`
}

func (r UpdateProductRequest) Apply(p *product.Product) *product.Product {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Unit != nil {
		p.Unit = r.Unit
	}
	if r.Price != nil {
		p.Price = types.NewMoney(*r.Price)
	}
	if r.Supplier != nil {
		p.Supplier = r.Supplier
	}
	p.Version = r.Version
	return p
}

// --- State ---

type CreateStateRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Editable bool   `json:"editable"`
	Color    string `json:"color"`
}

func (r CreateStateRequest) ToEntity() *state.State {
	s := state.New(r.Code, r.Name, r.Editable)
	s.Color = r.Color
	return s
}

type UpdateStateRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Editable *bool   `json:"editable"`
	Color    *string `json:"color"`
	Version  int     `json:"version" binding:"required,min=1"`
}

func (r UpdateStateRequest) Apply(s *state.State) *state.State {
	if r.Code != nil {
		s.Code = *r.Code
	}
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Editable != nil {
		s.Editable = *r.Editable
	}
	if r.Color != nil {
		s.Color = *r.Color
	}
	s.Version = r.Version
	return s
}

// --- Task ---

// TaskItemRequest is one ordered step of a task with its quantity brackets.
type TaskItemRequest struct {
	Name     string               `json:"name" binding:"required"`
	Brackets []MarginRangeRequest `json:"brackets"`
}

type CreateTaskRequest struct {
	Code       string            `json:"code" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	CategoryID string            `json:"categoryId" binding:"required"`
	Unit       *string           `json:"unit"`
	Items      []TaskItemRequest `json:"items"`
}

type UpdateTaskRequest struct {
	Code       *string            `json:"code"`
	Name       *string            `json:"name"`
	CategoryID *string            `json:"categoryId"`
	Unit       *string            `json:"unit"`
	Items      *[]TaskItemRequest `json:"items"`
	Version    int                `json:"version" binding:"required,min=1"`
}

func (r UpdateTaskRequest) Apply(t *task.Task) *task.Task {
	if r.Code != nil {
		t.Code = *r.Code
	}
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Unit != nil {
		t.Unit = r.Unit
	}
	if r.Items != nil {
		t.Items = nil
		for _, item := range *r.Items {
			t.AddItem(item.Name, ToMarginTable(item.Brackets))
		}
	}
	t.Version = r.Version
	return t
}

// --- Task computation ---

// ComputeTaskRequest for POST /catalog/tasks/:id/compute.
type ComputeTaskRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// ComputeTaskResponse carries per-item amounts and the overall total.
type ComputeTaskResponse struct {
	TaskID   string            `json:"taskId"`
	Quantity float64           `json:"quantity"`
	Items    []task.ItemResult `json:"items"`
	Overall  float64           `json:"overall"`
}
