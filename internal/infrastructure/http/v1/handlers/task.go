package handlers

import (
	"github.com/gin-gonic/gin"

	"quotis/internal/domain/catalogs/task"
	"quotis/internal/infrastructure/http/v1/dto"
)

// TaskHandler extends the generic catalog handler with task computation.
type TaskHandler struct {
	*CatalogHandler[*task.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest]
	service *task.Service
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(
	catalog *CatalogHandler[*task.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest],
	service *task.Service,
) *TaskHandler {
	return &TaskHandler{
		CatalogHandler: catalog,
		service:        service,
	}
}

// Compute handles POST /catalog/tasks/:id/compute - price every item of the
// task for the requested quantity.
func (h *TaskHandler) Compute(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ComputeTaskRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items, overall, err := h.service.Compute(ctx, taskID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ComputeTaskResponse{
		TaskID:   taskID.String(),
		Quantity: req.Quantity,
		Items:    items,
		Overall:  overall,
	})
}
