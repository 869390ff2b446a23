package handlers

import (
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

var taskFilters = []string{"status", "category_id", "completed"}

type TaskHandler struct{}

func NewTaskHandler() *TaskHandler {
	return &TaskHandler{}
}

type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Deadline    Date      `json:"deadline"`
	CategoryID  uuid.UUID `json:"category_id"`
	Description string    `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Deadline    *Date      `json:"deadline"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Description *string    `json:"description"`
}

type CompleteTaskRequest struct {
	Completed bool   `json:"completed"`
	Note      string `json:"note"`
}

// GetTasks handles GET /v1/tasks. Statuses are refreshed against today's date
// before listing.
func (h *TaskHandler) GetTasks(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	result, state, err := ws.ListTasks(c.Context(), listUpdate(c, taskFilters...))
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, listPayload[services.TaskRow]{ListResult: result, State: state})
}

func (h *TaskHandler) GetTask(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	task, err := ws.Task(c.Context(), id)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, task)
}

// CreateTask handles POST /v1/tasks
func (h *TaskHandler) CreateTask(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	var req CreateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	saved, err := ws.CreateTask(c.Context(), models.Task{
		Title:       req.Title,
		Deadline:    req.Deadline.Time,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		return apiError(err)
	}
	return savedResponse(c, saved)
}

// UpdateTask handles PUT /v1/tasks/:id
func (h *TaskHandler) UpdateTask(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	task, err := ws.UpdateTask(c.Context(), id, models.TaskPatch{
		Title:       req.Title,
		Deadline:    req.Deadline.ptr(),
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, task)
}

// CompleteTask handles PATCH /v1/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req CompleteTaskRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	task, err := ws.SetTaskCompleted(c.Context(), id, req.Completed, req.Note)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, task)
}

func (h *TaskHandler) DeleteTask(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteTask(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
