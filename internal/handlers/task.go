package handlers

import (
	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create adds a task to a project
// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	projectID, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.Create(c.UserContext(), middleware.ActorFrom(c), projectID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// ListByProject returns a project's tasks
// GET /api/projects/:id/tasks?status=todo&assignee=<id>&priority=high
func (h *TaskHandler) ListByProject(c *fiber.Ctx) error {
	projectID, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	filter := models.TaskFilter{
		Status:   models.TaskStatus(c.Query("status")),
		Assignee: c.Query("assignee"),
		Priority: models.TaskPriority(c.Query("priority")),
	}

	tasks, err := h.tasks.ListByProject(c.UserContext(), middleware.ActorFrom(c).ID, projectID, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// MyTasks returns tasks assigned to the caller
// GET /api/tasks/my-tasks
func (h *TaskHandler) MyTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.MyTasks(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// Get returns one task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.Get(c.UserContext(), middleware.ActorFrom(c).ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(task)
}

// Update applies a task update and its status/assignment side effects
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.Update(c.UserContext(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(task)
}

// Delete removes a task and its comments
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.tasks.Delete(c.UserContext(), middleware.ActorFrom(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return message(c, "Task deleted")
}

// AddAttachment registers uploaded file metadata on a task
// POST /api/tasks/:id/attachments
func (h *TaskHandler) AddAttachment(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}
	var req models.AddAttachmentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	attachment, err := h.tasks.AddAttachment(c.UserContext(), middleware.ActorFrom(c).ID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// RemoveAttachment deletes attachment metadata from a task
// DELETE /api/tasks/:id/attachments/:attachmentId
func (h *TaskHandler) RemoveAttachment(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}
	attachmentID, err := objectID(c, "attachmentId", "attachment")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.tasks.RemoveAttachment(c.UserContext(), middleware.ActorFrom(c).ID, id, attachmentID); err != nil {
		return respondError(c, err)
	}
	return message(c, "Attachment deleted")
}
