package handlers

import (
	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CommentHandler handles task comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Create posts a comment on a task
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	taskID, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	comment, err := h.comments.Create(c.UserContext(), middleware.ActorFrom(c), taskID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// List returns a task's comments, oldest first
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *fiber.Ctx) error {
	taskID, err := objectID(c, "id", "task")
	if err != nil {
		return respondError(c, err)
	}

	comments, err := h.comments.List(c.UserContext(), middleware.ActorFrom(c).ID, taskID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// Delete removes a comment (author or project owner)
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "comment")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.comments.Delete(c.UserContext(), middleware.ActorFrom(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
