package handlers

import (
	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ActivityHandler serves project activity feeds
type ActivityHandler struct {
	activity *services.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// Recent returns activity across every project the caller belongs to
// GET /api/activity/recent?limit=15&skip=0
func (h *ActivityHandler) Recent(c *fiber.Ctx) error {
	entries, err := h.activity.Recent(c.UserContext(), middleware.ActorFrom(c).ID, pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// ListProject returns one project's activity
// GET /api/projects/:id/activity
func (h *ActivityHandler) ListProject(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}

	entries, err := h.activity.ListProject(c.UserContext(), middleware.ActorFrom(c).ID, id, pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// Create records a manual activity entry
// POST /api/projects/:id/activity
func (h *ActivityHandler) Create(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateActivityRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	entry, err := h.activity.Create(c.UserContext(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}
