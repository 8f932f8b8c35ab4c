package handlers

import (
	"taskflow/internal/apperr"
	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles the caller's inbox
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first
// GET /api/notifications?limit=30&skip=0
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	list, err := h.notifications.List(c.UserContext(), middleware.ActorFrom(c).ID, pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UnreadCount returns the number of unread notifications
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.notifications.UnreadCount(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkAllRead marks every notification of the caller read
// PUT /api/notifications/read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := h.notifications.MarkAllRead(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notifications marked as read", "updated": updated})
}

// MarkRead marks one notification read
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "notification")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.notifications.MarkRead(c.UserContext(), middleware.ActorFrom(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return message(c, "Notification marked as read")
}

// Respond accepts or declines an invitation or collaboration request
// PUT /api/notifications/:id/respond
func (h *NotificationHandler) Respond(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "notification")
	if err != nil {
		return respondError(c, err)
	}
	var req models.RespondRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	n, err := h.notifications.Respond(c.UserContext(), middleware.ActorFrom(c), id, req.Response)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// Delete removes one of the caller's notifications
// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "notification")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.notifications.Delete(c.UserContext(), middleware.ActorFrom(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return message(c, "Notification deleted")
}

// Collaborate sends a collaboration request for the project in the body
// POST /api/notifications/collaborate
func (h *NotificationHandler) Collaborate(c *fiber.Ctx) error {
	var req models.JoinRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		return respondError(c, apperr.InvalidRequest("A valid projectId is required"))
	}

	n, err := h.notifications.RequestToJoin(c.UserContext(), middleware.ActorFrom(c), projectID, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}
