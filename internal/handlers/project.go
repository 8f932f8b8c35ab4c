package handlers

import (
	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles project, roster and joining endpoints
type ProjectHandler struct {
	projects      *services.ProjectService
	notifications *services.NotificationService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectService, notifications *services.NotificationService) *ProjectHandler {
	return &ProjectHandler{projects: projects, notifications: notifications}
}

// Create creates a project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req models.CreateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// List returns every project the caller belongs to
// GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.ListForUser(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListOwned returns the projects the caller owns
// GET /api/projects/owned
func (h *ProjectHandler) ListOwned(c *fiber.Ctx) error {
	projects, err := h.projects.ListOwned(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListWorking returns the projects the caller works on without owning
// GET /api/projects/working
func (h *ProjectHandler) ListWorking(c *fiber.Ctx) error {
	projects, err := h.projects.ListWorking(c.UserContext(), middleware.ActorFrom(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// Get returns one project
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.Get(c.UserContext(), middleware.ActorFrom(c).ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// Update edits project fields (admins)
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.Update(c.UserContext(), middleware.ActorFrom(c).ID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// Delete removes a project and its tasks (owner)
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.projects.Delete(c.UserContext(), middleware.ActorFrom(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return message(c, "Project deleted")
}

// UpdateColumns replaces the kanban column labels (admins)
// PUT /api/projects/:id/columns
func (h *ProjectHandler) UpdateColumns(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateColumnsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.UpdateColumns(c.UserContext(), middleware.ActorFrom(c).ID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project.KanbanColumns)
}

// UpdateSettings changes workflow settings (admins)
// PUT /api/projects/:id/settings
func (h *ProjectHandler) UpdateSettings(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateSettingsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.UpdateSettings(c.UserContext(), middleware.ActorFrom(c).ID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// Members returns the roster with member profiles
// GET /api/projects/:id/members
func (h *ProjectHandler) Members(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}

	members, err := h.projects.Members(c.UserContext(), middleware.ActorFrom(c).ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// Invite sends a project invitation (admins). The target, by userId or
// email, must have signed in at least once; unknown users are 404.
// POST /api/projects/:id/invitations
func (h *ProjectHandler) Invite(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.InviteMemberRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	n, err := h.notifications.Invite(c.UserContext(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// Join asks the project owner for membership
// POST /api/projects/:id/join
func (h *ProjectHandler) Join(c *fiber.Ctx) error {
	id, err := objectID(c, "id", "project")
	if err != nil {
		return respondError(c, err)
	}
	var req models.JoinRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
	}

	n, err := h.notifications.RequestToJoin(c.UserContext(), middleware.ActorFrom(c), id, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}
