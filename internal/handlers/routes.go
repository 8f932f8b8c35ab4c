package handlers

import (
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// API bundles the authenticated handlers
type API struct {
	Projects      *ProjectHandler
	Tasks         *TaskHandler
	Comments      *CommentHandler
	Notifications *NotificationHandler
	Activity      *ActivityHandler
}

// NewAPI wires every handler to the core services
func NewAPI(core *services.Core) *API {
	return &API{
		Projects:      NewProjectHandler(core.Projects, core.Notifications),
		Tasks:         NewTaskHandler(core.Tasks),
		Comments:      NewCommentHandler(core.Comments),
		Notifications: NewNotificationHandler(core.Notifications),
		Activity:      NewActivityHandler(core.Activity),
	}
}

// Register mounts the routes on an already-authenticated router.
// Static segments are registered before their :id siblings.
func (a *API) Register(api fiber.Router) {
	// Notifications
	api.Get("/notifications", a.Notifications.List)
	api.Get("/notifications/unread-count", a.Notifications.UnreadCount)
	api.Put("/notifications/read", a.Notifications.MarkAllRead)
	api.Post("/notifications/collaborate", a.Notifications.Collaborate)
	api.Put("/notifications/:id/read", a.Notifications.MarkRead)
	api.Put("/notifications/:id/respond", a.Notifications.Respond)
	api.Delete("/notifications/:id", a.Notifications.Delete)

	// Activity
	api.Get("/activity/recent", a.Activity.Recent)

	// Projects
	api.Post("/projects", a.Projects.Create)
	api.Get("/projects", a.Projects.List)
	api.Get("/projects/owned", a.Projects.ListOwned)
	api.Get("/projects/working", a.Projects.ListWorking)
	api.Get("/projects/:id", a.Projects.Get)
	api.Put("/projects/:id", a.Projects.Update)
	api.Delete("/projects/:id", a.Projects.Delete)
	api.Put("/projects/:id/columns", a.Projects.UpdateColumns)
	api.Put("/projects/:id/settings", a.Projects.UpdateSettings)
	api.Get("/projects/:id/members", a.Projects.Members)
	api.Post("/projects/:id/invitations", a.Projects.Invite)
	api.Post("/projects/:id/join", a.Projects.Join)
	api.Get("/projects/:id/activity", a.Activity.ListProject)
	api.Post("/projects/:id/activity", a.Activity.Create)
	api.Post("/projects/:id/tasks", a.Tasks.Create)
	api.Get("/projects/:id/tasks", a.Tasks.ListByProject)

	// Tasks
	api.Get("/tasks/my-tasks", a.Tasks.MyTasks)
	api.Get("/tasks/:id", a.Tasks.Get)
	api.Put("/tasks/:id", a.Tasks.Update)
	api.Delete("/tasks/:id", a.Tasks.Delete)
	api.Post("/tasks/:id/attachments", a.Tasks.AddAttachment)
	api.Delete("/tasks/:id/attachments/:attachmentId", a.Tasks.RemoveAttachment)
	api.Post("/tasks/:id/comments", a.Comments.Create)
	api.Get("/tasks/:id/comments", a.Comments.List)

	// Comments
	api.Delete("/comments/:id", a.Comments.Delete)
}
