package services

import (
	"log/slog"
	"time"
)

// Core wires the collaboration services over one set of stores
type Core struct {
	Stores        *Stores
	Users         *UserDirectory
	Projects      *ProjectService
	Activity      *ActivityService
	Notifications *NotificationService
	Tasks         *TaskService
	Comments      *CommentService
}

// NewCore creates every service. Optional collaborators (publisher, mailer,
// page sizes) are set afterwards through the services' setters.
func NewCore(stores *Stores, userCacheTTL time.Duration, logger *slog.Logger) *Core {
	effects := NewSideEffects(logger)
	users := NewUserDirectory(stores.Users, userCacheTTL)
	projects := NewProjectService(stores, users, effects)
	activity := NewActivityService(stores, projects, users, effects)
	notifications := NewNotificationService(stores, projects, activity, users, effects)

	return &Core{
		Stores:        stores,
		Users:         users,
		Projects:      projects,
		Activity:      activity,
		Notifications: notifications,
		Tasks:         NewTaskService(stores, projects, notifications, activity, users, effects),
		Comments:      NewCommentService(stores, projects, notifications, activity, users),
	}
}
