// Package permission decides whether an actor may perform an action on a
// project. Every function here is pure: it reads the roster and settings it
// is given and never touches storage.
package permission

import (
	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// Action is an operation gated by project role
type Action int

const (
	// ActionRead - view project, task, roster and activity data
	ActionRead Action = iota

	// ActionWriteTask - create, update or delete tasks, comments and attachments
	ActionWriteTask

	// ActionEditProject - change project fields (name, description, dates)
	ActionEditProject

	// ActionManageColumns - change kanban column configuration
	ActionManageColumns

	// ActionInvite - send project invitations
	ActionInvite

	// ActionChangeSettings - change workflow-affecting settings
	ActionChangeSettings

	// ActionEstimate - set a task's time estimate
	ActionEstimate

	// ActionDeleteProject - delete the project and cascade its tasks
	ActionDeleteProject
)

// String returns a human-readable action name
func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWriteTask:
		return "write_task"
	case ActionEditProject:
		return "edit_project"
	case ActionManageColumns:
		return "manage_columns"
	case ActionInvite:
		return "invite"
	case ActionChangeSettings:
		return "change_settings"
	case ActionEstimate:
		return "estimate"
	case ActionDeleteProject:
		return "delete_project"
	default:
		return "unknown"
	}
}

// IsAdmin reports whether the actor holds admin rights on the project.
// The owner counts as admin even if the roster disagrees.
func IsAdmin(actorID string, project *models.Project) bool {
	return project.IsOwner(actorID) || project.RoleOf(actorID) == models.ProjectRoleAdmin
}

// Allowed reports whether the actor may perform action on project
func Allowed(actorID string, project *models.Project, action Action) bool {
	if project == nil || actorID == "" {
		return false
	}

	switch action {
	case ActionRead, ActionWriteTask:
		return project.IsMember(actorID) || project.IsOwner(actorID)
	case ActionEditProject, ActionManageColumns, ActionInvite, ActionChangeSettings:
		return IsAdmin(actorID, project)
	case ActionEstimate:
		if IsAdmin(actorID, project) {
			return true
		}
		return project.IsMember(actorID) && project.AllowWorkerEstimation
	case ActionDeleteProject:
		return project.IsOwner(actorID)
	default:
		return false
	}
}

var denyMessages = map[Action]string{
	ActionRead:           "You are not a member of this project",
	ActionWriteTask:      "You are not a member of this project",
	ActionEditProject:    "Only project admins can edit the project",
	ActionManageColumns:  "Only project admins can change the board columns",
	ActionInvite:         "Only project admins can send invitations",
	ActionChangeSettings: "Only project admins can change project settings",
	ActionEstimate:       "You are not allowed to estimate tasks in this project",
	ActionDeleteProject:  "Only the project owner can delete the project",
}

// Check returns a Forbidden error when the actor may not perform action
func Check(actorID string, project *models.Project, action Action) error {
	if Allowed(actorID, project, action) {
		return nil
	}
	msg, ok := denyMessages[action]
	if !ok {
		msg = "Action not allowed"
	}
	return apperr.Forbidden("%s", msg)
}

// CanDeleteAuthored reports whether the actor may delete content authored
// by authorID (comments, attachments). Only the author or the project owner
// qualify; a non-owner admin does not.
func CanDeleteAuthored(actorID, authorID string, project *models.Project) bool {
	if actorID == "" {
		return false
	}
	if actorID == authorID {
		return true
	}
	return project != nil && project.IsOwner(actorID)
}

// CheckDeleteAuthored returns a Forbidden error unless CanDeleteAuthored allows it
func CheckDeleteAuthored(actorID, authorID string, project *models.Project) error {
	if CanDeleteAuthored(actorID, authorID, project) {
		return nil
	}
	return apperr.Forbidden("Only the author or the project owner can delete this")
}
