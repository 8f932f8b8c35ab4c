package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectRole is a user's role inside a single project
type ProjectRole string

// ProjectRole constants
const (
	ProjectRoleAdmin  ProjectRole = "admin"
	ProjectRoleMember ProjectRole = "member"
)

// Valid reports whether r is a known project role
func (r ProjectRole) Valid() bool {
	return r == ProjectRoleAdmin || r == ProjectRoleMember
}

// Project groups tasks and owns its membership roster.
// The owner is always present in Members with role admin.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Color       string             `bson:"color" json:"color"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	OwnerID     string             `bson:"owner" json:"owner"`

	Members []ProjectMember `bson:"members" json:"members"`

	// Board configuration
	KanbanColumns []KanbanColumn `bson:"kanbanColumns" json:"kanbanColumns"`

	// Workflow settings
	AllowWorkerEstimation bool `bson:"allowWorkerEstimation" json:"allowWorkerEstimation"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProjectMember is one (user, role) entry of a project roster
type ProjectMember struct {
	UserID  string      `bson:"user" json:"user"`
	Role    ProjectRole `bson:"role" json:"role"`
	AddedAt time.Time   `bson:"addedAt" json:"addedAt"`
}

// KanbanColumn maps a workflow status to a project-specific label
type KanbanColumn struct {
	Status TaskStatus `bson:"status" json:"status"`
	Label  string     `bson:"label" json:"label"`
}

// DefaultKanbanColumns returns one column per workflow status
func DefaultKanbanColumns() []KanbanColumn {
	return []KanbanColumn{
		{Status: TaskStatusTodo, Label: "To Do"},
		{Status: TaskStatusInProgress, Label: "In Progress"},
		{Status: TaskStatusReview, Label: "Review"},
		{Status: TaskStatusDone, Label: "Done"},
	}
}

// IsOwner checks if a user is the project owner
func (p *Project) IsOwner(userID string) bool {
	return p.OwnerID == userID
}

// RoleOf returns the role of a member (empty if not a member)
func (p *Project) RoleOf(userID string) ProjectRole {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// IsMember checks if a user is on the roster
func (p *Project) IsMember(userID string) bool {
	return p.RoleOf(userID) != ""
}

// MemberIDs returns the user ids of the roster in order
func (p *Project) MemberIDs() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// ProjectSummary is the populated form of a project reference
type ProjectSummary struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// MemberView is a roster entry joined with the member's profile
type MemberView struct {
	User    *UserSummary `json:"user"`
	UserID  string       `json:"userId"`
	Role    ProjectRole  `json:"role"`
	AddedAt time.Time    `json:"addedAt"`
}

// CreateProjectRequest is the request body for creating a project
type CreateProjectRequest struct {
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	Color                 string     `json:"color"`
	DueDate               *time.Time `json:"dueDate,omitempty"`
	AllowWorkerEstimation bool       `json:"allowWorkerEstimation"`
}

// UpdateProjectRequest is the request body for editing project fields.
// Nil fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Color       *string    `json:"color,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateColumnsRequest replaces the project's kanban column labels
type UpdateColumnsRequest struct {
	Columns []KanbanColumn `json:"columns"`
}

// UpdateSettingsRequest changes workflow-affecting settings
type UpdateSettingsRequest struct {
	AllowWorkerEstimation *bool `json:"allowWorkerEstimation,omitempty"`
}

// InviteMemberRequest targets a user by id or, failing that, by email
type InviteMemberRequest struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
}

// JoinRequest is the body of a collaboration request
type JoinRequest struct {
	ProjectID string `json:"projectId,omitempty"`
	Message   string `json:"message,omitempty"`
}
