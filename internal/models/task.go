package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is a workflow state of a task
type TaskStatus string

// TaskStatus constants, in board order
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every workflow state in board order
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}

// Valid reports whether s is a known workflow state
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TaskPriority is the urgency of a task
type TaskPriority string

// TaskPriority constants
const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Valid reports whether p is a known priority
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

// Task is a unit of work inside a project
type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID   `bson:"project" json:"project"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Status      TaskStatus           `bson:"status" json:"status"`
	Priority    TaskPriority         `bson:"priority" json:"priority"`
	Assignees   []string             `bson:"assignees" json:"assignees"`
	Labels      []primitive.ObjectID `bson:"labels" json:"labels"`
	Subtasks    []Subtask            `bson:"subtasks" json:"subtasks"`
	Attachments []Attachment         `bson:"attachments" json:"attachments"`

	DueDate        *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	EstimatedTime  *float64   `bson:"estimatedTime,omitempty" json:"estimatedTime,omitempty"` // hours
	AssignmentDate *time.Time `bson:"assignmentDate,omitempty" json:"assignmentDate,omitempty"`
	CompletionDate *time.Time `bson:"completionDate,omitempty" json:"completionDate,omitempty"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsAssigned checks if a user is among the assignees
func (t *Task) IsAssigned(userID string) bool {
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}

// Subtask is a checklist item embedded in a task
type Subtask struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Text      string             `bson:"text" json:"text"`
	Completed bool               `bson:"completed" json:"completed"`
}

// AttachmentType is a coarse file classification
type AttachmentType string

// AttachmentType constants
const (
	AttachmentTypeImage    AttachmentType = "image"
	AttachmentTypeDocument AttachmentType = "document"
	AttachmentTypeOther    AttachmentType = "other"
)

// Attachment is metadata for a file stored by an external file service
type Attachment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	URL        string             `bson:"url" json:"url"`
	Size       string             `bson:"size" json:"size"`
	Type       AttachmentType     `bson:"type" json:"type"`
	UploadedBy string             `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

// TaskSummary is the populated form of a task reference
type TaskSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Title string             `json:"title"`
}

// TaskFilter narrows a project task listing
type TaskFilter struct {
	Status   TaskStatus
	Assignee string
	Priority TaskPriority
}

// TaskChanges is the persisted delta of a task update.
// Nil fields are left untouched; ClearCompletionDate unsets the field.
type TaskChanges struct {
	Title               *string
	Description         *string
	Status              *TaskStatus
	Priority            *TaskPriority
	Assignees           *[]string
	Subtasks            *[]Subtask
	DueDate             *time.Time
	EstimatedTime       *float64
	AssignmentDate      *time.Time
	CompletionDate      *time.Time
	ClearCompletionDate bool
}

// CreateTaskRequest is the request body for creating a task
type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
}

// UpdateTaskRequest is the request body for a task update.
// Only present fields are changed.
type UpdateTaskRequest struct {
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Status        *TaskStatus   `json:"status,omitempty"`
	Priority      *TaskPriority `json:"priority,omitempty"`
	Assignees     *[]string     `json:"assignees,omitempty"`
	Subtasks      *[]Subtask    `json:"subtasks,omitempty"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	EstimatedTime *float64      `json:"estimatedTime,omitempty"`
}

// AddAttachmentRequest registers an already-uploaded file on a task
type AddAttachmentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size string `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}
