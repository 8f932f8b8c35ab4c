package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType tags an audit entry
type ActivityType string

// ActivityType constants
const (
	ActivityTaskCreated       ActivityType = "task_created"
	ActivityCommentAdded      ActivityType = "comment_added"
	ActivityTaskStatusChanged ActivityType = "task_status_changed"
	ActivityTaskAssigned      ActivityType = "task_assigned"
	ActivityUserJoined        ActivityType = "user_joined"
)

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTaskCreated, ActivityCommentAdded, ActivityTaskStatusChanged, ActivityTaskAssigned, ActivityUserJoined:
		return true
	}
	return false
}

// Activity is an append-only audit entry. Never updated or deleted.
type Activity struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Type      ActivityType           `bson:"type" json:"type"`
	UserID    string                 `bson:"user" json:"user"`
	ProjectID primitive.ObjectID     `bson:"project" json:"project"`
	TaskID    *primitive.ObjectID    `bson:"task,omitempty" json:"task,omitempty"`
	Meta      map[string]interface{} `bson:"meta,omitempty" json:"meta,omitempty"`
	Text      string                 `bson:"text" json:"text"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}

// ActivityView is an activity with its references populated
type ActivityView struct {
	Activity
	User    *UserSummary    `json:"userInfo"`
	Project *ProjectSummary `json:"projectInfo"`
	Task    *TaskSummary    `json:"taskInfo"`
}

// CreateActivityRequest is the body of a manual activity entry
type CreateActivityRequest struct {
	Type   ActivityType `json:"type"`
	TaskID string       `json:"taskId,omitempty"`
	Text   string       `json:"text"`
}
