package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType tags the kind of a notification
type NotificationType string

// Actionable types carry a pending/accepted/declined lifecycle
const (
	NotificationProjectInvitation    NotificationType = "project_invitation"
	NotificationCollaborationRequest NotificationType = "collaboration_request"
)

// Informational types are created with status info and never transition
const (
	NotificationTaskCreated           NotificationType = "task_created"
	NotificationTaskAssigned          NotificationType = "task_assigned"
	NotificationTaskStatusChanged     NotificationType = "task_status_changed"
	NotificationNewComment            NotificationType = "new_comment"
	NotificationInvitationAccepted    NotificationType = "invitation_accepted"
	NotificationInvitationDeclined    NotificationType = "invitation_declined"
	NotificationCollaborationAccepted NotificationType = "collaboration_accepted"
	NotificationCollaborationDeclined NotificationType = "collaboration_declined"
)

// NotificationTypes lists every current type name
var NotificationTypes = []NotificationType{
	NotificationProjectInvitation,
	NotificationCollaborationRequest,
	NotificationTaskCreated,
	NotificationTaskAssigned,
	NotificationTaskStatusChanged,
	NotificationNewComment,
	NotificationInvitationAccepted,
	NotificationInvitationDeclined,
	NotificationCollaborationAccepted,
	NotificationCollaborationDeclined,
}

// legacyNotificationTypes maps names persisted by older releases to their
// current names.
var legacyNotificationTypes = map[NotificationType]NotificationType{
	"invitation":      NotificationProjectInvitation,
	"task_assignment": NotificationTaskAssigned,
	"comment":         NotificationNewComment,
}

// Normalize maps a deprecated type name to its current name.
// Unknown and current names are returned unchanged.
func (t NotificationType) Normalize() NotificationType {
	if current, ok := legacyNotificationTypes[t]; ok {
		return current
	}
	return t
}

// WithAliases returns t followed by every legacy name that normalizes to it
func (t NotificationType) WithAliases() []NotificationType {
	names := []NotificationType{t}
	for legacy, current := range legacyNotificationTypes {
		if current == t {
			names = append(names, legacy)
		}
	}
	return names
}

// Valid reports whether t is a current type name
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Actionable reports whether notifications of type t await a response
func (t NotificationType) Actionable() bool {
	return t == NotificationProjectInvitation || t == NotificationCollaborationRequest
}

// NotificationStatus is the lifecycle state of a notification
type NotificationStatus string

// NotificationStatus constants
const (
	NotificationStatusPending  NotificationStatus = "pending"
	NotificationStatusAccepted NotificationStatus = "accepted"
	NotificationStatusDeclined NotificationStatus = "declined"
	NotificationStatusInfo     NotificationStatus = "info"
)

// Notification is addressed to one recipient
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID string              `bson:"recipient" json:"recipient"`
	SenderID    string              `bson:"sender" json:"sender"`
	Type        NotificationType    `bson:"type" json:"type"`
	Status      NotificationStatus  `bson:"status" json:"status"`
	Read        bool                `bson:"read" json:"read"`
	ProjectID   *primitive.ObjectID `bson:"project,omitempty" json:"project,omitempty"`
	TaskID      *primitive.ObjectID `bson:"task,omitempty" json:"task,omitempty"`
	Text        string              `bson:"text" json:"text"`
	Link        string              `bson:"link" json:"link"`
	RespondedAt *time.Time          `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// NotificationView is a notification with its references populated.
// Sender and Project are nil when the referent no longer exists.
type NotificationView struct {
	Notification
	Sender  *UserSummary    `json:"senderInfo"`
	Project *ProjectSummary `json:"projectInfo"`
}

// NotificationResponse is the recipient's answer to an actionable notification
type NotificationResponse string

// NotificationResponse constants. Any value other than accepted declines.
const (
	ResponseAccepted NotificationResponse = "accepted"
	ResponseDeclined NotificationResponse = "declined"
)

// RespondRequest is the request body for responding to a notification
type RespondRequest struct {
	Response NotificationResponse `json:"response"`
}

// Page bounds a newest-first listing
type Page struct {
	Limit int64
	Skip  int64
}
