package services

import (
	"context"
	"errors"
	"time"

	"taskflow/internal/database"
	"taskflow/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrAlreadyMember is returned by ProjectStore.AddMember when the user is on the roster
var ErrAlreadyMember = errors.New("user is already a member")

// ProjectChanges is the persisted delta of a project update. Nil fields are left untouched.
type ProjectChanges struct {
	Name                  *string
	Description           *string
	Color                 *string
	DueDate               *time.Time
	KanbanColumns         *[]models.KanbanColumn
	AllowWorkerEstimation *bool
}

// ProjectStore persists projects and their embedded rosters
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error)
	ListByMember(ctx context.Context, userID string) ([]models.Project, error)
	Update(ctx context.Context, id primitive.ObjectID, changes ProjectChanges) (*models.Project, error)
	// AddMember appends to the roster in one conditional write.
	// Returns ErrAlreadyMember or database.ErrNotFound.
	AddMember(ctx context.Context, id primitive.ObjectID, member models.ProjectMember) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

// TaskStore persists tasks
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, changes models.TaskChanges) (*models.Task, error)
	AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error
	RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DeleteByProject removes every task of a project and returns their ids
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error)
	ProjectIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// CommentStore persists task comments
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByTasks(ctx context.Context, taskIDs []primitive.ObjectID) (int64, error)
}

// PendingFilter selects pending actionable notifications. Empty fields match anything.
type PendingFilter struct {
	Type        models.NotificationType
	ProjectID   primitive.ObjectID
	SenderID    string
	RecipientID string
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, page models.Page) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	// Resolve moves a pending notification to status and rewrites its type.
	// Returns false when the notification was no longer pending.
	Resolve(ctx context.Context, id primitive.ObjectID, typ models.NotificationType, status models.NotificationStatus, at time.Time) (bool, error)
	HasPending(ctx context.Context, filter PendingFilter) (bool, error)
	Delete(ctx context.Context, recipientID string, id primitive.ObjectID) error
}

// ActivityStore persists the append-only audit trail
type ActivityStore interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListByProjects(ctx context.Context, projectIDs []primitive.ObjectID, page models.Page) ([]models.Activity, error)
}

// UserStore persists the identity mirror
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMany(ctx context.Context, ids []string) ([]models.User, error)
}

// Stores bundles every store the services need
type Stores struct {
	Projects      ProjectStore
	Tasks         TaskStore
	Comments      CommentStore
	Notifications NotificationStore
	Activities    ActivityStore
	Users         UserStore
}

// NewMongoStores creates MongoDB-backed stores
func NewMongoStores(mongodb *database.MongoDB) *Stores {
	return &Stores{
		Projects:      NewMongoProjectStore(mongodb),
		Tasks:         NewMongoTaskStore(mongodb),
		Comments:      NewMongoCommentStore(mongodb),
		Notifications: NewMongoNotificationStore(mongodb),
		Activities:    NewMongoActivityStore(mongodb),
		Users:         NewMongoUserStore(mongodb),
	}
}

// isNotFound reports whether a store error means the document is absent
func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
