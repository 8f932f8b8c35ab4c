package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/internal/database"
	"taskflow/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB is a process-local document store used for development without
// MongoDB and in tests. Every method holds the lock for the whole
// read-modify-write, so each call is atomic per document like the Mongo stores.
type memoryDB struct {
	mu            sync.RWMutex
	projects      []*models.Project
	tasks         []*models.Task
	comments      []*models.Comment
	notifications []*models.Notification
	activities    []*models.Activity
	users         map[string]*models.User
}

// NewMemoryStores creates in-memory stores sharing one lock
func NewMemoryStores() *Stores {
	db := &memoryDB{users: make(map[string]*models.User)}
	return &Stores{
		Projects:      &MemoryProjectStore{db: db},
		Tasks:         &MemoryTaskStore{db: db},
		Comments:      &MemoryCommentStore{db: db},
		Notifications: &MemoryNotificationStore{db: db},
		Activities:    &MemoryActivityStore{db: db},
		Users:         &MemoryUserStore{db: db},
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.DueDate = copyTime(p.DueDate)
	c.Members = append([]models.ProjectMember(nil), p.Members...)
	c.KanbanColumns = append([]models.KanbanColumn(nil), p.KanbanColumns...)
	return &c
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.Assignees = append([]string{}, t.Assignees...)
	c.Labels = append([]primitive.ObjectID{}, t.Labels...)
	c.Subtasks = append([]models.Subtask{}, t.Subtasks...)
	c.Attachments = append([]models.Attachment{}, t.Attachments...)
	c.DueDate = copyTime(t.DueDate)
	c.AssignmentDate = copyTime(t.AssignmentDate)
	c.CompletionDate = copyTime(t.CompletionDate)
	if t.EstimatedTime != nil {
		v := *t.EstimatedTime
		c.EstimatedTime = &v
	}
	return &c
}

func cloneNotification(n *models.Notification) *models.Notification {
	c := *n
	c.ProjectID = copyID(n.ProjectID)
	c.TaskID = copyID(n.TaskID)
	c.RespondedAt = copyTime(n.RespondedAt)
	return &c
}

func cloneActivity(a *models.Activity) *models.Activity {
	c := *a
	c.TaskID = copyID(a.TaskID)
	if a.Meta != nil {
		c.Meta = make(map[string]interface{}, len(a.Meta))
		for k, v := range a.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// newestFirst orders by createdAt descending, later inserts first on ties
func newestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	out := make([]T, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func paginate[T any](items []T, page models.Page) []T {
	if page.Skip >= int64(len(items)) {
		return nil
	}
	items = items[page.Skip:]
	if page.Limit > 0 && page.Limit < int64(len(items)) {
		items = items[:page.Limit]
	}
	return items
}

// MemoryProjectStore is the in-memory ProjectStore
type MemoryProjectStore struct{ db *memoryDB }

func (s *MemoryProjectStore) find(id primitive.ObjectID) (int, *models.Project) {
	for i, p := range s.db.projects {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

// Create inserts a new project
func (s *MemoryProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.CreatedAt = now
	project.UpdatedAt = now
	s.db.projects = append(s.db.projects, cloneProject(project))
	return nil
}

// GetByID returns a project by ID
func (s *MemoryProjectStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if _, p := s.find(id); p != nil {
		return cloneProject(p), nil
	}
	return nil, database.ErrNotFound
}

// GetMany returns the projects that exist among ids
func (s *MemoryProjectStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []models.Project
	for _, id := range ids {
		if _, p := s.find(id); p != nil {
			out = append(out, *cloneProject(p))
		}
	}
	return out, nil
}

// ListByMember returns projects whose roster contains userID, newest first
func (s *MemoryProjectStore) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var matched []*models.Project
	for _, p := range s.db.projects {
		if p.IsMember(userID) {
			matched = append(matched, p)
		}
	}

	var out []models.Project
	for _, p := range newestFirst(matched, func(p *models.Project) time.Time { return p.CreatedAt }) {
		out = append(out, *cloneProject(p))
	}
	return out, nil
}

// Update applies changes and returns the updated project
func (s *MemoryProjectStore) Update(ctx context.Context, id primitive.ObjectID, changes ProjectChanges) (*models.Project, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, p := s.find(id)
	if p == nil {
		return nil, database.ErrNotFound
	}
	if changes.Name != nil {
		p.Name = *changes.Name
	}
	if changes.Description != nil {
		p.Description = *changes.Description
	}
	if changes.Color != nil {
		p.Color = *changes.Color
	}
	if changes.DueDate != nil {
		p.DueDate = copyTime(changes.DueDate)
	}
	if changes.KanbanColumns != nil {
		p.KanbanColumns = append([]models.KanbanColumn(nil), (*changes.KanbanColumns)...)
	}
	if changes.AllowWorkerEstimation != nil {
		p.AllowWorkerEstimation = *changes.AllowWorkerEstimation
	}
	p.UpdatedAt = time.Now()
	return cloneProject(p), nil
}

// AddMember appends a roster entry unless the user is already present
func (s *MemoryProjectStore) AddMember(ctx context.Context, id primitive.ObjectID, member models.ProjectMember) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, p := s.find(id)
	if p == nil {
		return database.ErrNotFound
	}
	if p.IsMember(member.UserID) {
		return ErrAlreadyMember
	}
	p.Members = append(p.Members, member)
	p.UpdatedAt = time.Now()
	return nil
}

// Delete removes a project by ID
func (s *MemoryProjectStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	i, p := s.find(id)
	if p == nil {
		return database.ErrNotFound
	}
	s.db.projects = append(s.db.projects[:i], s.db.projects[i+1:]...)
	return nil
}

// ExistingIDs reports which of ids still exist
func (s *MemoryProjectStore) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	existing := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if _, p := s.find(id); p != nil {
			existing[id] = true
		}
	}
	return existing, nil
}

// MemoryTaskStore is the in-memory TaskStore
type MemoryTaskStore struct{ db *memoryDB }

func (s *MemoryTaskStore) find(id primitive.ObjectID) (int, *models.Task) {
	for i, t := range s.db.tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// Create inserts a new task
func (s *MemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	task.ID = primitive.NewObjectID()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.db.tasks = append(s.db.tasks, cloneTask(task))
	return nil
}

// GetByID returns a task by ID
func (s *MemoryTaskStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if _, t := s.find(id); t != nil {
		return cloneTask(t), nil
	}
	return nil, database.ErrNotFound
}

// GetMany returns the tasks that exist among ids
func (s *MemoryTaskStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []models.Task
	for _, id := range ids {
		if _, t := s.find(id); t != nil {
			out = append(out, *cloneTask(t))
		}
	}
	return out, nil
}

func (s *MemoryTaskStore) list(match func(*models.Task) bool) []models.Task {
	var matched []*models.Task
	for _, t := range s.db.tasks {
		if match(t) {
			matched = append(matched, t)
		}
	}

	var out []models.Task
	for _, t := range newestFirst(matched, func(t *models.Task) time.Time { return t.CreatedAt }) {
		out = append(out, *cloneTask(t))
	}
	return out
}

// ListByProject returns a project's tasks matching filter, newest first
func (s *MemoryTaskStore) ListByProject(ctx context.Context, projectID primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.list(func(t *models.Task) bool {
		if t.ProjectID != projectID {
			return false
		}
		if filter.Status != "" && t.Status != filter.Status {
			return false
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			return false
		}
		if filter.Assignee != "" && !t.IsAssigned(filter.Assignee) {
			return false
		}
		return true
	}), nil
}

// ListByAssignee returns the tasks assigned to userID, newest first
func (s *MemoryTaskStore) ListByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.list(func(t *models.Task) bool { return t.IsAssigned(userID) }), nil
}

// Update applies changes and returns the updated task
func (s *MemoryTaskStore) Update(ctx context.Context, id primitive.ObjectID, changes models.TaskChanges) (*models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, t := s.find(id)
	if t == nil {
		return nil, database.ErrNotFound
	}
	if changes.Title != nil {
		t.Title = *changes.Title
	}
	if changes.Description != nil {
		t.Description = *changes.Description
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	if changes.Priority != nil {
		t.Priority = *changes.Priority
	}
	if changes.Assignees != nil {
		t.Assignees = append([]string{}, (*changes.Assignees)...)
	}
	if changes.Subtasks != nil {
		t.Subtasks = append([]models.Subtask{}, (*changes.Subtasks)...)
	}
	if changes.DueDate != nil {
		t.DueDate = copyTime(changes.DueDate)
	}
	if changes.EstimatedTime != nil {
		v := *changes.EstimatedTime
		t.EstimatedTime = &v
	}
	if changes.AssignmentDate != nil {
		t.AssignmentDate = copyTime(changes.AssignmentDate)
	}
	if changes.CompletionDate != nil {
		t.CompletionDate = copyTime(changes.CompletionDate)
	}
	if changes.ClearCompletionDate {
		t.CompletionDate = nil
	}
	t.UpdatedAt = time.Now()
	return cloneTask(t), nil
}

// AddAttachment appends attachment metadata to a task
func (s *MemoryTaskStore) AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, t := s.find(id)
	if t == nil {
		return database.ErrNotFound
	}
	t.Attachments = append(t.Attachments, attachment)
	t.UpdatedAt = time.Now()
	return nil
}

// RemoveAttachment drops one attachment from a task
func (s *MemoryTaskStore) RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, t := s.find(id)
	if t == nil {
		return database.ErrNotFound
	}
	for i, a := range t.Attachments {
		if a.ID == attachmentID {
			t.Attachments = append(t.Attachments[:i], t.Attachments[i+1:]...)
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return database.ErrNotFound
}

// Delete removes a task by ID
func (s *MemoryTaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	i, t := s.find(id)
	if t == nil {
		return database.ErrNotFound
	}
	s.db.tasks = append(s.db.tasks[:i], s.db.tasks[i+1:]...)
	return nil
}

// DeleteByProject removes all tasks of a project
func (s *MemoryTaskStore) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var deleted []primitive.ObjectID
	kept := s.db.tasks[:0]
	for _, t := range s.db.tasks {
		if t.ProjectID == projectID {
			deleted = append(deleted, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.db.tasks = kept
	return deleted, nil
}

// ProjectIDs returns the distinct projects referenced by tasks
func (s *MemoryTaskStore) ProjectIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, t := range s.db.tasks {
		if !seen[t.ProjectID] {
			seen[t.ProjectID] = true
			ids = append(ids, t.ProjectID)
		}
	}
	return ids, nil
}

// MemoryCommentStore is the in-memory CommentStore
type MemoryCommentStore struct{ db *memoryDB }

// Create inserts a new comment
func (s *MemoryCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	c := *comment
	s.db.comments = append(s.db.comments, &c)
	return nil
}

// GetByID returns a comment by ID
func (s *MemoryCommentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, c := range s.db.comments {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

// ListByTask returns a task's comments, oldest first
func (s *MemoryCommentStore) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []models.Comment
	for _, c := range s.db.comments {
		if c.TaskID == taskID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Delete removes a comment by ID
func (s *MemoryCommentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i, c := range s.db.comments {
		if c.ID == id {
			s.db.comments = append(s.db.comments[:i], s.db.comments[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

// DeleteByTasks removes every comment on the given tasks
func (s *MemoryCommentStore) DeleteByTasks(ctx context.Context, taskIDs []primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	targets := make(map[primitive.ObjectID]bool, len(taskIDs))
	for _, id := range taskIDs {
		targets[id] = true
	}

	var deleted int64
	kept := s.db.comments[:0]
	for _, c := range s.db.comments {
		if targets[c.TaskID] {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	s.db.comments = kept
	return deleted, nil
}

// MemoryNotificationStore is the in-memory NotificationStore
type MemoryNotificationStore struct{ db *memoryDB }

func (s *MemoryNotificationStore) find(id primitive.ObjectID) *models.Notification {
	for _, n := range s.db.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Create inserts a new notification
func (s *MemoryNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	s.db.notifications = append(s.db.notifications, cloneNotification(notification))
	return nil
}

// GetByID returns a notification by ID
func (s *MemoryNotificationStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if n := s.find(id); n != nil {
		return cloneNotification(n), nil
	}
	return nil, database.ErrNotFound
}

// ListByRecipient returns a page of the recipient's notifications, newest first
func (s *MemoryNotificationStore) ListByRecipient(ctx context.Context, recipientID string, page models.Page) ([]models.Notification, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var matched []*models.Notification
	for _, n := range s.db.notifications {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}

	sorted := newestFirst(matched, func(n *models.Notification) time.Time { return n.CreatedAt })
	var out []models.Notification
	for _, n := range paginate(sorted, page) {
		out = append(out, *cloneNotification(n))
	}
	return out, nil
}

// CountUnread counts the recipient's unread notifications
func (s *MemoryNotificationStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var count int64
	for _, n := range s.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags one notification as read
func (s *MemoryNotificationStore) MarkRead(ctx context.Context, recipientID string, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := s.find(id)
	if n == nil || n.RecipientID != recipientID {
		return database.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.UpdatedAt = time.Now()
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient
func (s *MemoryNotificationStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var modified int64
	now := time.Now()
	for _, n := range s.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			n.UpdatedAt = now
			modified++
		}
	}
	return modified, nil
}

// Resolve transitions a notification out of pending with a compare-and-set on its status
func (s *MemoryNotificationStore) Resolve(ctx context.Context, id primitive.ObjectID, typ models.NotificationType, status models.NotificationStatus, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := s.find(id)
	if n == nil || n.Status != models.NotificationStatusPending {
		return false, nil
	}
	n.Type = typ
	n.Status = status
	n.Read = true
	n.RespondedAt = copyTime(&at)
	n.UpdatedAt = at
	return true, nil
}

// HasPending reports whether a pending notification matches filter
func (s *MemoryNotificationStore) HasPending(ctx context.Context, filter PendingFilter) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, n := range s.db.notifications {
		if n.Status != models.NotificationStatusPending {
			continue
		}
		if filter.Type != "" && n.Type.Normalize() != filter.Type {
			continue
		}
		if !filter.ProjectID.IsZero() && (n.ProjectID == nil || *n.ProjectID != filter.ProjectID) {
			continue
		}
		if filter.SenderID != "" && n.SenderID != filter.SenderID {
			continue
		}
		if filter.RecipientID != "" && n.RecipientID != filter.RecipientID {
			continue
		}
		return true, nil
	}
	return false, nil
}

// Delete removes one of the recipient's notifications
func (s *MemoryNotificationStore) Delete(ctx context.Context, recipientID string, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i, n := range s.db.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			s.db.notifications = append(s.db.notifications[:i], s.db.notifications[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

// MemoryActivityStore is the in-memory ActivityStore
type MemoryActivityStore struct{ db *memoryDB }

// Create appends an activity entry
func (s *MemoryActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	activity.ID = primitive.NewObjectID()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	s.db.activities = append(s.db.activities, cloneActivity(activity))
	return nil
}

// ListByProjects returns a page of activity across projects, newest first
func (s *MemoryActivityStore) ListByProjects(ctx context.Context, projectIDs []primitive.ObjectID, page models.Page) ([]models.Activity, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	targets := make(map[primitive.ObjectID]bool, len(projectIDs))
	for _, id := range projectIDs {
		targets[id] = true
	}

	var matched []*models.Activity
	for _, a := range s.db.activities {
		if targets[a.ProjectID] {
			matched = append(matched, a)
		}
	}

	sorted := newestFirst(matched, func(a *models.Activity) time.Time { return a.CreatedAt })
	var out []models.Activity
	for _, a := range paginate(sorted, page) {
		out = append(out, *cloneActivity(a))
	}
	return out, nil
}

// MemoryUserStore is the in-memory UserStore
type MemoryUserStore struct{ db *memoryDB }

// Upsert creates or refreshes a user profile
func (s *MemoryUserStore) Upsert(ctx context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	existing, ok := s.db.users[user.ID]
	if !ok {
		existing = &models.User{ID: user.ID, CreatedAt: now}
		s.db.users[user.ID] = existing
	}
	if user.Name != "" {
		existing.Name = user.Name
	}
	if user.Email != "" {
		existing.Email = strings.ToLower(user.Email)
	}
	if user.AvatarURL != "" {
		existing.AvatarURL = user.AvatarURL
	}
	existing.LastSeenAt = now
	return nil
}

// GetByID returns a user by ID
func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if u, ok := s.db.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, database.ErrNotFound
}

// GetByEmail returns a user by email (case-insensitive)
func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

// GetMany returns the users that exist among ids
func (s *MemoryUserStore) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []models.User
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}
