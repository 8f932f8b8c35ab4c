package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/permission"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService governs task CRUD and the status/assignment transitions that
// fan out into notifications and the activity log
type TaskService struct {
	tasks         TaskStore
	comments      CommentStore
	projects      *ProjectService
	notifications *NotificationService
	activity      *ActivityService
	users         *UserDirectory
	effects       *SideEffects
}

// NewTaskService creates a new task service
func NewTaskService(stores *Stores, projects *ProjectService, notifications *NotificationService, activity *ActivityService, users *UserDirectory, effects *SideEffects) *TaskService {
	return &TaskService{
		tasks:         stores.Tasks,
		comments:      stores.Comments,
		projects:      projects,
		notifications: notifications,
		activity:      activity,
		users:         users,
		effects:       effects,
	}
}

// load returns a task and its project after checking action
func (s *TaskService) load(ctx context.Context, actorID string, id primitive.ObjectID, action permission.Action) (*models.Task, *models.Project, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, apperr.NotFound("Task not found")
		}
		return nil, nil, err
	}
	project, err := s.projects.Authorize(ctx, actorID, task.ProjectID, action)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

// Create adds a task to a project the actor belongs to
func (s *TaskService) Create(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, req *models.CreateTaskRequest) (*models.Task, error) {
	project, err := s.projects.Authorize(ctx, actor.ID, projectID, permission.ActionWriteTask)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.InvalidRequest("Task title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.InvalidRequest("Unknown priority: %s", priority)
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		Priority:    priority,
		DueDate:     req.DueDate,
		CreatedBy:   actor.ID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	taskID := task.ID
	s.activity.Record(ctx, &models.Activity{
		Type:      models.ActivityTaskCreated,
		UserID:    actor.ID,
		ProjectID: project.ID,
		TaskID:    &taskID,
		Text:      fmt.Sprintf("%s created the task \"%s\".", displayName(actor), task.Title),
	})
	s.notifications.NotifyInfo(ctx, InfoNotice{
		Type:       models.NotificationTaskCreated,
		SenderID:   actor.ID,
		Recipients: project.MemberIDs(),
		ProjectID:  &project.ID,
		TaskID:     &taskID,
		Text:       fmt.Sprintf("%s created \"%s\" in %s", displayName(actor), task.Title, project.Name),
		Link:       s.taskLink(project.ID, taskID),
	})

	return task, nil
}

// Get returns a task from a project the actor belongs to
func (s *TaskService) Get(ctx context.Context, actorID string, id primitive.ObjectID) (*models.Task, error) {
	task, _, err := s.load(ctx, actorID, id, permission.ActionRead)
	return task, err
}

// ListByProject returns a project's tasks matching filter
func (s *TaskService) ListByProject(ctx context.Context, actorID string, projectID primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error) {
	if _, err := s.projects.Authorize(ctx, actorID, projectID, permission.ActionRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.InvalidRequest("Unknown status: %s", filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperr.InvalidRequest("Unknown priority: %s", filter.Priority)
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// MyTasks returns the tasks assigned to the actor
func (s *TaskService) MyTasks(ctx context.Context, actorID string) ([]models.Task, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Update applies a task update. Every gate and validation runs before the
// write; notifications and activity follow it as best-effort side effects.
func (s *TaskService) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, req *models.UpdateTaskRequest) (*models.Task, error) {
	task, project, err := s.load(ctx, actor.ID, id, permission.ActionWriteTask)
	if err != nil {
		return nil, err
	}

	if req.EstimatedTime != nil {
		if err := permission.Check(actor.ID, project, permission.ActionEstimate); err != nil {
			return nil, err
		}
		if *req.EstimatedTime < 0 {
			return nil, apperr.InvalidRequest("Estimated time cannot be negative")
		}
	}

	changes := models.TaskChanges{
		Description:   req.Description,
		Subtasks:      req.Subtasks,
		DueDate:       req.DueDate,
		EstimatedTime: req.EstimatedTime,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.InvalidRequest("Task title cannot be empty")
		}
		changes.Title = &title
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, apperr.InvalidRequest("Unknown priority: %s", *req.Priority)
		}
		changes.Priority = req.Priority
	}

	now := time.Now()
	oldStatus := task.Status
	statusChanged := false
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperr.InvalidRequest("Unknown status: %s", *req.Status)
		}
		if *req.Status != oldStatus {
			statusChanged = true
			changes.Status = req.Status
			switch {
			case *req.Status == models.TaskStatusDone:
				changes.CompletionDate = &now
			case oldStatus == models.TaskStatusDone:
				changes.ClearCompletionDate = true
			}
		}
	}

	var added []string
	if req.Assignees != nil {
		assignees := recipients("", (*req.Assignees)...)
		for _, userID := range assignees {
			if !project.IsMember(userID) {
				return nil, apperr.InvalidRequest("User %s is not a member of this project", userID)
			}
			if !task.IsAssigned(userID) {
				added = append(added, userID)
			}
		}
		changes.Assignees = &assignees
		if task.AssignmentDate == nil && len(assignees) > 0 {
			changes.AssignmentDate = &now
		}
	}

	if req.Subtasks != nil {
		subtasks := make([]models.Subtask, 0, len(*req.Subtasks))
		for _, st := range *req.Subtasks {
			if strings.TrimSpace(st.Text) == "" {
				return nil, apperr.InvalidRequest("Subtask text is required")
			}
			if st.ID.IsZero() {
				st.ID = primitive.NewObjectID()
			}
			subtasks = append(subtasks, st)
		}
		changes.Subtasks = &subtasks
	}

	updated, err := s.tasks.Update(ctx, id, changes)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}

	if statusChanged {
		s.onStatusChanged(ctx, actor, project, updated, oldStatus)
	}
	for _, userID := range added {
		if userID == actor.ID {
			continue
		}
		s.onAssigned(ctx, actor, project, updated, userID)
	}

	return updated, nil
}

func (s *TaskService) onStatusChanged(ctx context.Context, actor models.Actor, project *models.Project, task *models.Task, from models.TaskStatus) {
	taskID := task.ID
	s.activity.Record(ctx, &models.Activity{
		Type:      models.ActivityTaskStatusChanged,
		UserID:    actor.ID,
		ProjectID: project.ID,
		TaskID:    &taskID,
		Meta:      map[string]interface{}{"from": string(from), "to": string(task.Status)},
		Text:      fmt.Sprintf("%s moved the task from \"%s\" to \"%s\".", displayName(actor), from, task.Status),
	})

	s.notifications.NotifyInfo(ctx, InfoNotice{
		Type:       models.NotificationTaskStatusChanged,
		SenderID:   actor.ID,
		Recipients: append([]string{project.OwnerID}, task.Assignees...),
		ProjectID:  &project.ID,
		TaskID:     &taskID,
		Text:       fmt.Sprintf("%s moved \"%s\" from \"%s\" to \"%s\"", displayName(actor), task.Title, from, task.Status),
		Link:       s.taskLink(project.ID, taskID),
	})
}

func (s *TaskService) onAssigned(ctx context.Context, actor models.Actor, project *models.Project, task *models.Task, assignee string) {
	taskID := task.ID
	s.notifications.NotifyInfo(ctx, InfoNotice{
		Type:       models.NotificationTaskAssigned,
		SenderID:   actor.ID,
		Recipients: []string{assignee},
		ProjectID:  &project.ID,
		TaskID:     &taskID,
		Text:       fmt.Sprintf("%s assigned you to \"%s\"", displayName(actor), task.Title),
		Link:       s.taskLink(project.ID, taskID),
	})

	s.activity.Record(ctx, &models.Activity{
		Type:      models.ActivityTaskAssigned,
		UserID:    actor.ID,
		ProjectID: project.ID,
		TaskID:    &taskID,
		Meta:      map[string]interface{}{"assignee": assignee},
		Text:      fmt.Sprintf("%s assigned %s to the task \"%s\".", displayName(actor), s.users.DisplayName(ctx, assignee), task.Title),
	})
}

// Delete removes a task and its comments
func (s *TaskService) Delete(ctx context.Context, actorID string, id primitive.ObjectID) error {
	if _, _, err := s.load(ctx, actorID, id, permission.ActionWriteTask); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Task not found")
		}
		return err
	}

	s.effects.Run(ctx, EffectCascade, func(ctx context.Context) error {
		_, err := s.comments.DeleteByTasks(ctx, []primitive.ObjectID{id})
		return err
	})
	return nil
}

// AddAttachment registers metadata of an already-uploaded file
func (s *TaskService) AddAttachment(ctx context.Context, actorID string, id primitive.ObjectID, req *models.AddAttachmentRequest) (*models.Attachment, error) {
	if _, _, err := s.load(ctx, actorID, id, permission.ActionWriteTask); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	url := strings.TrimSpace(req.URL)
	if name == "" || url == "" {
		return nil, apperr.InvalidRequest("Attachment name and url are required")
	}

	attachment := models.Attachment{
		ID:         primitive.NewObjectID(),
		Name:       name,
		URL:        url,
		Size:       req.Size,
		Type:       classifyAttachment(req.Type, name),
		UploadedBy: actorID,
		UploadedAt: time.Now(),
	}
	if err := s.tasks.AddAttachment(ctx, id, attachment); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}
	return &attachment, nil
}

// RemoveAttachment deletes an attachment. Only its uploader or the project owner may.
func (s *TaskService) RemoveAttachment(ctx context.Context, actorID string, id, attachmentID primitive.ObjectID) error {
	task, project, err := s.load(ctx, actorID, id, permission.ActionRead)
	if err != nil {
		return err
	}

	var attachment *models.Attachment
	for i := range task.Attachments {
		if task.Attachments[i].ID == attachmentID {
			attachment = &task.Attachments[i]
			break
		}
	}
	if attachment == nil {
		return apperr.NotFound("Attachment not found")
	}
	if err := permission.CheckDeleteAuthored(actorID, attachment.UploadedBy, project); err != nil {
		return err
	}

	if err := s.tasks.RemoveAttachment(ctx, id, attachmentID); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Attachment not found")
		}
		return err
	}
	return nil
}

func (s *TaskService) taskLink(projectID, taskID primitive.ObjectID) string {
	return s.notifications.link("/projects/" + projectID.Hex() + "/tasks/" + taskID.Hex())
}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".md": true, ".csv": true,
}

// classifyAttachment keeps a known declared type or infers it from the file name
func classifyAttachment(declared, name string) models.AttachmentType {
	switch t := models.AttachmentType(declared); t {
	case models.AttachmentTypeImage, models.AttachmentTypeDocument, models.AttachmentTypeOther:
		return t
	}

	ext := strings.ToLower(path.Ext(name))
	switch {
	case imageExtensions[ext]:
		return models.AttachmentTypeImage
	case documentExtensions[ext]:
		return models.AttachmentTypeDocument
	default:
		return models.AttachmentTypeOther
	}
}
