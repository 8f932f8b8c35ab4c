package services

import (
	"context"
	"fmt"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/permission"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService handles task comments
type CommentService struct {
	comments      CommentStore
	tasks         TaskStore
	projects      *ProjectService
	notifications *NotificationService
	activity      *ActivityService
	users         *UserDirectory
}

// NewCommentService creates a new comment service
func NewCommentService(stores *Stores, projects *ProjectService, notifications *NotificationService, activity *ActivityService, users *UserDirectory) *CommentService {
	return &CommentService{
		comments:      stores.Comments,
		tasks:         stores.Tasks,
		projects:      projects,
		notifications: notifications,
		activity:      activity,
		users:         users,
	}
}

func (s *CommentService) loadTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}
	return task, nil
}

// Create posts a comment on a task
func (s *CommentService) Create(ctx context.Context, actor models.Actor, taskID primitive.ObjectID, req *models.CreateCommentRequest) (*models.CommentView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperr.InvalidRequest("Comment content is required")
	}

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.Authorize(ctx, actor.ID, task.ProjectID, permission.ActionWriteTask)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:        task.ID,
		AuthorID:      actor.ID,
		Content:       content,
		AttachmentURL: req.AttachmentURL,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	tid := task.ID
	s.activity.Record(ctx, &models.Activity{
		Type:      models.ActivityCommentAdded,
		UserID:    actor.ID,
		ProjectID: project.ID,
		TaskID:    &tid,
		Text:      fmt.Sprintf("%s commented on the task \"%s\".", displayName(actor), task.Title),
	})
	s.notifications.NotifyInfo(ctx, InfoNotice{
		Type:       models.NotificationNewComment,
		SenderID:   actor.ID,
		Recipients: append([]string{project.OwnerID}, task.Assignees...),
		ProjectID:  &project.ID,
		TaskID:     &tid,
		Text:       fmt.Sprintf("%s commented on \"%s\"", displayName(actor), task.Title),
		Link:       s.notifications.link("/projects/" + project.ID.Hex() + "/tasks/" + tid.Hex()),
	})

	return &models.CommentView{Comment: *comment, Author: s.users.Summary(ctx, actor.ID)}, nil
}

// List returns a task's comments with author profiles, oldest first
func (s *CommentService) List(ctx context.Context, actorID string, taskID primitive.ObjectID) ([]models.CommentView, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.Authorize(ctx, actorID, task.ProjectID, permission.ActionRead); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors := s.users.Summaries(ctx, authorIDs)

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{Comment: c, Author: authors[c.AuthorID]})
	}
	return views, nil
}

// Delete removes a comment. Only its author or the project owner may.
func (s *CommentService) Delete(ctx context.Context, actorID string, id primitive.ObjectID) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Comment not found")
		}
		return err
	}

	// A comment whose task or project is gone can still be removed by its author
	var project *models.Project
	if task, err := s.tasks.GetByID(ctx, comment.TaskID); err == nil {
		project, err = s.projects.Load(ctx, task.ProjectID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
	} else if !isNotFound(err) {
		return err
	}

	if err := permission.CheckDeleteAuthored(actorID, comment.AuthorID, project); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Comment not found")
		}
		return err
	}
	return nil
}
