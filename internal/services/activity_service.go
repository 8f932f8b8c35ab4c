package services

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/permission"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultActivityPageSize bounds activity listings when the caller gives no limit
const DefaultActivityPageSize = 15

const maxActivityPageSize = 100

// ActivityService appends to and reads the per-project audit trail
type ActivityService struct {
	activities ActivityStore
	tasks      TaskStore
	projects   *ProjectService
	users      *UserDirectory
	effects    *SideEffects
	pageSize   int64
}

// NewActivityService creates a new activity service
func NewActivityService(stores *Stores, projects *ProjectService, users *UserDirectory, effects *SideEffects) *ActivityService {
	return &ActivityService{
		activities: stores.Activities,
		tasks:      stores.Tasks,
		projects:   projects,
		users:      users,
		effects:    effects,
		pageSize:   DefaultActivityPageSize,
	}
}

// SetPageSize overrides the default listing size
func (s *ActivityService) SetPageSize(size int64) {
	if size > 0 {
		s.pageSize = size
	}
}

// Record appends an entry. Failures are logged and counted, never returned.
func (s *ActivityService) Record(ctx context.Context, entry *models.Activity) {
	s.effects.Run(ctx, EffectActivity, func(ctx context.Context) error {
		if err := s.activities.Create(ctx, entry); err != nil {
			return err
		}
		activitiesRecorded.WithLabelValues(string(entry.Type)).Inc()
		return nil
	})
}

// Create adds a manual entry to a project the actor belongs to
func (s *ActivityService) Create(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, req *models.CreateActivityRequest) (*models.Activity, error) {
	if _, err := s.projects.Authorize(ctx, actor.ID, projectID, permission.ActionRead); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, apperr.InvalidRequest("Unknown activity type: %s", req.Type)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.InvalidRequest("Activity text is required")
	}

	entry := &models.Activity{
		Type:      req.Type,
		UserID:    actor.ID,
		ProjectID: projectID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if req.TaskID != "" {
		taskID, err := primitive.ObjectIDFromHex(req.TaskID)
		if err != nil {
			return nil, apperr.InvalidRequest("Invalid task id")
		}
		task, err := s.tasks.GetByID(ctx, taskID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperr.NotFound("Task not found")
			}
			return nil, err
		}
		if task.ProjectID != projectID {
			return nil, apperr.InvalidRequest("Task does not belong to this project")
		}
		entry.TaskID = &taskID
	}

	if err := s.activities.Create(ctx, entry); err != nil {
		return nil, err
	}
	activitiesRecorded.WithLabelValues(string(entry.Type)).Inc()
	return entry, nil
}

// ListProject returns a project's activity, newest first
func (s *ActivityService) ListProject(ctx context.Context, actorID string, projectID primitive.ObjectID, page models.Page) ([]models.ActivityView, error) {
	if _, err := s.projects.Authorize(ctx, actorID, projectID, permission.ActionRead); err != nil {
		return nil, err
	}
	return s.list(ctx, []primitive.ObjectID{projectID}, page)
}

// Recent returns activity across every project the actor belongs to, newest first
func (s *ActivityService) Recent(ctx context.Context, actorID string, page models.Page) ([]models.ActivityView, error) {
	projects, err := s.projects.ListForUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return []models.ActivityView{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return s.list(ctx, ids, page)
}

func (s *ActivityService) list(ctx context.Context, projectIDs []primitive.ObjectID, page models.Page) ([]models.ActivityView, error) {
	entries, err := s.activities.ListByProjects(ctx, projectIDs, normalizePage(page, s.pageSize, maxActivityPageSize))
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, entries), nil
}

// populate joins user, project and task summaries, nulling dangling references
func (s *ActivityService) populate(ctx context.Context, entries []models.Activity) []models.ActivityView {
	userIDs := make([]string, 0, len(entries))
	projectIDs := make([]primitive.ObjectID, 0, len(entries))
	var taskIDs []primitive.ObjectID
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		projectIDs = append(projectIDs, e.ProjectID)
		if e.TaskID != nil {
			taskIDs = append(taskIDs, *e.TaskID)
		}
	}

	users := s.users.Summaries(ctx, userIDs)
	projects := s.projects.summaries(ctx, projectIDs)
	tasks := make(map[primitive.ObjectID]*models.TaskSummary, len(taskIDs))
	if len(taskIDs) > 0 {
		found, err := s.tasks.GetMany(ctx, uniqueIDs(taskIDs))
		if err != nil {
			s.effects.logger.WarnContext(ctx, "failed to resolve tasks", "count", len(taskIDs), "error", err)
		}
		for _, t := range found {
			tasks[t.ID] = &models.TaskSummary{ID: t.ID, Title: t.Title}
		}
	}

	views := make([]models.ActivityView, 0, len(entries))
	for _, e := range entries {
		view := models.ActivityView{
			Activity: e,
			User:     users[e.UserID],
			Project:  projects[e.ProjectID],
		}
		if e.TaskID != nil {
			view.Task = tasks[*e.TaskID]
		}
		views = append(views, view)
	}
	return views
}

// normalizePage applies the default limit and clamps to max
func normalizePage(page models.Page, def, max int64) models.Page {
	if page.Limit <= 0 {
		page.Limit = def
	}
	if page.Limit > max {
		page.Limit = max
	}
	if page.Skip < 0 {
		page.Skip = 0
	}
	return page
}
