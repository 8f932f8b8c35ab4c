package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/permission"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EffectCascade labels the task/comment cleanup after a project or task delete
const EffectCascade = "cascade"

// ProjectService owns projects and their membership rosters
type ProjectService struct {
	projects ProjectStore
	tasks    TaskStore
	comments CommentStore
	users    *UserDirectory
	effects  *SideEffects
}

// NewProjectService creates a new project service
func NewProjectService(stores *Stores, users *UserDirectory, effects *SideEffects) *ProjectService {
	return &ProjectService{
		projects: stores.Projects,
		tasks:    stores.Tasks,
		comments: stores.Comments,
		users:    users,
		effects:  effects,
	}
}

// Load returns a project without permission checks
func (s *ProjectService) Load(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, err
	}
	return project, nil
}

// Authorize loads a project and checks that actor may perform action on it
func (s *ProjectService) Authorize(ctx context.Context, actorID string, id primitive.ObjectID, action permission.Action) (*models.Project, error) {
	project, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Check(actorID, project, action); err != nil {
		return nil, err
	}
	return project, nil
}

// Create creates a project owned by actor, who becomes its first admin
func (s *ProjectService) Create(ctx context.Context, actor models.Actor, req *models.CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidRequest("Project name is required")
	}

	color := req.Color
	if color == "" {
		color = "#3B82F6"
	}

	project := &models.Project{
		Name:        name,
		Description: req.Description,
		Color:       color,
		DueDate:     req.DueDate,
		OwnerID:     actor.ID,
		Members: []models.ProjectMember{
			{UserID: actor.ID, Role: models.ProjectRoleAdmin, AddedAt: time.Now()},
		},
		KanbanColumns:         models.DefaultKanbanColumns(),
		AllowWorkerEstimation: req.AllowWorkerEstimation,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns a project the actor belongs to
func (s *ProjectService) Get(ctx context.Context, actorID string, id primitive.ObjectID) (*models.Project, error) {
	return s.Authorize(ctx, actorID, id, permission.ActionRead)
}

// ListForUser returns every project the user belongs to
func (s *ProjectService) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	projects, err := s.projects.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// ListOwned returns the projects the user owns
func (s *ProjectService) ListOwned(ctx context.Context, userID string) ([]models.Project, error) {
	return s.filter(ctx, userID, func(p *models.Project) bool { return p.IsOwner(userID) })
}

// ListWorking returns the projects the user belongs to without owning them
func (s *ProjectService) ListWorking(ctx context.Context, userID string) ([]models.Project, error) {
	return s.filter(ctx, userID, func(p *models.Project) bool { return !p.IsOwner(userID) })
}

func (s *ProjectService) filter(ctx context.Context, userID string, keep func(*models.Project) bool) ([]models.Project, error) {
	all, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Update edits project fields
func (s *ProjectService) Update(ctx context.Context, actorID string, id primitive.ObjectID, req *models.UpdateProjectRequest) (*models.Project, error) {
	if _, err := s.Authorize(ctx, actorID, id, permission.ActionEditProject); err != nil {
		return nil, err
	}

	changes := ProjectChanges{
		Description: req.Description,
		Color:       req.Color,
		DueDate:     req.DueDate,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.InvalidRequest("Project name cannot be empty")
		}
		changes.Name = &name
	}

	return s.update(ctx, id, changes)
}

// UpdateColumns replaces the kanban column labels
func (s *ProjectService) UpdateColumns(ctx context.Context, actorID string, id primitive.ObjectID, req *models.UpdateColumnsRequest) (*models.Project, error) {
	if _, err := s.Authorize(ctx, actorID, id, permission.ActionManageColumns); err != nil {
		return nil, err
	}
	if len(req.Columns) == 0 {
		return nil, apperr.InvalidRequest("At least one column is required")
	}

	seen := make(map[models.TaskStatus]bool, len(req.Columns))
	columns := make([]models.KanbanColumn, 0, len(req.Columns))
	for _, col := range req.Columns {
		if !col.Status.Valid() {
			return nil, apperr.InvalidRequest("Unknown column status: %s", col.Status)
		}
		if seen[col.Status] {
			return nil, apperr.InvalidRequest("Duplicate column status: %s", col.Status)
		}
		label := strings.TrimSpace(col.Label)
		if label == "" {
			return nil, apperr.InvalidRequest("Column label is required")
		}
		seen[col.Status] = true
		columns = append(columns, models.KanbanColumn{Status: col.Status, Label: label})
	}

	return s.update(ctx, id, ProjectChanges{KanbanColumns: &columns})
}

// UpdateSettings changes workflow-affecting settings
func (s *ProjectService) UpdateSettings(ctx context.Context, actorID string, id primitive.ObjectID, req *models.UpdateSettingsRequest) (*models.Project, error) {
	if _, err := s.Authorize(ctx, actorID, id, permission.ActionChangeSettings); err != nil {
		return nil, err
	}
	if req.AllowWorkerEstimation == nil {
		return nil, apperr.InvalidRequest("No settings to change")
	}
	return s.update(ctx, id, ProjectChanges{AllowWorkerEstimation: req.AllowWorkerEstimation})
}

func (s *ProjectService) update(ctx context.Context, id primitive.ObjectID, changes ProjectChanges) (*models.Project, error) {
	project, err := s.projects.Update(ctx, id, changes)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, err
	}
	return project, nil
}

// Delete removes a project and cascades to its tasks and their comments.
// Cascade failures leave orphans for the sweep job and do not fail the call.
func (s *ProjectService) Delete(ctx context.Context, actorID string, id primitive.ObjectID) error {
	if _, err := s.Authorize(ctx, actorID, id, permission.ActionDeleteProject); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Project not found")
		}
		return err
	}

	s.effects.Run(ctx, EffectCascade, func(ctx context.Context) error {
		taskIDs, err := s.tasks.DeleteByProject(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.comments.DeleteByTasks(ctx, taskIDs)
		return err
	})
	return nil
}

// Members returns the roster joined with member profiles
func (s *ProjectService) Members(ctx context.Context, actorID string, id primitive.ObjectID) ([]models.MemberView, error) {
	project, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	summaries := s.users.Summaries(ctx, project.MemberIDs())
	views := make([]models.MemberView, 0, len(project.Members))
	for _, m := range project.Members {
		views = append(views, models.MemberView{
			User:    summaries[m.UserID],
			UserID:  m.UserID,
			Role:    m.Role,
			AddedAt: m.AddedAt,
		})
	}
	return views, nil
}

// AddMember appends a user to the roster. Conflict if already a member.
// Callers decide whether to notify.
func (s *ProjectService) AddMember(ctx context.Context, projectID primitive.ObjectID, userID string, role models.ProjectRole) error {
	if userID == "" {
		return apperr.InvalidRequest("User is required")
	}
	if !role.Valid() {
		return apperr.InvalidRequest("Unknown role: %s", role)
	}

	err := s.projects.AddMember(ctx, projectID, models.ProjectMember{
		UserID:  userID,
		Role:    role,
		AddedAt: time.Now(),
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlreadyMember):
		return apperr.Conflict("User is already a member of this project")
	case isNotFound(err):
		return apperr.NotFound("Project not found")
	default:
		return err
	}
}

// summaries resolves project ids for populate joins. Missing projects are absent.
func (s *ProjectService) summaries(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]*models.ProjectSummary {
	out := make(map[primitive.ObjectID]*models.ProjectSummary, len(ids))
	if len(ids) == 0 {
		return out
	}
	projects, err := s.projects.GetMany(ctx, uniqueIDs(ids))
	if err != nil {
		s.effects.logger.WarnContext(ctx, "failed to resolve projects", "count", len(ids), "error", err)
		return out
	}
	for _, p := range projects {
		out[p.ID] = &models.ProjectSummary{ID: p.ID, Name: p.Name}
	}
	return out
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// recipients deduplicates ids in order and drops empty ids and exclude
func recipients(exclude string, ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// displayName returns the actor's name for human-readable texts
func displayName(actor models.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return "Someone"
}

// SweepResult counts documents removed by SweepOrphans
type SweepResult struct {
	Projects int   `json:"projects"`
	Tasks    int   `json:"tasks"`
	Comments int64 `json:"comments"`
}

// SweepOrphans deletes tasks (and their comments) whose project no longer
// exists. It repairs project deletes whose cascade did not complete.
func (s *ProjectService) SweepOrphans(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	referenced, err := s.tasks.ProjectIDs(ctx)
	if err != nil {
		return result, err
	}
	existing, err := s.projects.ExistingIDs(ctx, referenced)
	if err != nil {
		return result, err
	}

	for _, projectID := range referenced {
		if existing[projectID] {
			continue
		}
		taskIDs, err := s.tasks.DeleteByProject(ctx, projectID)
		if err != nil {
			return result, err
		}
		comments, err := s.comments.DeleteByTasks(ctx, taskIDs)
		if err != nil {
			return result, err
		}
		result.Projects++
		result.Tasks += len(taskIDs)
		result.Comments += comments
	}

	orphansSwept.WithLabelValues("task").Add(float64(result.Tasks))
	orphansSwept.WithLabelValues("comment").Add(float64(result.Comments))
	return result, nil
}
