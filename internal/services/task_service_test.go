package services

import (
	"strings"
	"testing"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

func statusPtr(s models.TaskStatus) *models.TaskStatus { return &s }

func assignees(ids ...string) *[]string { return &ids }

func TestCreateTask_RecordsAndNotifies(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	task := f.task(project, "Write docs")
	if task.Status != models.TaskStatusTodo || task.Priority != models.TaskPriorityMedium {
		t.Errorf("Unexpected defaults: %s/%s", task.Status, task.Priority)
	}

	created := f.activities(project, models.ActivityTaskCreated)
	if len(created) != 1 || created[0].Task == nil || created[0].Task.Title != "Write docs" {
		t.Fatalf("Expected one task_created entry with task populated, got %+v", created)
	}

	for _, user := range []string{"bob", "dave"} {
		if got := len(f.inbox(user, models.NotificationTaskCreated)); got != 1 {
			t.Errorf("Expected %s to be notified once, got %d", user, got)
		}
	}
	if got := len(f.inbox("alice", models.NotificationTaskCreated)); got != 0 {
		t.Errorf("Creator should not be notified, got %d", got)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	_, err := f.core.Tasks.Create(f.ctx, f.actor("carol"), project.ID, &models.CreateTaskRequest{Title: "x"})
	expectKind(t, err, apperr.KindForbidden)

	_, err = f.core.Tasks.Create(f.ctx, f.actor("bob"), project.ID, &models.CreateTaskRequest{Title: "  "})
	expectKind(t, err, apperr.KindInvalidRequest)

	_, err = f.core.Tasks.Create(f.ctx, f.actor("bob"), project.ID, &models.CreateTaskRequest{Title: "x", Priority: "urgent"})
	expectKind(t, err, apperr.KindInvalidRequest)
}

// A plain member cannot estimate unless the project opts in.
func TestUpdateTask_EstimateGate(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Estimate me")

	hours := 3.5
	_, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{
		EstimatedTime: &hours,
		Status:        statusPtr(models.TaskStatusInProgress),
	})
	expectKind(t, err, apperr.KindForbidden)

	stored, _ := f.stores.Tasks.GetByID(f.ctx, task.ID)
	if stored.EstimatedTime != nil || stored.Status != models.TaskStatusTodo {
		t.Errorf("Rejected update must not mutate the task: %+v", stored)
	}

	if _, err := f.core.Tasks.Update(f.ctx, f.actor("dave"), task.ID, &models.UpdateTaskRequest{EstimatedTime: &hours}); err != nil {
		t.Errorf("Admins may always estimate: %v", err)
	}

	allow := true
	if _, err := f.core.Projects.UpdateSettings(f.ctx, "alice", project.ID, &models.UpdateSettingsRequest{AllowWorkerEstimation: &allow}); err != nil {
		t.Fatalf("Failed to change settings: %v", err)
	}
	updated, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{EstimatedTime: &hours})
	if err != nil {
		t.Fatalf("Members may estimate once allowed: %v", err)
	}
	if updated.EstimatedTime == nil || *updated.EstimatedTime != hours {
		t.Errorf("Expected estimate %v, got %v", hours, updated.EstimatedTime)
	}
}

// Moving a task produces one activity entry and notifies owner and assignees except the actor.
func TestUpdateTask_StatusChangeFanOut(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	if err := f.core.Projects.AddMember(f.ctx, project.ID, "carol", models.ProjectRoleMember); err != nil {
		t.Fatalf("Failed to add carol: %v", err)
	}
	task := f.task(project, "Ship it")
	if _, err := f.core.Tasks.Update(f.ctx, f.actor("alice"), task.ID, &models.UpdateTaskRequest{Assignees: assignees("bob", "carol")}); err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}

	if _, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr(models.TaskStatusInProgress)}); err != nil {
		t.Fatalf("Failed to move task: %v", err)
	}

	moved := f.activities(project, models.ActivityTaskStatusChanged)
	if len(moved) != 1 {
		t.Fatalf("Expected exactly one status entry, got %d", len(moved))
	}
	for _, want := range []string{"Bob", "todo", "in-progress"} {
		if !strings.Contains(moved[0].Text, want) {
			t.Errorf("Expected %q in activity text %q", want, moved[0].Text)
		}
	}
	if moved[0].UserID != "bob" {
		t.Errorf("Expected actor bob, got %s", moved[0].UserID)
	}

	for user, want := range map[string]int{"alice": 1, "carol": 1, "bob": 0, "dave": 0} {
		if got := len(f.inbox(user, models.NotificationTaskStatusChanged)); got != want {
			t.Errorf("Expected %d status notifications for %s, got %d", want, user, got)
		}
	}
}

func TestUpdateTask_SameStatusIsNotATransition(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Idle")

	if _, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr(models.TaskStatusTodo)}); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if got := len(f.activities(project, models.ActivityTaskStatusChanged)); got != 0 {
		t.Errorf("Expected no status entry, got %d", got)
	}

	_, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr("archived")})
	expectKind(t, err, apperr.KindInvalidRequest)
}

func TestUpdateTask_AssigneesMustBeMembers(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Guarded")

	_, err := f.core.Tasks.Update(f.ctx, f.actor("alice"), task.ID, &models.UpdateTaskRequest{Assignees: assignees("bob", "carol")})
	expectKind(t, err, apperr.KindInvalidRequest)

	stored, _ := f.stores.Tasks.GetByID(f.ctx, task.ID)
	if len(stored.Assignees) != 0 {
		t.Errorf("Rejected assignment must not persist, got %v", stored.Assignees)
	}
	for _, id := range stored.Assignees {
		if !project.IsMember(id) {
			t.Errorf("Assignee %s is not a member", id)
		}
	}
}

func TestUpdateTask_NotifiesNewAssigneesOnly(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Pair up")

	first, err := f.core.Tasks.Update(f.ctx, f.actor("alice"), task.ID, &models.UpdateTaskRequest{Assignees: assignees("alice", "bob", "bob")})
	if err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}
	if len(first.Assignees) != 2 {
		t.Errorf("Expected assignees deduplicated, got %v", first.Assignees)
	}
	if first.AssignmentDate == nil {
		t.Fatal("Expected assignment date on first assignment")
	}
	assignedAt := *first.AssignmentDate

	second, err := f.core.Tasks.Update(f.ctx, f.actor("alice"), task.ID, &models.UpdateTaskRequest{Assignees: assignees("alice", "bob", "dave")})
	if err != nil {
		t.Fatalf("Failed to reassign: %v", err)
	}
	if !second.AssignmentDate.Equal(assignedAt) {
		t.Error("Assignment date should only be set once")
	}

	for user, want := range map[string]int{"alice": 0, "bob": 1, "dave": 1} {
		if got := len(f.inbox(user, models.NotificationTaskAssigned)); got != want {
			t.Errorf("Expected %d task_assigned for %s, got %d", want, user, got)
		}
	}
	if got := len(f.activities(project, models.ActivityTaskAssigned)); got != 2 {
		t.Errorf("Expected 2 task_assigned entries, got %d", got)
	}
}

func TestUpdateTask_CompletionDate(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Finish")

	done, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr(models.TaskStatusDone)})
	if err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	if done.CompletionDate == nil {
		t.Fatal("Expected completion date when entering done")
	}

	reopened, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr(models.TaskStatusReview)})
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	if reopened.CompletionDate != nil {
		t.Error("Expected completion date cleared when leaving done")
	}
}

func TestUpdateTask_ActivityFailureIsBestEffort(t *testing.T) {
	stores := NewMemoryStores()
	stores.Activities = failingActivityStore{stores.Activities}
	f := newFixtureWithStores(t, stores)
	project := f.project(false)
	task := f.task(project, "Resilient")

	updated, err := f.core.Tasks.Update(f.ctx, f.actor("bob"), task.ID, &models.UpdateTaskRequest{Status: statusPtr(models.TaskStatusReview)})
	if err != nil {
		t.Fatalf("Activity failure must not fail the update: %v", err)
	}
	if updated.Status != models.TaskStatusReview {
		t.Errorf("Expected review, got %s", updated.Status)
	}
	if got := len(f.inbox("alice", models.NotificationTaskStatusChanged)); got != 1 {
		t.Errorf("Notifications are independent of the activity log, got %d", got)
	}
}

func TestTaskAccess(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Private")

	_, err := f.core.Tasks.Get(f.ctx, "carol", task.ID)
	expectKind(t, err, apperr.KindForbidden)

	_, err = f.core.Tasks.ListByProject(f.ctx, "carol", project.ID, models.TaskFilter{})
	expectKind(t, err, apperr.KindForbidden)

	_, err = f.core.Tasks.ListByProject(f.ctx, "bob", project.ID, models.TaskFilter{Status: "nope"})
	expectKind(t, err, apperr.KindInvalidRequest)

	expectKind(t, f.core.Tasks.Delete(f.ctx, "carol", task.ID), apperr.KindForbidden)
}

func TestListByProject_Filters(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	a := f.task(project, "A")
	f.task(project, "B")

	if _, err := f.core.Tasks.Update(f.ctx, f.actor("alice"), a.ID, &models.UpdateTaskRequest{
		Status:    statusPtr(models.TaskStatusDone),
		Assignees: assignees("bob"),
	}); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	done, _ := f.core.Tasks.ListByProject(f.ctx, "bob", project.ID, models.TaskFilter{Status: models.TaskStatusDone})
	if len(done) != 1 || done[0].ID != a.ID {
		t.Errorf("Expected only A to be done, got %+v", done)
	}
	mine, _ := f.core.Tasks.MyTasks(f.ctx, "bob")
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("Expected A in bob's tasks, got %+v", mine)
	}
	all, _ := f.core.Tasks.ListByProject(f.ctx, "bob", project.ID, models.TaskFilter{})
	if len(all) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(all))
	}
}

func TestDeleteTask_CascadesComments(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Doomed")
	if _, err := f.core.Comments.Create(f.ctx, f.actor("bob"), task.ID, &models.CreateCommentRequest{Content: "hi"}); err != nil {
		t.Fatalf("Failed to comment: %v", err)
	}

	if err := f.core.Tasks.Delete(f.ctx, "bob", task.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if left, _ := f.stores.Comments.ListByTask(f.ctx, task.ID); len(left) != 0 {
		t.Errorf("Expected comments removed, got %d", len(left))
	}
	_, err := f.core.Tasks.Get(f.ctx, "bob", task.ID)
	expectKind(t, err, apperr.KindNotFound)
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	task := f.task(project, "Files")

	att, err := f.core.Tasks.AddAttachment(f.ctx, "bob", task.ID, &models.AddAttachmentRequest{Name: "Screen.PNG", URL: "https://files/1"})
	if err != nil {
		t.Fatalf("Failed to add attachment: %v", err)
	}
	if att.Type != models.AttachmentTypeImage || att.UploadedBy != "bob" {
		t.Errorf("Unexpected attachment: %+v", att)
	}

	_, err = f.core.Tasks.AddAttachment(f.ctx, "bob", task.ID, &models.AddAttachmentRequest{Name: "x"})
	expectKind(t, err, apperr.KindInvalidRequest)

	// A non-owner admin cannot remove someone else's attachment
	expectKind(t, f.core.Tasks.RemoveAttachment(f.ctx, "dave", task.ID, att.ID), apperr.KindForbidden)

	if err := f.core.Tasks.RemoveAttachment(f.ctx, "alice", task.ID, att.ID); err != nil {
		t.Fatalf("Owner should remove any attachment: %v", err)
	}
	expectKind(t, f.core.Tasks.RemoveAttachment(f.ctx, "bob", task.ID, att.ID), apperr.KindNotFound)
}

func TestClassifyAttachment(t *testing.T) {
	tests := []struct {
		declared string
		name     string
		expected models.AttachmentType
	}{
		{"", "photo.jpeg", models.AttachmentTypeImage},
		{"", "report.PDF", models.AttachmentTypeDocument},
		{"", "archive.zip", models.AttachmentTypeOther},
		{"document", "photo.jpeg", models.AttachmentTypeDocument},
		{"video", "clip.mp4", models.AttachmentTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyAttachment(tt.declared, tt.name); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
