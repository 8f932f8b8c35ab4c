package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

var names = map[string]string{
	"alice": "Alice",
	"bob":   "Bob",
	"carol": "Carol",
	"dave":  "Dave",
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	stores *Stores
	core   *Core
	mailer *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStores(t, NewMemoryStores())
}

func newFixtureWithStores(t *testing.T, stores *Stores) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := NewCore(stores, time.Minute, logger)
	mailer := &recordingMailer{}
	core.Notifications.SetMailer(mailer)
	core.Notifications.SetFrontendURL("https://app.example.com/")

	f := &fixture{t: t, ctx: context.Background(), stores: stores, core: core, mailer: mailer}
	for id, name := range names {
		if err := stores.Users.Upsert(f.ctx, &models.User{ID: id, Name: name, Email: id + "@example.com"}); err != nil {
			t.Fatalf("Failed to seed user %s: %v", id, err)
		}
	}
	return f
}

func (f *fixture) actor(id string) models.Actor {
	return models.Actor{ID: id, Name: names[id], Email: id + "@example.com"}
}

// project creates a project owned by alice with bob as member and dave as admin
func (f *fixture) project(allowEstimation bool) *models.Project {
	f.t.Helper()

	project, err := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{
		Name:                  "Apollo",
		AllowWorkerEstimation: allowEstimation,
	})
	if err != nil {
		f.t.Fatalf("Failed to create project: %v", err)
	}
	if err := f.core.Projects.AddMember(f.ctx, project.ID, "bob", models.ProjectRoleMember); err != nil {
		f.t.Fatalf("Failed to add bob: %v", err)
	}
	if err := f.core.Projects.AddMember(f.ctx, project.ID, "dave", models.ProjectRoleAdmin); err != nil {
		f.t.Fatalf("Failed to add dave: %v", err)
	}

	reloaded, err := f.core.Projects.Load(f.ctx, project.ID)
	if err != nil {
		f.t.Fatalf("Failed to reload project: %v", err)
	}
	return reloaded
}

func (f *fixture) task(project *models.Project, title string) *models.Task {
	f.t.Helper()

	task, err := f.core.Tasks.Create(f.ctx, f.actor("alice"), project.ID, &models.CreateTaskRequest{Title: title})
	if err != nil {
		f.t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

// inbox returns the user's notifications of typ
func (f *fixture) inbox(userID string, typ models.NotificationType) []models.NotificationView {
	f.t.Helper()

	all, err := f.core.Notifications.List(f.ctx, userID, models.Page{Limit: 100})
	if err != nil {
		f.t.Fatalf("Failed to list notifications: %v", err)
	}
	var out []models.NotificationView
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// activities returns a project's activity entries of typ
func (f *fixture) activities(project *models.Project, typ models.ActivityType) []models.ActivityView {
	f.t.Helper()

	all, err := f.core.Activity.ListProject(f.ctx, project.OwnerID, project.ID, models.Page{Limit: 100})
	if err != nil {
		f.t.Fatalf("Failed to list activity: %v", err)
	}
	var out []models.ActivityView
	for _, a := range all {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("Expected %s error, got %v", kind, err)
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Invitation
	err  error
}

func (m *recordingMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, inv)
	return nil
}

var errStoreDown = errors.New("store unavailable")

// failingActivityStore rejects every append
type failingActivityStore struct {
	ActivityStore
}

func (failingActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	return errStoreDown
}

// selectiveNotificationStore rejects creates of the listed types
type selectiveNotificationStore struct {
	NotificationStore
	reject map[models.NotificationType]bool
}

func (s selectiveNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if s.reject[n.Type] {
		return errStoreDown
	}
	return s.NotificationStore.Create(ctx, n)
}
