package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

type testServer struct {
	t    *testing.T
	app  *fiber.App
	core *services.Core
}

func newTestServer(t *testing.T, stores *services.Stores) *testServer {
	t.Helper()
	t.Setenv("ENVIRONMENT", "testing")

	core := services.NewCore(stores, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api", middleware.LocalAuthMiddleware(nil), middleware.IdentitySync(core.Users))
	NewAPI(core).Register(api)

	return &testServer{t: t, app: app, core: core}
}

// do sends a request as user and decodes the JSON response into out (if non-nil)
func (s *testServer) do(user, method, path string, body interface{}, out interface{}) int {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dev-User", user)

	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			s.t.Fatalf("Failed to decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *testServer) createProject(owner, name string) models.Project {
	s.t.Helper()
	var project models.Project
	if status := s.do(owner, "POST", "/api/projects", fiber.Map{"name": name}, &project); status != fiber.StatusCreated {
		s.t.Fatalf("Expected 201 creating project, got %d", status)
	}
	return project
}

func TestInvitationRoundTrip(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())

	// bob has to be known before he can be invited
	s.do("bob", "GET", "/api/projects", nil, nil)
	project := s.createProject("alice", "Apollo")

	var invitation models.Notification
	status := s.do("alice", "POST", "/api/projects/"+project.ID.Hex()+"/invitations", fiber.Map{"userId": "bob"}, &invitation)
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	if invitation.Status != models.NotificationStatusPending || invitation.RecipientID != "bob" {
		t.Errorf("Unexpected invitation: %+v", invitation)
	}

	// bob cannot see the project yet
	var denied errorBody
	if status := s.do("bob", "GET", "/api/projects/"+project.ID.Hex(), nil, &denied); status != fiber.StatusForbidden {
		t.Errorf("Expected 403 before accepting, got %d", status)
	}

	var inbox []models.NotificationView
	s.do("bob", "GET", "/api/notifications", nil, &inbox)
	if len(inbox) != 1 || inbox[0].Project == nil || inbox[0].Project.Name != "Apollo" {
		t.Fatalf("Expected a populated invitation, got %+v", inbox)
	}

	var count map[string]int64
	s.do("bob", "GET", "/api/notifications/unread-count", nil, &count)
	if count["count"] != 1 {
		t.Errorf("Expected 1 unread, got %d", count["count"])
	}

	var resolved models.Notification
	status = s.do("bob", "PUT", "/api/notifications/"+inbox[0].ID.Hex()+"/respond", fiber.Map{"response": "accepted"}, &resolved)
	if status != fiber.StatusOK || resolved.Status != models.NotificationStatusAccepted {
		t.Fatalf("Expected accepted, got %d %+v", status, resolved)
	}

	if status := s.do("bob", "GET", "/api/projects/"+project.ID.Hex(), nil, nil); status != fiber.StatusOK {
		t.Errorf("Expected bob to be a member, got %d", status)
	}

	var again errorBody
	status = s.do("bob", "PUT", "/api/notifications/"+inbox[0].ID.Hex()+"/respond", fiber.Map{"response": "declined"}, &again)
	if status != fiber.StatusBadRequest || again.Code != "invalid_state" {
		t.Errorf("Expected 400 invalid_state, got %d %+v", status, again)
	}

	var members []models.MemberView
	s.do("alice", "GET", "/api/projects/"+project.ID.Hex()+"/members", nil, &members)
	if len(members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(members))
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	project := s.createProject("alice", "Apollo")
	s.do("bob", "GET", "/api/projects", nil, nil)

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed id", "alice", "GET", "/api/projects/not-an-id", nil, fiber.StatusBadRequest, "invalid_request"},
		{"unknown project", "alice", "GET", "/api/projects/000000000000000000000000", nil, fiber.StatusNotFound, "not_found"},
		{"outsider", "bob", "PUT", "/api/projects/" + project.ID.Hex(), fiber.Map{"name": "x"}, fiber.StatusForbidden, "forbidden"},
		{"invite self", "alice", "POST", "/api/projects/" + project.ID.Hex() + "/invitations", fiber.Map{"userId": "alice"}, fiber.StatusBadRequest, "invalid_request"},
		{"empty name", "alice", "POST", "/api/projects", fiber.Map{"name": " "}, fiber.StatusBadRequest, "invalid_request"},
		{"collaborate without project", "bob", "POST", "/api/notifications/collaborate", fiber.Map{"message": "hi"}, fiber.StatusBadRequest, "invalid_request"},
		{"unknown route", "alice", "GET", "/api/nope", nil, fiber.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status := s.do(tt.user, tt.method, tt.path, tt.body, &body)
			if status != tt.status || body.Code != tt.code {
				t.Errorf("Expected %d %s, got %d %+v", tt.status, tt.code, status, body)
			}
		})
	}
}

func TestCollaborationRequest_Conflict(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	project := s.createProject("alice", "Apollo")
	body := fiber.Map{"projectId": project.ID.Hex(), "message": "Let me help"}

	if status := s.do("carol", "POST", "/api/notifications/collaborate", body, nil); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	var dup errorBody
	if status := s.do("carol", "POST", "/api/projects/"+project.ID.Hex()+"/join", nil, &dup); status != fiber.StatusConflict || dup.Code != "conflict" {
		t.Errorf("Expected 409 for a duplicate pending request, got %d %+v", status, dup)
	}

	var inbox []models.NotificationView
	s.do("alice", "GET", "/api/notifications", nil, &inbox)
	if len(inbox) != 1 || inbox[0].Text != "Let me help" || inbox[0].Sender == nil {
		t.Errorf("Expected carol's request in alice's inbox, got %+v", inbox)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	project := s.createProject("alice", "Apollo")
	pid := project.ID.Hex()

	var task models.Task
	if status := s.do("alice", "POST", "/api/projects/"+pid+"/tasks", fiber.Map{"title": "Launch"}, &task); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	var bad errorBody
	status := s.do("alice", "PUT", "/api/tasks/"+task.ID.Hex(), fiber.Map{"assignees": []string{"mallory"}}, &bad)
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for a non-member assignee, got %d", status)
	}

	var done models.Task
	if status := s.do("alice", "PUT", "/api/tasks/"+task.ID.Hex(), fiber.Map{"status": "done"}, &done); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if done.CompletionDate == nil {
		t.Error("Expected completion date on done")
	}

	var filtered []models.Task
	s.do("alice", "GET", "/api/projects/"+pid+"/tasks?status=done", nil, &filtered)
	if len(filtered) != 1 {
		t.Errorf("Expected 1 done task, got %d", len(filtered))
	}

	var comment models.CommentView
	if status := s.do("alice", "POST", "/api/tasks/"+task.ID.Hex()+"/comments", fiber.Map{"content": "Shipped"}, &comment); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	if status := s.do("alice", "DELETE", "/api/comments/"+comment.ID.Hex(), nil, nil); status != fiber.StatusNoContent {
		t.Errorf("Expected 204, got %d", status)
	}

	var feed []models.ActivityView
	s.do("alice", "GET", "/api/projects/"+pid+"/activity", nil, &feed)
	if len(feed) < 3 {
		t.Errorf("Expected created, status change and comment entries, got %d", len(feed))
	}
}

func TestDevIdentityIsStableAcrossRequests(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	s.do("bob", "GET", "/api/projects", nil, nil)
	project := s.createProject("alice", "Apollo")
	pid := project.ID.Hex()

	// Other callers with same-length and different-length ids
	for _, user := range []string{"carol", "bob", "mallory-the-long-name", "dan"} {
		s.do(user, "GET", "/api/projects", nil, nil)
	}

	var reloaded models.Project
	if status := s.do("alice", "GET", "/api/projects/"+pid, nil, &reloaded); status != fiber.StatusOK {
		t.Fatalf("Expected the owner to read the project, got %d", status)
	}
	if reloaded.OwnerID != "alice" || len(reloaded.Members) != 1 || reloaded.Members[0].UserID != "alice" {
		t.Errorf("Owner and roster changed after other requests: %+v", reloaded)
	}
	if status := s.do("carol", "GET", "/api/projects/"+pid, nil, nil); status != fiber.StatusForbidden {
		t.Errorf("Expected 403 for a non-member, got %d", status)
	}

	var owned []models.Project
	s.do("carol", "GET", "/api/projects/owned", nil, &owned)
	if len(owned) != 0 {
		t.Errorf("Expected carol to own nothing, got %+v", owned)
	}

	var members []models.MemberView
	s.do("alice", "GET", "/api/projects/"+pid+"/members", nil, &members)
	if len(members) != 1 || members[0].User == nil || members[0].User.ID != "alice" {
		t.Errorf("Expected alice's profile on the roster, got %+v", members)
	}
}

func TestRespond_EmptyBodyDeclines(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	s.do("bob", "GET", "/api/projects", nil, nil)
	project := s.createProject("alice", "Apollo")

	var invitation models.Notification
	if status := s.do("alice", "POST", "/api/projects/"+project.ID.Hex()+"/invitations", fiber.Map{"userId": "bob"}, &invitation); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	var resolved models.Notification
	status := s.do("bob", "PUT", "/api/notifications/"+invitation.ID.Hex()+"/respond", fiber.Map{}, &resolved)
	if status != fiber.StatusOK || resolved.Status != models.NotificationStatusDeclined {
		t.Fatalf("Expected a declined invitation, got %d %+v", status, resolved)
	}
	if status := s.do("bob", "GET", "/api/projects/"+project.ID.Hex(), nil, nil); status != fiber.StatusForbidden {
		t.Errorf("Expected bob to stay outside the project, got %d", status)
	}
}

func TestInvite_UnknownUserExplainsSignIn(t *testing.T) {
	s := newTestServer(t, services.NewMemoryStores())
	project := s.createProject("alice", "Apollo")

	var body errorBody
	status := s.do("alice", "POST", "/api/projects/"+project.ID.Hex()+"/invitations", fiber.Map{"userId": "stranger"}, &body)
	if status != fiber.StatusNotFound || !strings.Contains(body.Error, "never signed in") {
		t.Errorf("Expected 404 naming the sign-in precondition, got %d %+v", status, body)
	}
}

type downProjectStore struct {
	services.ProjectStore
}

func (downProjectStore) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	return nil, errors.New("connection refused")
}

func TestUnclassifiedErrorsAreHidden(t *testing.T) {
	stores := services.NewMemoryStores()
	stores.Projects = downProjectStore{stores.Projects}
	s := newTestServer(t, stores)

	var body errorBody
	status := s.do("alice", "GET", "/api/projects", nil, &body)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", status)
	}
	if body.Error != "Server error" || body.Code != "" {
		t.Errorf("Expected a generic error, got %+v", body)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(nil)
	h.AddDependency("mongodb", fakePinger{})

	app := fiber.New()
	app.Get("/health", h.Handle)

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	h.AddDependency("redis", fakePinger{err: errors.New("down")})
	resp, _ = app.Test(httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Expected 503 with a failing dependency, got %d", resp.StatusCode)
	}
}
