package services

import (
	"strings"
	"testing"

	"taskflow/internal/apperr"
	"taskflow/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationBehaviors_Exhaustive(t *testing.T) {
	if len(notificationBehaviors) != len(models.NotificationTypes) {
		t.Fatalf("Expected %d behaviors, got %d", len(models.NotificationTypes), len(notificationBehaviors))
	}
	for _, typ := range models.NotificationTypes {
		behavior, ok := notificationBehaviors[typ]
		if !ok {
			t.Errorf("No behavior for %s", typ)
			continue
		}
		if (behavior.respond != nil) != typ.Actionable() {
			t.Errorf("%s: respond rule presence should match Actionable()", typ)
		}
		if behavior.respond != nil {
			for _, receipt := range []models.NotificationType{behavior.respond.acceptReceipt, behavior.respond.declineReceipt} {
				if receipt.Actionable() || !receipt.Valid() {
					t.Errorf("%s: receipt %s must be a valid informational type", typ, receipt)
				}
			}
		}
	}
}

// Admin A creates P, invites B, B accepts.
func TestRespond_InvitationAccepted(t *testing.T) {
	f := newFixture(t)
	project, err := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	invite, err := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}
	if invite.Status != models.NotificationStatusPending || invite.RecipientID != "bob" {
		t.Fatalf("Unexpected invitation: %+v", invite)
	}

	resolved, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseAccepted)
	if err != nil {
		t.Fatalf("Failed to respond: %v", err)
	}
	if resolved.Status != models.NotificationStatusAccepted {
		t.Errorf("Expected accepted, got %s", resolved.Status)
	}

	project, _ = f.core.Projects.Load(f.ctx, project.ID)
	if project.RoleOf("bob") != models.ProjectRoleMember {
		t.Errorf("Expected bob to be a member, roster: %+v", project.Members)
	}

	receipts := f.inbox("alice", models.NotificationInvitationAccepted)
	if len(receipts) != 1 {
		t.Fatalf("Expected 1 invitation_accepted for alice, got %d", len(receipts))
	}
	if receipts[0].Status != models.NotificationStatusInfo || receipts[0].SenderID != "bob" {
		t.Errorf("Unexpected receipt: %+v", receipts[0].Notification)
	}
	if receipts[0].Project == nil || receipts[0].Project.Name != "Apollo" {
		t.Errorf("Expected populated project, got %+v", receipts[0].Project)
	}

	joined := f.activities(project, models.ActivityUserJoined)
	if len(joined) != 1 || joined[0].UserID != "bob" {
		t.Errorf("Expected one user_joined entry for bob, got %+v", joined)
	}
}

func TestRespond_InvitationDeclined(t *testing.T) {
	f := newFixture(t)
	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})

	invite, err := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}
	if _, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseDeclined); err != nil {
		t.Fatalf("Failed to respond: %v", err)
	}

	project, _ = f.core.Projects.Load(f.ctx, project.ID)
	if project.IsMember("bob") || len(project.Members) != 1 {
		t.Errorf("Membership should be unchanged, roster: %+v", project.Members)
	}
	if got := len(f.inbox("alice", models.NotificationInvitationDeclined)); got != 1 {
		t.Errorf("Expected 1 invitation_declined for alice, got %d", got)
	}
	if got := len(f.activities(project, models.ActivityUserJoined)); got != 0 {
		t.Errorf("Expected no user_joined entry, got %d", got)
	}
}

func TestRespond_UnknownValueDeclines(t *testing.T) {
	for _, response := range []models.NotificationResponse{"maybe later", "", "  "} {
		t.Run(string(response), func(t *testing.T) {
			f := newFixture(t)
			project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
			invite, _ := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})

			resolved, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, response)
			if err != nil {
				t.Fatalf("Failed to respond: %v", err)
			}
			if resolved.Status != models.NotificationStatusDeclined {
				t.Errorf("Expected declined, got %s", resolved.Status)
			}
			if got := len(f.inbox("alice", models.NotificationInvitationDeclined)); got != 1 {
				t.Errorf("Expected one decline receipt, got %d", got)
			}
			reloaded, _ := f.core.Projects.Load(f.ctx, project.ID)
			if reloaded.IsMember("bob") {
				t.Error("A declined invitation must not add the recipient")
			}
		})
	}
}

func TestRespond_NonPendingAlwaysInvalidState(t *testing.T) {
	f := newFixture(t)
	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
	invite, _ := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})

	if _, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseAccepted); err != nil {
		t.Fatalf("Failed to respond: %v", err)
	}

	for _, response := range []models.NotificationResponse{models.ResponseAccepted, models.ResponseDeclined, "", "whatever"} {
		t.Run(string(response), func(t *testing.T) {
			_, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, response)
			expectKind(t, err, apperr.KindInvalidState)
		})
	}

	// Informational notifications are never pending
	receipt := f.inbox("alice", models.NotificationInvitationAccepted)[0]
	_, err := f.core.Notifications.Respond(f.ctx, f.actor("alice"), receipt.ID, models.ResponseAccepted)
	expectKind(t, err, apperr.KindInvalidState)
}

func TestRespond_Guards(t *testing.T) {
	f := newFixture(t)
	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
	invite, _ := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})

	_, err := f.core.Notifications.Respond(f.ctx, f.actor("carol"), invite.ID, models.ResponseAccepted)
	expectKind(t, err, apperr.KindForbidden)

	_, err = f.core.Notifications.Respond(f.ctx, f.actor("bob"), primitive.NewObjectID(), models.ResponseAccepted)
	expectKind(t, err, apperr.KindNotFound)

	// Rejected attempts leave the invitation pending
	stored, _ := f.stores.Notifications.GetByID(f.ctx, invite.ID)
	if stored.Status != models.NotificationStatusPending {
		t.Errorf("Expected pending, got %s", stored.Status)
	}
}

func TestRespond_AcceptAfterProjectDeleted(t *testing.T) {
	f := newFixture(t)
	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
	invite, _ := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})

	if err := f.core.Projects.Delete(f.ctx, "alice", project.ID); err != nil {
		t.Fatalf("Failed to delete project: %v", err)
	}

	_, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseAccepted)
	expectKind(t, err, apperr.KindNotFound)

	// Declining a dangling invitation still resolves it
	resolved, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseDeclined)
	if err != nil {
		t.Fatalf("Failed to decline: %v", err)
	}
	if resolved.Status != models.NotificationStatusDeclined {
		t.Errorf("Expected declined, got %s", resolved.Status)
	}
}

func TestRespond_LegacyTypeNormalized(t *testing.T) {
	f := newFixture(t)
	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})

	// Persisted by an older release under the deprecated name
	pid := project.ID
	legacy := &models.Notification{
		RecipientID: "bob",
		SenderID:    "alice",
		Type:        "invitation",
		Status:      models.NotificationStatusPending,
		ProjectID:   &pid,
		Text:        "Alice invited you",
	}
	if err := f.stores.Notifications.Create(f.ctx, legacy); err != nil {
		t.Fatalf("Failed to seed notification: %v", err)
	}

	if _, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), legacy.ID, models.ResponseAccepted); err != nil {
		t.Fatalf("Failed to respond: %v", err)
	}

	stored, _ := f.stores.Notifications.GetByID(f.ctx, legacy.ID)
	if stored.Type != models.NotificationProjectInvitation {
		t.Errorf("Expected normalized type to be persisted, got %s", stored.Type)
	}
	project, _ = f.core.Projects.Load(f.ctx, project.ID)
	if !project.IsMember("bob") {
		t.Error("Expected bob to join through the legacy invitation")
	}
	if got := len(f.inbox("alice", models.NotificationInvitationAccepted)); got != 1 {
		t.Errorf("Expected receipt for alice, got %d", got)
	}
}

func TestRespond_ReceiptFailureKeepsMembership(t *testing.T) {
	stores := NewMemoryStores()
	stores.Notifications = selectiveNotificationStore{
		NotificationStore: stores.Notifications,
		reject:            map[models.NotificationType]bool{models.NotificationInvitationAccepted: true},
	}
	stores.Activities = failingActivityStore{stores.Activities}
	f := newFixtureWithStores(t, stores)

	project, _ := f.core.Projects.Create(f.ctx, f.actor("alice"), &models.CreateProjectRequest{Name: "Apollo"})
	invite, err := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "bob"})
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}

	resolved, err := f.core.Notifications.Respond(f.ctx, f.actor("bob"), invite.ID, models.ResponseAccepted)
	if err != nil {
		t.Fatalf("Receipt and activity failures must not fail respond: %v", err)
	}
	if resolved.Status != models.NotificationStatusAccepted {
		t.Errorf("Expected accepted, got %s", resolved.Status)
	}
	project, _ = f.core.Projects.Load(f.ctx, project.ID)
	if !project.IsMember("bob") {
		t.Error("Membership must survive a failed receipt")
	}
	if got := len(f.inbox("alice", models.NotificationInvitationAccepted)); got != 0 {
		t.Errorf("Expected no receipt, got %d", got)
	}
}

func TestInvite_Validation(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	tests := []struct {
		name  string
		actor string
		req   models.InviteMemberRequest
		kind  apperr.Kind
	}{
		{"self invite", "alice", models.InviteMemberRequest{UserID: "alice"}, apperr.KindInvalidRequest},
		{"already member", "alice", models.InviteMemberRequest{UserID: "bob"}, apperr.KindConflict},
		{"unknown user", "alice", models.InviteMemberRequest{UserID: "zed"}, apperr.KindNotFound},
		{"unknown email", "alice", models.InviteMemberRequest{Email: "zed@example.com"}, apperr.KindNotFound},
		{"no target", "alice", models.InviteMemberRequest{}, apperr.KindInvalidRequest},
		{"member cannot invite", "bob", models.InviteMemberRequest{UserID: "carol"}, apperr.KindForbidden},
		{"outsider cannot invite", "carol", models.InviteMemberRequest{UserID: "carol"}, apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.core.Notifications.Invite(f.ctx, f.actor(tt.actor), project.ID, &req)
			expectKind(t, err, tt.kind)
		})
	}
}

func TestInvite_ByEmailSendsMailOnce(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	// Non-owner admins may invite
	invite, err := f.core.Notifications.Invite(f.ctx, f.actor("dave"), project.ID, &models.InviteMemberRequest{Email: "CAROL@example.com"})
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}
	if invite.RecipientID != "carol" {
		t.Errorf("Expected carol, got %s", invite.RecipientID)
	}
	if !strings.HasPrefix(invite.Link, "https://app.example.com/") {
		t.Errorf("Unexpected link %q", invite.Link)
	}

	if len(f.mailer.sent) != 1 || f.mailer.sent[0].ToEmail != "carol@example.com" || f.mailer.sent[0].ProjectName != "Apollo" {
		t.Errorf("Unexpected mail: %+v", f.mailer.sent)
	}

	_, err = f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "carol"})
	expectKind(t, err, apperr.KindConflict)
}

func TestInvite_MailFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errStoreDown
	project := f.project(false)

	if _, err := f.core.Notifications.Invite(f.ctx, f.actor("alice"), project.ID, &models.InviteMemberRequest{UserID: "carol"}); err != nil {
		t.Fatalf("Mail failure must not fail the invite: %v", err)
	}
	if got := len(f.inbox("carol", models.NotificationProjectInvitation)); got != 1 {
		t.Errorf("Expected 1 invitation, got %d", got)
	}
}

func TestRequestToJoin(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	request, err := f.core.Notifications.RequestToJoin(f.ctx, f.actor("carol"), project.ID, "")
	if err != nil {
		t.Fatalf("Failed to request: %v", err)
	}
	if request.RecipientID != "alice" || request.Status != models.NotificationStatusPending || request.Type != models.NotificationCollaborationRequest {
		t.Fatalf("Unexpected request: %+v", request)
	}
	if !strings.Contains(request.Text, "Carol") {
		t.Errorf("Expected default text to name the requester, got %q", request.Text)
	}

	_, err = f.core.Notifications.RequestToJoin(f.ctx, f.actor("carol"), project.ID, "please")
	expectKind(t, err, apperr.KindConflict)

	if _, err := f.core.Notifications.Respond(f.ctx, f.actor("alice"), request.ID, models.ResponseAccepted); err != nil {
		t.Fatalf("Failed to accept: %v", err)
	}
	project, _ = f.core.Projects.Load(f.ctx, project.ID)
	if project.RoleOf("carol") != models.ProjectRoleMember {
		t.Errorf("Expected carol to join as member, roster: %+v", project.Members)
	}
	if got := len(f.inbox("carol", models.NotificationCollaborationAccepted)); got != 1 {
		t.Errorf("Expected collaboration_accepted for carol, got %d", got)
	}
}

func TestRequestToJoin_Rejections(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	_, err := f.core.Notifications.RequestToJoin(f.ctx, f.actor("alice"), project.ID, "")
	expectKind(t, err, apperr.KindInvalidRequest)

	_, err = f.core.Notifications.RequestToJoin(f.ctx, f.actor("bob"), project.ID, "")
	expectKind(t, err, apperr.KindInvalidRequest)

	_, err = f.core.Notifications.RequestToJoin(f.ctx, f.actor("carol"), primitive.NewObjectID(), "")
	expectKind(t, err, apperr.KindNotFound)
}

func TestRequestToJoin_DeclinedAllowsNewRequest(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)

	request, _ := f.core.Notifications.RequestToJoin(f.ctx, f.actor("carol"), project.ID, "")
	if _, err := f.core.Notifications.Respond(f.ctx, f.actor("alice"), request.ID, models.ResponseDeclined); err != nil {
		t.Fatalf("Failed to decline: %v", err)
	}
	if got := len(f.inbox("carol", models.NotificationCollaborationDeclined)); got != 1 {
		t.Errorf("Expected collaboration_declined for carol, got %d", got)
	}

	if _, err := f.core.Notifications.RequestToJoin(f.ctx, f.actor("carol"), project.ID, ""); err != nil {
		t.Errorf("A resolved request should not block a new one: %v", err)
	}
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	f.task(project, "One")
	f.task(project, "Two")

	count, _ := f.core.Notifications.UnreadCount(f.ctx, "bob")
	if count != 2 {
		t.Fatalf("Expected 2 unread, got %d", count)
	}

	first, err := f.core.Notifications.MarkAllRead(f.ctx, "bob")
	if err != nil || first != 2 {
		t.Fatalf("Expected 2 marked, got %d (%v)", first, err)
	}
	second, err := f.core.Notifications.MarkAllRead(f.ctx, "bob")
	if err != nil || second != 0 {
		t.Fatalf("Expected second call to be a no-op, got %d (%v)", second, err)
	}

	all, _ := f.core.Notifications.List(f.ctx, "bob", models.Page{})
	for _, n := range all {
		if !n.Read {
			t.Errorf("Notification %s still unread", n.ID.Hex())
		}
	}

	// Dave's inbox is untouched
	if count, _ := f.core.Notifications.UnreadCount(f.ctx, "dave"); count != 2 {
		t.Errorf("Expected dave to keep 2 unread, got %d", count)
	}
}

func TestMarkReadAndDelete_ScopedToRecipient(t *testing.T) {
	f := newFixture(t)
	project := f.project(false)
	f.task(project, "One")

	n := f.inbox("bob", models.NotificationTaskCreated)[0]

	expectKind(t, f.core.Notifications.MarkRead(f.ctx, "dave", n.ID), apperr.KindNotFound)
	expectKind(t, f.core.Notifications.Delete(f.ctx, "dave", n.ID), apperr.KindNotFound)

	if err := f.core.Notifications.MarkRead(f.ctx, "bob", n.ID); err != nil {
		t.Fatalf("Failed to mark read: %v", err)
	}
	if err := f.core.Notifications.MarkRead(f.ctx, "bob", n.ID); err != nil {
		t.Errorf("Marking read twice should succeed: %v", err)
	}
	if err := f.core.Notifications.Delete(f.ctx, "bob", n.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if got := len(f.inbox("bob", models.NotificationTaskCreated)); got != 0 {
		t.Errorf("Expected deleted notification to be gone, got %d", got)
	}
}

func TestList_PagingAndDanglingReferences(t *testing.T) {
	f := newFixture(t)
	f.core.Notifications.SetPageSizes(2, 3)
	project := f.project(false)
	for _, title := range []string{"One", "Two", "Three", "Four"} {
		f.task(project, title)
	}

	page, _ := f.core.Notifications.List(f.ctx, "bob", models.Page{})
	if len(page) != 2 {
		t.Fatalf("Expected default page of 2, got %d", len(page))
	}
	if !strings.Contains(page[0].Text, "Four") {
		t.Errorf("Expected newest first, got %q", page[0].Text)
	}
	if page[0].Sender == nil || page[0].Sender.Name != "Alice" {
		t.Errorf("Expected sender to be populated, got %+v", page[0].Sender)
	}

	clamped, _ := f.core.Notifications.List(f.ctx, "bob", models.Page{Limit: 50})
	if len(clamped) != 3 {
		t.Errorf("Expected limit clamped to 3, got %d", len(clamped))
	}

	skipped, _ := f.core.Notifications.List(f.ctx, "bob", models.Page{Limit: 3, Skip: 3})
	if len(skipped) != 1 || !strings.Contains(skipped[0].Text, "One") {
		t.Errorf("Expected the oldest notification after skip, got %+v", skipped)
	}

	if err := f.core.Projects.Delete(f.ctx, "alice", project.ID); err != nil {
		t.Fatalf("Failed to delete project: %v", err)
	}
	after, err := f.core.Notifications.List(f.ctx, "bob", models.Page{})
	if err != nil {
		t.Fatalf("Listing must tolerate deleted projects: %v", err)
	}
	if after[0].Project != nil {
		t.Errorf("Expected project join to be nulled, got %+v", after[0].Project)
	}
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	err := f.core.Notifications.Create(f.ctx, &models.Notification{RecipientID: "bob", Type: "party_invite"})
	expectKind(t, err, apperr.KindInvalidRequest)
}

func TestNotifyInfo_DeduplicatesAndExcludesSender(t *testing.T) {
	f := newFixture(t)
	sent := f.core.Notifications.NotifyInfo(f.ctx, InfoNotice{
		Type:       models.NotificationNewComment,
		SenderID:   "alice",
		Recipients: []string{"bob", "alice", "bob", "", "carol"},
		Text:       "hello",
	})
	if sent != 2 {
		t.Errorf("Expected 2 notifications, got %d", sent)
	}
	if got := len(f.inbox("bob", models.NotificationNewComment)); got != 1 {
		t.Errorf("Expected bob to get exactly one, got %d", got)
	}
	if got := len(f.inbox("alice", models.NotificationNewComment)); got != 0 {
		t.Errorf("Sender should not be notified, got %d", got)
	}
}
