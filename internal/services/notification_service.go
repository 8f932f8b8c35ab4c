package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/permission"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default listing bounds
const (
	DefaultNotificationPageSize    = 30
	DefaultMaxNotificationPageSize = 100
)

// responseRule is the accept/decline fan-out of an actionable type
type responseRule struct {
	// joiner picks who joins the project on accept
	joiner         func(n *models.Notification) string
	acceptReceipt  models.NotificationType
	declineReceipt models.NotificationType
	// noun names the original action in receipt texts
	noun string
}

// typeBehavior is the dispatch entry of one notification type. Informational
// types have no respond rule.
type typeBehavior struct {
	respond *responseRule
}

func informational() typeBehavior { return typeBehavior{} }

// notificationBehaviors covers every current type name
var notificationBehaviors = map[models.NotificationType]typeBehavior{
	models.NotificationProjectInvitation: {respond: &responseRule{
		joiner:         func(n *models.Notification) string { return n.RecipientID },
		acceptReceipt:  models.NotificationInvitationAccepted,
		declineReceipt: models.NotificationInvitationDeclined,
		noun:           "invitation",
	}},
	models.NotificationCollaborationRequest: {respond: &responseRule{
		joiner:         func(n *models.Notification) string { return n.SenderID },
		acceptReceipt:  models.NotificationCollaborationAccepted,
		declineReceipt: models.NotificationCollaborationDeclined,
		noun:           "request",
	}},
	models.NotificationTaskCreated:           informational(),
	models.NotificationTaskAssigned:          informational(),
	models.NotificationTaskStatusChanged:     informational(),
	models.NotificationNewComment:            informational(),
	models.NotificationInvitationAccepted:    informational(),
	models.NotificationInvitationDeclined:    informational(),
	models.NotificationCollaborationAccepted: informational(),
	models.NotificationCollaborationDeclined: informational(),
}

// InfoNotice describes an informational fan-out
type InfoNotice struct {
	Type       models.NotificationType
	SenderID   string
	Recipients []string
	ProjectID  *primitive.ObjectID
	TaskID     *primitive.ObjectID
	Text       string
	Link       string
}

// NotificationService creates, lists and resolves notifications
type NotificationService struct {
	notifications NotificationStore
	projects      *ProjectService
	activity      *ActivityService
	users         *UserDirectory
	effects       *SideEffects
	publisher     Publisher
	mailer        Mailer
	frontendURL   string
	pageSize      int64
	maxPageSize   int64
}

// NewNotificationService creates a new notification service
func NewNotificationService(stores *Stores, projects *ProjectService, activity *ActivityService, users *UserDirectory, effects *SideEffects) *NotificationService {
	return &NotificationService{
		notifications: stores.Notifications,
		projects:      projects,
		activity:      activity,
		users:         users,
		effects:       effects,
		publisher:     NoopPublisher{},
		mailer:        NewLogMailer(),
		pageSize:      DefaultNotificationPageSize,
		maxPageSize:   DefaultMaxNotificationPageSize,
	}
}

// SetPublisher sets the realtime publisher
func (s *NotificationService) SetPublisher(publisher Publisher) {
	s.publisher = publisher
}

// SetMailer sets the outbound mailer
func (s *NotificationService) SetMailer(mailer Mailer) {
	s.mailer = mailer
}

// SetFrontendURL sets the base used for notification links
func (s *NotificationService) SetFrontendURL(url string) {
	s.frontendURL = strings.TrimRight(url, "/")
}

// SetPageSizes overrides the default and maximum listing sizes
func (s *NotificationService) SetPageSizes(def, max int64) {
	if def > 0 {
		s.pageSize = def
	}
	if max > 0 {
		s.maxPageSize = max
	}
}

func (s *NotificationService) link(path string) string {
	return s.frontendURL + path
}

// Create persists a notification. Actionable types start pending, the rest info.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	n.Type = n.Type.Normalize()
	if _, ok := notificationBehaviors[n.Type]; !ok {
		return apperr.InvalidRequest("Unknown notification type: %s", n.Type)
	}
	if n.RecipientID == "" {
		return apperr.InvalidRequest("Notification recipient is required")
	}

	if n.Type.Actionable() {
		n.Status = models.NotificationStatusPending
	} else {
		n.Status = models.NotificationStatusInfo
	}
	n.Read = false

	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	notificationsCreated.WithLabelValues(string(n.Type)).Inc()

	s.effects.Run(ctx, EffectRealtime, func(ctx context.Context) error {
		return s.publisher.PublishToUser(ctx, n.RecipientID, "notification", map[string]interface{}{
			"id":   n.ID.Hex(),
			"type": n.Type,
			"text": n.Text,
		})
	})
	return nil
}

// NotifyInfo sends one informational notification per recipient, deduplicated
// and excluding the sender. Each write is best effort.
func (s *NotificationService) NotifyInfo(ctx context.Context, notice InfoNotice) int {
	sent := 0
	for _, recipientID := range recipients(notice.SenderID, notice.Recipients...) {
		n := &models.Notification{
			RecipientID: recipientID,
			SenderID:    notice.SenderID,
			Type:        notice.Type,
			ProjectID:   notice.ProjectID,
			TaskID:      notice.TaskID,
			Text:        notice.Text,
			Link:        notice.Link,
		}
		if s.effects.Run(ctx, EffectNotification, func(ctx context.Context) error { return s.Create(ctx, n) }) {
			sent++
		}
	}
	return sent
}

// List returns a page of the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actorID string, page models.Page) ([]models.NotificationView, error) {
	items, err := s.notifications.ListByRecipient(ctx, actorID, normalizePage(page, s.pageSize, s.maxPageSize))
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(items))
	var projectIDs []primitive.ObjectID
	for _, n := range items {
		senderIDs = append(senderIDs, n.SenderID)
		if n.ProjectID != nil {
			projectIDs = append(projectIDs, *n.ProjectID)
		}
	}
	senders := s.users.Summaries(ctx, senderIDs)
	projects := s.projects.summaries(ctx, projectIDs)

	views := make([]models.NotificationView, 0, len(items))
	for _, n := range items {
		n.Type = n.Type.Normalize()
		view := models.NotificationView{Notification: n, Sender: senders[n.SenderID]}
		if n.ProjectID != nil {
			view.Project = projects[*n.ProjectID]
		}
		views = append(views, view)
	}
	return views, nil
}

// UnreadCount counts the actor's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actorID string) (int64, error) {
	return s.notifications.CountUnread(ctx, actorID)
}

// MarkRead marks one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actorID string, id primitive.ObjectID) error {
	if err := s.notifications.MarkRead(ctx, actorID, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Notification not found")
		}
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor as read and
// returns how many changed. A second call is a no-op.
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, actorID)
}

// Delete removes one of the actor's notifications
func (s *NotificationService) Delete(ctx context.Context, actorID string, id primitive.ObjectID) error {
	if err := s.notifications.Delete(ctx, actorID, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("Notification not found")
		}
		return err
	}
	return nil
}

// Respond resolves an actionable notification addressed to actor
func (s *NotificationService) Respond(ctx context.Context, actor models.Actor, id primitive.ObjectID, response models.NotificationResponse) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Notification not found")
		}
		return nil, err
	}
	if n.RecipientID != actor.ID {
		return nil, apperr.Forbidden("This notification is not addressed to you")
	}
	if n.Status != models.NotificationStatusPending {
		return nil, apperr.InvalidState("This notification has already been answered")
	}

	// Older releases persisted deprecated type names
	n.Type = n.Type.Normalize()
	behavior, ok := notificationBehaviors[n.Type]
	if !ok || behavior.respond == nil {
		return nil, apperr.InvalidState("This notification does not accept responses")
	}

	rule := behavior.respond
	accepted := response == models.ResponseAccepted

	var project *models.Project
	if n.ProjectID != nil {
		project, err = s.projects.Load(ctx, *n.ProjectID)
		if err != nil && !(apperr.Is(err, apperr.KindNotFound) && !accepted) {
			return nil, err
		}
	} else if accepted {
		return nil, apperr.InvalidState("This notification no longer refers to a project")
	}

	joiner := rule.joiner(n)
	if accepted {
		err := s.projects.AddMember(ctx, project.ID, joiner, models.ProjectRoleMember)
		if err != nil && !apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}
	}

	status := models.NotificationStatusDeclined
	receipt := rule.declineReceipt
	verb := "declined"
	if accepted {
		status = models.NotificationStatusAccepted
		receipt = rule.acceptReceipt
		verb = "accepted"
	}

	now := time.Now()
	resolved, err := s.notifications.Resolve(ctx, n.ID, n.Type, status, now)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, apperr.InvalidState("This notification has already been answered")
	}
	n.Status = status
	n.Read = true
	n.RespondedAt = &now
	n.UpdatedAt = now
	notificationResponses.WithLabelValues(string(n.Type), verb).Inc()

	projectName := "the project"
	if project != nil {
		projectName = project.Name
	}

	s.effects.Run(ctx, EffectReceipt, func(ctx context.Context) error {
		return s.Create(ctx, &models.Notification{
			RecipientID: n.SenderID,
			SenderID:    actor.ID,
			Type:        receipt,
			ProjectID:   n.ProjectID,
			Text:        fmt.Sprintf("%s %s your %s to join %s", displayName(actor), verb, rule.noun, projectName),
			Link:        s.projectLink(n.ProjectID),
		})
	})

	if accepted {
		joinerName := displayName(actor)
		if joiner != actor.ID {
			joinerName = s.users.DisplayName(ctx, joiner)
		}
		s.activity.Record(ctx, &models.Activity{
			Type:      models.ActivityUserJoined,
			UserID:    joiner,
			ProjectID: project.ID,
			Text:      fmt.Sprintf("%s joined the project.", joinerName),
			CreatedAt: now,
		})
	}

	return n, nil
}

// Invite sends a project invitation to a user identified by id or email
func (s *NotificationService) Invite(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, req *models.InviteMemberRequest) (*models.Notification, error) {
	project, err := s.projects.Authorize(ctx, actor.ID, projectID, permission.ActionInvite)
	if err != nil {
		return nil, err
	}

	var target *models.User
	switch {
	case req.UserID != "":
		target, err = s.users.Get(ctx, req.UserID)
	case strings.TrimSpace(req.Email) != "":
		target, err = s.users.FindByEmail(ctx, req.Email)
	default:
		return nil, apperr.InvalidRequest("A user id or email is required")
	}
	if err != nil {
		return nil, err
	}

	if target.ID == actor.ID {
		return nil, apperr.InvalidRequest("You cannot invite yourself to your own project")
	}
	if project.IsMember(target.ID) {
		return nil, apperr.Conflict("User is already a member of this project")
	}

	pending, err := s.notifications.HasPending(ctx, PendingFilter{
		Type:        models.NotificationProjectInvitation,
		ProjectID:   project.ID,
		RecipientID: target.ID,
	})
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("User already has a pending invitation to this project")
	}

	pid := project.ID
	n := &models.Notification{
		RecipientID: target.ID,
		SenderID:    actor.ID,
		Type:        models.NotificationProjectInvitation,
		ProjectID:   &pid,
		Text:        fmt.Sprintf("%s invited you to join %s", displayName(actor), project.Name),
		Link:        s.link("/notifications"),
	}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}

	if target.Email != "" {
		s.effects.Run(ctx, EffectEmail, func(ctx context.Context) error {
			return s.mailer.SendInvitation(ctx, Invitation{
				ToEmail:     target.Email,
				ToName:      target.Name,
				InviterName: displayName(actor),
				ProjectName: project.Name,
				Link:        n.Link,
			})
		})
	}

	return n, nil
}

// RequestToJoin asks the owner of a project to let actor in
func (s *NotificationService) RequestToJoin(ctx context.Context, actor models.Actor, projectID primitive.ObjectID, message string) (*models.Notification, error) {
	project, err := s.projects.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsOwner(actor.ID) {
		return nil, apperr.InvalidRequest("You already own this project")
	}
	if project.IsMember(actor.ID) {
		return nil, apperr.InvalidRequest("You are already a member of this project")
	}

	pending, err := s.notifications.HasPending(ctx, PendingFilter{
		Type:      models.NotificationCollaborationRequest,
		ProjectID: project.ID,
		SenderID:  actor.ID,
	})
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("You already have a pending request for this project")
	}

	text := strings.TrimSpace(message)
	if text == "" {
		text = fmt.Sprintf("%s wants to collaborate on %s", displayName(actor), project.Name)
	}

	pid := project.ID
	n := &models.Notification{
		RecipientID: project.OwnerID,
		SenderID:    actor.ID,
		Type:        models.NotificationCollaborationRequest,
		ProjectID:   &pid,
		Text:        text,
		Link:        s.link("/notifications"),
	}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) projectLink(projectID *primitive.ObjectID) string {
	if projectID == nil {
		return s.link("/notifications")
	}
	return s.link("/projects/" + projectID.Hex())
}
