package middleware

import (
	"context"
	"log/slog"

	"taskflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentitySyncer mirrors authenticated users into the user directory
type IdentitySyncer interface {
	Sync(ctx context.Context, actor models.Actor) error
}

// ActorFrom reads the authenticated actor from request locals
func ActorFrom(c *fiber.Ctx) models.Actor {
	id, _ := c.Locals(LocalUserID).(string)
	name, _ := c.Locals(LocalUserName).(string)
	email, _ := c.Locals(LocalUserEmail).(string)
	return models.Actor{ID: id, Name: name, Email: email}
}

// IdentitySync upserts the caller's profile so that joins and
// invite-by-email can resolve them. Failures never block the request.
func IdentitySync(users IdentitySyncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.ID != "" {
			if err := users.Sync(c.UserContext(), actor); err != nil {
				slog.Warn("failed to sync user profile", "user_id", actor.ID, "error", err)
			}
		}
		return c.Next()
	}
}
