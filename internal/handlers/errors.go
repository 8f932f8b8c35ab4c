package handlers

import (
	"errors"
	"strconv"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/logging"
	"taskflow/internal/middleware"
	"taskflow/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps a classified error to its HTTP status. Unclassified
// errors are logged and answered with a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		logger := logging.WithActor(middleware.ActorFrom(c).ID)
		if id := c.Params("id"); id != "" && strings.Contains(c.Route().Path, "/projects/:id") {
			logger = logging.WithProject(logger, id)
		}
		logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindInvalidState, apperr.KindInvalidRequest:
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Kind.String(),
	})
}

// objectID parses a hex id from a path parameter
func objectID(c *fiber.Ctx, param, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidRequest("Invalid %s ID", label)
	}
	return id, nil
}

// parseBody decodes the JSON request body into out
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.InvalidRequest("Invalid request body")
	}
	return nil
}

// pageQuery reads ?limit and ?skip. Bounds are applied by the services.
func pageQuery(c *fiber.Ctx) models.Page {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	skip, _ := strconv.ParseInt(c.Query("skip"), 10, 64)
	return models.Page{Limit: limit, Skip: skip}
}

func message(c *fiber.Ctx, text string) error {
	return c.JSON(fiber.Map{"message": text})
}

// ErrorHandler answers errors that escape handlers (unknown routes, body
// limits, recovered panics). Fiber errors keep their status; anything else
// is a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}
	return respondError(c, err)
}
