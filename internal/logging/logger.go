package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init(environment string) *slog.Logger {
	env := strings.ToLower(environment)

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithActor returns a logger scoped to the user performing a request
func WithActor(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithProject adds the project a log line is about
func WithProject(logger *slog.Logger, projectID string) *slog.Logger {
	return logger.With("project_id", projectID)
}
