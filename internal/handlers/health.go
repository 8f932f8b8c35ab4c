package handlers

import (
	"context"
	"time"

	"taskflow/internal/jobs"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency whose reachability is reported by /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	deps      map[string]Pinger
	scheduler *jobs.JobScheduler
	started   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(scheduler *jobs.JobScheduler) *HealthHandler {
	return &HealthHandler{
		deps:      make(map[string]Pinger),
		scheduler: scheduler,
		started:   time.Now(),
	}
}

// AddDependency registers a dependency to ping on each check
func (h *HealthHandler) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// Handle responds with server health status. Any failing dependency
// turns the response into a 503.
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := fiber.Map{}
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	body := fiber.Map{
		"status":       status,
		"dependencies": deps,
		"uptime":       time.Since(h.started).Round(time.Second).String(),
		"timestamp":    time.Now().Format(time.RFC3339),
	}
	if h.scheduler != nil {
		body["jobs"] = h.scheduler.GetStatus()
	}

	if status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}
