package preflight

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskflow/internal/config"

	"github.com/robfig/cron/v3"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Pinger is a dependency that can be probed before start
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	cfg *config.Config
	db  Pinger // nil when running on in-memory stores
}

// NewChecker creates a new preflight checker
func NewChecker(cfg *config.Config, db Pinger) *Checker {
	return &Checker{cfg: cfg, db: db}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkJWTSecret(),
		c.checkSMTP(),
		c.checkSweepSchedule(),
		c.checkPageSizes(),
	}

	// Print summary
	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if c.db == nil {
		status := "warning"
		if c.cfg.IsProduction() {
			status = "fail"
		}
		return CheckResult{
			Name:    "Database Connection",
			Status:  status,
			Message: "MONGODB_URI not set, using in-memory stores (data is lost on restart)",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkJWTSecret requires token verification outside development
func (c *Checker) checkJWTSecret() CheckResult {
	if c.cfg.JWTSecret != "" {
		if len(c.cfg.JWTSecret) < 32 && c.cfg.IsProduction() {
			return CheckResult{
				Name:    "JWT Secret",
				Status:  "warning",
				Message: "JWT_SECRET is shorter than 32 characters",
			}
		}
		return CheckResult{Name: "JWT Secret", Status: "pass", Message: "Token verification enabled"}
	}

	if c.cfg.IsProduction() {
		return CheckResult{
			Name:    "JWT Secret",
			Status:  "fail",
			Message: "JWT_SECRET is required in production",
		}
	}
	return CheckResult{
		Name:    "JWT Secret",
		Status:  "warning",
		Message: "JWT_SECRET not set, authentication is bypassed (development mode)",
	}
}

// checkSMTP accepts either no SMTP settings or a usable set
func (c *Checker) checkSMTP() CheckResult {
	if !c.cfg.SMTPConfigured() {
		return CheckResult{
			Name:    "SMTP",
			Status:  "warning",
			Message: "SMTP not configured, invitation e-mails are only logged",
		}
	}

	missing := []string{}
	if c.cfg.SMTPHost == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.cfg.SMTPFrom == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if c.cfg.SMTPPort <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if (c.cfg.SMTPUser == "") != (c.cfg.SMTPPass == "") {
		missing = append(missing, "SMTP_USER/SMTP_PASS")
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:    "SMTP",
			Status:  "fail",
			Message: fmt.Sprintf("Incomplete SMTP configuration, missing: %v", missing),
		}
	}
	return CheckResult{Name: "SMTP", Status: "pass", Message: fmt.Sprintf("Sending via %s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)}
}

// checkSweepSchedule verifies the orphan sweep cron expression
func (c *Checker) checkSweepSchedule() CheckResult {
	if _, err := cron.ParseStandard(c.cfg.OrphanSweepCron); err != nil {
		return CheckResult{
			Name:    "Orphan Sweep Schedule",
			Status:  "fail",
			Message: fmt.Sprintf("ORPHAN_SWEEP_CRON %q is not a valid cron expression", c.cfg.OrphanSweepCron),
			Error:   err,
		}
	}
	return CheckResult{Name: "Orphan Sweep Schedule", Status: "pass", Message: c.cfg.OrphanSweepCron}
}

// checkPageSizes rejects defaults above their maxima
func (c *Checker) checkPageSizes() CheckResult {
	if c.cfg.NotificationPageSize <= 0 || c.cfg.ActivityPageSize <= 0 {
		return CheckResult{Name: "Page Sizes", Status: "fail", Message: "Page sizes must be positive"}
	}
	if c.cfg.NotificationPageSize > c.cfg.NotificationMaxPageSize {
		return CheckResult{
			Name:    "Page Sizes",
			Status:  "fail",
			Message: "NOTIFICATION_PAGE_SIZE exceeds NOTIFICATION_MAX_PAGE_SIZE",
		}
	}
	return CheckResult{Name: "Page Sizes", Status: "pass", Message: "Page sizes valid"}
}
