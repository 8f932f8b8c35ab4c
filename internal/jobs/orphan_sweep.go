package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskflow/internal/services"

	"github.com/robfig/cron/v3"
)

// DefaultOrphanSweepSchedule runs the sweep nightly at 03:30
const DefaultOrphanSweepSchedule = "30 3 * * *"

// orphanSweeper is the slice of ProjectService the sweep needs
type orphanSweeper interface {
	SweepOrphans(ctx context.Context) (services.SweepResult, error)
}

// OrphanSweepJob removes tasks and comments left behind by project deletes
// whose cascade did not complete
type OrphanSweepJob struct {
	sweeper  orphanSweeper
	schedule cron.Schedule
	now      func() time.Time
}

// NewOrphanSweepJob creates the sweep job from a standard five-field cron expression
func NewOrphanSweepJob(sweeper orphanSweeper, spec string) (*OrphanSweepJob, error) {
	if spec == "" {
		spec = DefaultOrphanSweepSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid orphan sweep schedule %q: %w", spec, err)
	}
	return &OrphanSweepJob{
		sweeper:  sweeper,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Run executes one sweep
func (j *OrphanSweepJob) Run(ctx context.Context) error {
	log.Println("🧹 [SWEEP] Looking for orphaned tasks...")

	result, err := j.sweeper.SweepOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep orphans: %w", err)
	}

	if result.Tasks == 0 {
		log.Println("✅ [SWEEP] No orphaned tasks found")
		return nil
	}
	log.Printf("✅ [SWEEP] Removed %d tasks and %d comments from %d deleted projects",
		result.Tasks, result.Comments, result.Projects)
	return nil
}

// GetNextRunTime returns the next time the cron schedule fires
func (j *OrphanSweepJob) GetNextRunTime() time.Time {
	return j.schedule.Next(j.now())
}
