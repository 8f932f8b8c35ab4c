package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Job interface that all scheduled jobs must implement
type Job interface {
	Run(ctx context.Context) error
	GetNextRunTime() time.Time
}

// JobScheduler manages and runs scheduled jobs
type JobScheduler struct {
	jobs    map[string]Job
	timers  map[string]*time.Timer
	lastRun map[string]runRecord
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler() *JobScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobScheduler{
		jobs:    make(map[string]Job),
		timers:  make(map[string]*time.Timer),
		lastRun: make(map[string]runRecord),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a job to the scheduler. Names must be unique.
func (s *JobScheduler) Register(name string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	s.jobs[name] = job
	log.Printf("✅ [SCHEDULER] Registered job: %s", name)

	// Jobs registered after Start are scheduled right away
	if s.running {
		s.scheduleJob(name, job)
	}
	return nil
}

// Start begins running all registered jobs
func (s *JobScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.running = true
	log.Printf("🚀 [SCHEDULER] Starting job scheduler with %d jobs", len(s.jobs))

	// Schedule all jobs
	for name, job := range s.jobs {
		s.scheduleJob(name, job)
	}

	return nil
}

// scheduleJob schedules a single job
func (s *JobScheduler) scheduleJob(name string, job Job) {
	nextRun := job.GetNextRunTime()
	if nextRun.IsZero() {
		log.Printf("⚠️  [SCHEDULER] Job '%s' has no next run time, not scheduling", name)
		return
	}
	duration := time.Until(nextRun)

	log.Printf("⏰ [SCHEDULER] Job '%s' scheduled to run at %s (in %v)",
		name, nextRun.Format(time.RFC3339), duration)

	timer := time.AfterFunc(duration, func() {
		s.runJob(name, job)
	})

	s.timers[name] = timer
}

// runJob is the timer callback: it executes the job and schedules the next run
func (s *JobScheduler) runJob(name string, job Job) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.execute(name, job)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.scheduleJob(name, job)
	}
}

// execute runs a job once and records the outcome for GetStatus
func (s *JobScheduler) execute(name string, job Job) error {
	log.Printf("▶️  [SCHEDULER] Running job: %s", name)
	started := time.Now()
	err := job.Run(s.ctx)
	took := time.Since(started)

	s.mu.Lock()
	rec := s.lastRun[name]
	s.lastRun[name] = runRecord{at: started, duration: took, err: err, runs: rec.runs + 1}
	s.mu.Unlock()

	if err != nil {
		log.Printf("❌ [SCHEDULER] Job '%s' failed after %v: %v", name, took, err)
	} else {
		log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, took)
	}
	return err
}

// Stop gracefully stops all jobs
func (s *JobScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	log.Println("🛑 [SCHEDULER] Stopping job scheduler...")
	s.running = false

	// Stop all timers
	for name, timer := range s.timers {
		timer.Stop()
		log.Printf("⏹️  [SCHEDULER] Stopped job: %s", name)
	}
	s.timers = make(map[string]*time.Timer)

	s.mu.Unlock()

	// Cancel context and wait for running jobs
	s.cancel()
	s.wg.Wait()

	log.Println("✅ [SCHEDULER] Job scheduler stopped")
}

// RunNow runs a job immediately, outside its schedule
func (s *JobScheduler) RunNow(name string) error {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job %q not found", name)
	}

	return s.execute(name, job)
}

// GetStatus returns the status of all jobs
func (s *JobScheduler) GetStatus() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := make(map[string]JobStatus)
	for name, job := range s.jobs {
		st := JobStatus{
			Name:        name,
			NextRunTime: job.GetNextRunTime(),
			Registered:  true,
		}
		if rec, ok := s.lastRun[name]; ok {
			at := rec.at
			st.Runs = rec.runs
			st.LastRunAt = &at
			st.LastDuration = rec.duration.String()
			if rec.err != nil {
				st.LastError = rec.err.Error()
			}
		}
		status[name] = st
	}

	return status
}

type runRecord struct {
	at       time.Time
	duration time.Duration
	err      error
	runs     int
}

// JobStatus represents the status of a job
type JobStatus struct {
	Name         string     `json:"name"`
	NextRunTime  time.Time  `json:"next_run_time"`
	Registered   bool       `json:"registered"`
	Runs         int        `json:"runs"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}
