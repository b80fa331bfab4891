package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/interfaces"
)

// jobEntry tracks registration and execution state for a single job.
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	lastError string
	runCount  int64
	isRunning bool
}

// Service runs registered maintenance jobs on cron schedules.
type Service struct {
	cron    *cron.Cron
	jobs    map[string]*jobEntry
	jobMu   sync.Mutex
	running bool
	logger  arbor.ILogger
}

// NewService creates a scheduler with no registered jobs.
func NewService(logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		cron:   cron.New(),
		jobs:   make(map[string]*jobEntry),
		logger: logger,
	}
}

// RegisterJob adds a named job with a standard 5-field cron schedule.
// Registration is rejected when the name is already taken or the
// schedule does not parse.
func (s *Service) RegisterJob(name, schedule string, fn func() error) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if fn == nil {
		return fmt.Errorf("job %s has no handler", name)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	cronID, err := s.cron.AddFunc(schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}

	s.jobs[name] = &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  fn,
		cronID:   cronID,
	}

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// Start begins executing registered jobs on their schedules.
func (s *Service) Start() error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Int("jobs", len(s.jobs)).
		Msg("Scheduler started")

	return nil
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return
	}
	s.running = false
	s.jobMu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Scheduler stopped")
}

// TriggerJob runs a registered job immediately and returns its error.
func (s *Service) TriggerJob(name string) error {
	s.logger.Info().
		Str("job_name", name).
		Msg("Manually triggering job")

	return s.executeJob(name)
}

// JobStatuses returns the state of every registered job, sorted by name.
func (s *Service) JobStatuses() []interfaces.JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	statuses := make([]interfaces.JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		status := interfaces.JobStatus{
			Name:      entry.name,
			Schedule:  entry.schedule,
			LastRun:   entry.lastRun,
			LastError: entry.lastError,
			RunCount:  entry.runCount,
			Running:   entry.isRunning,
		}
		if next := s.cron.Entry(entry.cronID).Next; !next.IsZero() {
			nextRun := next
			status.NextRun = &nextRun
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses
}

// executeJob wraps a job handler with overlap protection, panic recovery,
// and status bookkeeping. Overlapping runs of the same job are skipped.
func (s *Service) executeJob(name string) (err error) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Debug().
			Str("job_name", name).
			Msg("Skipping run, previous execution still in progress")
		return fmt.Errorf("job %s is already running", name)
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	startTime := time.Now()
	s.logger.Info().
		Str("job_name", name).
		Msg("Job execution started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}

		completed := time.Now()
		s.jobMu.Lock()
		entry.isRunning = false
		entry.lastRun = &completed
		entry.runCount++
		if err != nil {
			entry.lastError = err.Error()
		} else {
			entry.lastError = ""
		}
		s.jobMu.Unlock()

		if err != nil {
			s.logger.Error().
				Str("job_name", name).
				Err(err).
				Dur("duration", time.Since(startTime)).
				Msg("Job execution failed")
		} else {
			s.logger.Info().
				Str("job_name", name).
				Dur("duration", time.Since(startTime)).
				Msg("Job execution completed")
		}
	}()

	err = handler()
	return err
}
