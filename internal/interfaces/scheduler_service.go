package interfaces

import "time"

// JobStatus tracks the execution state of a scheduled maintenance job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	RunCount  int64      `json:"run_count"`
	Running   bool       `json:"running"`
}

// SchedulerService manages recurring maintenance jobs
type SchedulerService interface {
	// RegisterJob adds a named job with a cron schedule
	RegisterJob(name, schedule string, fn func() error) error

	// Start begins executing registered jobs
	Start() error

	// Stop halts the scheduler and waits for running jobs
	Stop()

	// TriggerJob runs a registered job immediately
	TriggerJob(name string) error

	// JobStatuses returns the current state of all registered jobs
	JobStatuses() []JobStatus
}
