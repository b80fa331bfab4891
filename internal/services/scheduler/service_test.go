package scheduler

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func newTestScheduler() *Service {
	return NewService(arbor.NewLogger()).(*Service)
}

func noopJob() error { return nil }

func TestRegisterJobValidation(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		schedule string
		fn       func() error
		wantErr  string
	}{
		{
			name:     "valid job",
			jobName:  "store-gc",
			schedule: "0 * * * *",
			fn:       noopJob,
		},
		{
			name:     "empty name",
			jobName:  "",
			schedule: "0 * * * *",
			fn:       noopJob,
			wantErr:  "name is required",
		},
		{
			name:     "nil handler",
			jobName:  "broken",
			schedule: "0 * * * *",
			wantErr:  "no handler",
		},
		{
			name:     "invalid schedule",
			jobName:  "bad-schedule",
			schedule: "not a cron",
			fn:       noopJob,
			wantErr:  "invalid schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestScheduler()
			err := service.RegisterJob(tt.jobName, tt.schedule, tt.fn)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("RegisterJob() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("RegisterJob() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("RegisterJob() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterJobRejectsDuplicate(t *testing.T) {
	service := newTestScheduler()

	if err := service.RegisterJob("store-gc", "0 * * * *", noopJob); err != nil {
		t.Fatalf("first RegisterJob() error = %v", err)
	}
	err := service.RegisterJob("store-gc", "*/5 * * * *", noopJob)
	if err == nil {
		t.Fatal("duplicate RegisterJob() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate RegisterJob() error = %q, want substring %q", err, "already registered")
	}
}

func TestTriggerJobRunsHandler(t *testing.T) {
	service := newTestScheduler()

	var runs int32
	err := service.RegisterJob("corpus-stats", "*/15 * * * *", func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}

	if err := service.TriggerJob("corpus-stats"); err != nil {
		t.Fatalf("TriggerJob() error = %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Fatalf("handler ran %d times, want 1", got)
	}

	statuses := service.JobStatuses()
	if len(statuses) != 1 {
		t.Fatalf("JobStatuses() returned %d entries, want 1", len(statuses))
	}
	status := statuses[0]
	if status.Name != "corpus-stats" {
		t.Errorf("status.Name = %q, want %q", status.Name, "corpus-stats")
	}
	if status.Schedule != "*/15 * * * *" {
		t.Errorf("status.Schedule = %q, want %q", status.Schedule, "*/15 * * * *")
	}
	if status.RunCount != 1 {
		t.Errorf("status.RunCount = %d, want 1", status.RunCount)
	}
	if status.LastRun == nil {
		t.Error("status.LastRun = nil, want timestamp")
	}
	if status.LastError != "" {
		t.Errorf("status.LastError = %q, want empty", status.LastError)
	}
	if status.Running {
		t.Error("status.Running = true, want false")
	}
}

func TestTriggerJobNotFound(t *testing.T) {
	service := newTestScheduler()

	err := service.TriggerJob("missing")
	if err == nil {
		t.Fatal("TriggerJob() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("TriggerJob() error = %q, want substring %q", err, "not found")
	}
}

func TestTriggerJobReportsHandlerError(t *testing.T) {
	service := newTestScheduler()

	jobErr := errors.New("value log gc failed")
	fail := true
	err := service.RegisterJob("store-gc", "0 * * * *", func() error {
		if fail {
			return jobErr
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}

	if err := service.TriggerJob("store-gc"); !errors.Is(err, jobErr) {
		t.Fatalf("TriggerJob() error = %v, want %v", err, jobErr)
	}
	if got := service.JobStatuses()[0].LastError; got != jobErr.Error() {
		t.Errorf("status.LastError = %q, want %q", got, jobErr.Error())
	}

	// A later clean run clears the recorded error.
	fail = false
	if err := service.TriggerJob("store-gc"); err != nil {
		t.Fatalf("second TriggerJob() error = %v", err)
	}
	status := service.JobStatuses()[0]
	if status.LastError != "" {
		t.Errorf("status.LastError after clean run = %q, want empty", status.LastError)
	}
	if status.RunCount != 2 {
		t.Errorf("status.RunCount = %d, want 2", status.RunCount)
	}
}

func TestTriggerJobRecoversPanic(t *testing.T) {
	service := newTestScheduler()

	err := service.RegisterJob("unstable", "0 * * * *", func() error {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}

	err = service.TriggerJob("unstable")
	if err == nil {
		t.Fatal("TriggerJob() error = nil, want panic error")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("TriggerJob() error = %q, want substring %q", err, "panicked")
	}

	status := service.JobStatuses()[0]
	if !strings.Contains(status.LastError, "boom") {
		t.Errorf("status.LastError = %q, want substring %q", status.LastError, "boom")
	}
	if status.RunCount != 1 {
		t.Errorf("status.RunCount = %d, want 1", status.RunCount)
	}
	if status.Running {
		t.Error("status.Running = true after panic, want false")
	}
}

func TestTriggerJobSkipsOverlappingRun(t *testing.T) {
	service := newTestScheduler()

	release := make(chan struct{})
	err := service.RegisterJob("slow", "0 * * * *", func() error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- service.TriggerJob("slow")
	}()

	deadline := time.After(2 * time.Second)
	for !service.JobStatuses()[0].Running {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for job to start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	err = service.TriggerJob("slow")
	if err == nil {
		t.Fatal("overlapping TriggerJob() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("overlapping TriggerJob() error = %q, want substring %q", err, "already running")
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocked TriggerJob() returned error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to finish")
	}

	if got := service.JobStatuses()[0].RunCount; got != 1 {
		t.Errorf("status.RunCount = %d, want 1 (skipped run must not count)", got)
	}
}

func TestJobStatusesSortedWithNextRun(t *testing.T) {
	service := newTestScheduler()

	if err := service.RegisterJob("store-gc", "0 * * * *", noopJob); err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}
	if err := service.RegisterJob("corpus-stats", "*/15 * * * *", noopJob); err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}

	// Before Start the cron has not computed any next run times.
	for _, status := range service.JobStatuses() {
		if status.NextRun != nil {
			t.Errorf("status.NextRun for %s = %v before Start, want nil", status.Name, status.NextRun)
		}
	}

	if err := service.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer service.Stop()

	statuses := service.JobStatuses()
	if len(statuses) != 2 {
		t.Fatalf("JobStatuses() returned %d entries, want 2", len(statuses))
	}
	if statuses[0].Name != "corpus-stats" || statuses[1].Name != "store-gc" {
		t.Errorf("statuses sorted as [%s, %s], want [corpus-stats, store-gc]", statuses[0].Name, statuses[1].Name)
	}
	for _, status := range statuses {
		if status.NextRun == nil {
			t.Errorf("status.NextRun for %s = nil after Start, want timestamp", status.Name)
			continue
		}
		if !status.NextRun.After(time.Now().Add(-time.Second)) {
			t.Errorf("status.NextRun for %s = %v, want future time", status.Name, status.NextRun)
		}
	}
}

func TestStartTwiceFails(t *testing.T) {
	service := newTestScheduler()

	if err := service.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer service.Stop()

	err := service.Start()
	if err == nil {
		t.Fatal("second Start() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Start() error = %q, want substring %q", err, "already running")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	service := newTestScheduler()

	// Stop before Start is a no-op.
	service.Stop()

	if err := service.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	service.Stop()
	service.Stop()

	// The scheduler can be started again after stopping.
	if err := service.Start(); err != nil {
		t.Fatalf("restart Start() error = %v", err)
	}
	service.Stop()
}
