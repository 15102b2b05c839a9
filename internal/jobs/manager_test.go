package jobs

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/metrics"
	"github.com/gcbaptista/colsearch/model"
)

func waitFor(t *testing.T, manager *Manager, jobID string) *model.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := manager.Wait(ctx, jobID)
	if err != nil {
		t.Fatalf("Failed waiting for job %s: %v", jobID, err)
	}
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeReindex, "Terms.content", map[string]string{
		"operation": "test",
	})

	if jobID == "" {
		t.Error("Expected non-empty job ID")
	}

	job, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get created job: %v", err)
	}

	if job.Type != model.JobTypeReindex {
		t.Errorf("Expected job type %s, got %s", model.JobTypeReindex, job.Type)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("Expected job status %s, got %s", model.JobStatusPending, job.Status)
	}
	if job.Target != "Terms.content" {
		t.Errorf("Expected target 'Terms.content', got %s", job.Target)
	}
}

func TestJobManager_GetUnknownJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	_, err := manager.GetJob("missing")
	if !stdErrors.Is(err, errors.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
	if err := manager.ExecuteJob("missing", func(context.Context, *model.Job) error { return nil }); !stdErrors.Is(err, errors.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2, metrics.New())
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeReindex, "Terms.content", nil)

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		manager.UpdateJobProgress(jobID, 50, 100, "Halfway done")
		time.Sleep(10 * time.Millisecond)
		manager.UpdateJobProgress(jobID, 100, 100, "Completed")
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	job := waitFor(t, manager, jobID)
	if job.Status != model.JobStatusCompleted {
		t.Errorf("Expected job status %s, got %s", model.JobStatusCompleted, job.Status)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("Expected start and completion times to be set")
	}
	if job.Progress == nil {
		t.Fatal("Expected job progress to be set")
	}
	if job.Progress.Current != 100 || job.Progress.Total != 100 {
		t.Errorf("Expected progress 100/100, got %d/%d", job.Progress.Current, job.Progress.Total)
	}
	if pct := job.Progress.GetProgressPercentage(); pct != 100 {
		t.Errorf("Expected 100%%, got %v", pct)
	}

	// a job runs only once
	if err := manager.ExecuteJob(jobID, func(context.Context, *model.Job) error { return nil }); err == nil {
		t.Error("Expected error when executing a finished job")
	}
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeSaveSnapshot, "", nil)
	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return stdErrors.New("disk full")
	})
	if err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	job := waitFor(t, manager, jobID)
	if job.Status != model.JobStatusFailed {
		t.Errorf("Expected job status %s, got %s", model.JobStatusFailed, job.Status)
	}
	if job.Error != "disk full" {
		t.Errorf("Expected error 'disk full', got %q", job.Error)
	}

	stats := manager.Stats()
	if stats.JobsFailed != 1 || stats.JobsCreated != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.SuccessRate() != 0 {
		t.Errorf("Expected success rate 0, got %v", stats.SuccessRate())
	}
	if stats.Workload != 0 {
		t.Errorf("Expected no workload, got %d", stats.Workload)
	}
}

func TestJobManager_ListAndCleanup(t *testing.T) {
	manager := NewManager(2, nil)
	defer manager.Stop()

	first := manager.CreateJob(model.JobTypeReindex, "Terms.content", nil)
	manager.CreateJob(model.JobTypeReindex, "Tags.index", nil)

	if got := len(manager.ListJobs("Terms.content", nil)); got != 1 {
		t.Errorf("Expected 1 job for Terms.content, got %d", got)
	}
	if got := len(manager.ListJobs("", nil)); got != 2 {
		t.Errorf("Expected 2 jobs in total, got %d", got)
	}

	if err := manager.ExecuteJob(first, func(context.Context, *model.Job) error { return nil }); err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}
	waitFor(t, manager, first)

	completed := model.JobStatusCompleted
	if got := len(manager.ListJobs("", &completed)); got != 1 {
		t.Errorf("Expected 1 completed job, got %d", got)
	}

	if cleaned := manager.CleanupOldJobs(0); cleaned != 1 {
		t.Errorf("Expected 1 job cleaned up, got %d", cleaned)
	}
	if _, err := manager.GetJob(first); !stdErrors.Is(err, errors.ErrJobNotFound) {
		t.Errorf("Expected cleaned job to be gone, got %v", err)
	}
}

func TestJobManager_StopCancelsContext(t *testing.T) {
	manager := NewManager(1, nil)

	jobID := manager.CreateJob(model.JobTypeReindex, "Terms.content", nil)
	started := make(chan struct{})
	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	<-started
	manager.Stop()
	manager.Stop()

	job, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.Status != model.JobStatusFailed {
		t.Errorf("Expected cancelled job to fail, got %s", job.Status)
	}
}
