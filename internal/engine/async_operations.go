package engine

import (
	"context"
	"fmt"

	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/model"
)

// ReindexAsync rebuilds an index column from its sources in a background
// job and returns the job id.
func (db *Database) ReindexAsync(name string) (string, error) {
	if db.jobs == nil {
		return "", fmt.Errorf("background jobs are not enabled")
	}
	column, err := db.IndexColumn(name)
	if err != nil {
		return "", err
	}

	jobID := db.jobs.CreateJob(model.JobTypeReindex, name, map[string]string{
		"operation": "reindex",
	})

	err = db.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		db.jobs.UpdateJobProgress(jobID, 0, 1, "Rebuilding postings")
		if err := column.Rebuild(ctx); err != nil {
			return err
		}
		stats := column.Stats()
		db.jobs.UpdateJobProgress(jobID, 1, 1, fmt.Sprintf("Indexed %d postings for %d terms", stats.Postings, stats.Terms))
		db.logger.Info("index rebuilt", "index", name, "terms", stats.Terms, "postings", stats.Postings)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start reindex job: %w", err)
	}
	return jobID, nil
}

// SaveAsync writes a snapshot in a background job and returns the job id.
func (db *Database) SaveAsync() (string, error) {
	if db.jobs == nil {
		return "", fmt.Errorf("background jobs are not enabled")
	}

	jobID := db.jobs.CreateJob(model.JobTypeSaveSnapshot, db.SnapshotPath(), map[string]string{
		"operation":  "save_snapshot",
		"compressed": fmt.Sprintf("%t", db.compress),
	})

	err := db.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return db.Save()
	})
	if err != nil {
		return "", fmt.Errorf("failed to start save job: %w", err)
	}
	return jobID, nil
}

// GetJob returns a copy of the job with the given id.
func (db *Database) GetJob(jobID string) (*model.Job, error) {
	if db.jobs == nil {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return db.jobs.GetJob(jobID)
}

// ListJobs lists jobs, optionally filtered by target and status.
func (db *Database) ListJobs(target string, status *model.JobStatus) []*model.Job {
	if db.jobs == nil {
		return []*model.Job{}
	}
	return db.jobs.ListJobs(target, status)
}
