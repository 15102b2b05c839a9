// Package testing provides fixtures and helpers shared by tests of the
// database and its HTTP layer.
package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/internal/engine"
	"github.com/gcbaptista/colsearch/internal/jobs"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/services"
)

// CreateTestDatabase creates a database in a temporary directory backed by a
// running job manager. Both are released when the test ends.
func CreateTestDatabase(t *testing.T) (*engine.Database, *jobs.Manager) {
	t.Helper()
	manager := jobs.NewManager(2, nil)
	manager.Start()
	t.Cleanup(manager.Stop)

	db := engine.New(engine.Options{DataDir: t.TempDir(), Jobs: manager})
	return db, manager
}

// CreateTestArticles defines the Articles table with a Text content column,
// the Terms bigram lexicon and the Terms.content index over it.
func CreateTestArticles(t *testing.T, db *engine.Database) config.IndexColumnSettings {
	t.Helper()
	_, err := db.DefineTable(config.TableSettings{Name: "Articles"})
	require.NoError(t, err, "Failed to define Articles")
	_, err = db.DefineColumn("Articles", config.ColumnSettings{Name: "content", Type: "Text"})
	require.NoError(t, err, "Failed to define Articles.content")
	_, err = db.DefineTable(config.TableSettings{Name: "Terms", Kind: "hash", DefaultTokenizer: "TokenBigram"})
	require.NoError(t, err, "Failed to define Terms")

	settings := config.IndexColumnSettings{
		Name:         "content",
		Lexicon:      "Terms",
		Range:        "Articles",
		Sources:      []string{"content"},
		WithPosition: true,
	}
	_, err = db.DefineIndexColumn(settings)
	require.NoError(t, err, "Failed to define Terms.content")
	return settings
}

// AddTestArticles writes one Articles record per text and returns their ids.
func AddTestArticles(t *testing.T, db *engine.Database, texts ...string) []model.RecordID {
	t.Helper()
	records := make([]services.RecordInput, len(texts))
	for i, text := range texts {
		records[i] = services.RecordInput{Values: model.Values{"content": text}}
	}
	ids, err := db.PutRecords("Articles", records)
	require.NoError(t, err, "Failed to write test articles")
	return ids
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	}
}

// WaitForJobCompletion polls a job until it completes or times out
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted:
				if opts.LogProgress && job.CompletedAt != nil {
					t.Logf("Job %s completed in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			case model.JobStatusFailed, model.JobStatusCancelled:
				t.Fatalf("Job %s ended with status %s: %s", jobID, job.Status, job.Error)
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s", jobID, job.Progress.Current, job.Progress.Total, job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedTarget string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedTarget, job.Target, "Job target should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// SearchTestCase represents a test case for index searches
type SearchTestCase struct {
	Name          string
	Query         services.SearchQuery
	ExpectedCount int
	ExpectedIDs   []model.RecordID // ids of the returned page, in order
	ValidateFunc  func(t *testing.T, results *services.SearchResult)
}

// RunSearchTests runs a suite of searches against one index column
func RunSearchTests(t *testing.T, indexes services.IndexManager, index string, tests []SearchTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			results, err := indexes.Search(index, tt.Query)
			require.NoError(t, err, "Search should not fail")

			assert.Equal(t, tt.ExpectedCount, results.Total, "Result count should match")

			if tt.ExpectedIDs != nil {
				ids := make([]model.RecordID, len(results.Hits))
				for i, hit := range results.Hits {
					ids[i] = hit.ID
				}
				assert.Equal(t, tt.ExpectedIDs, ids, "Returned ids should match")
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, &results)
			}
		})
	}
}
