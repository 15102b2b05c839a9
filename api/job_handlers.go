package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/colsearch/model"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.db.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists jobs, filtered by the target and status query
// parameters when given.
func (api *API) ListJobsHandler(c *gin.Context) {
	target := c.Query("target")
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobs := api.db.ListJobs(target, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"target": target,
		"total":  len(jobs),
	})
}

// ReindexHandler starts rebuilding an index column from its sources.
func (api *API) ReindexHandler(c *gin.Context) {
	index := c.Param("index")

	jobID, err := api.db.ReindexAsync(index)
	if err != nil {
		if _, lookupErr := api.db.IndexStats(index); lookupErr != nil {
			SendEngineError(c, "reindex", lookupErr)
			return
		}
		api.logger.Warn("reindex job not started", "index", index, "error", err)
		SendJobExecutionError(c, "reindex", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Reindexing started for '" + index + "'",
		"job_id":  jobID,
	})
}

// SaveSnapshotHandler starts writing a snapshot of the whole database.
func (api *API) SaveSnapshotHandler(c *gin.Context) {
	jobID, err := api.db.SaveAsync()
	if err != nil {
		api.logger.Warn("snapshot job not started", "error", err)
		SendJobExecutionError(c, "save snapshot", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Snapshot save started",
		"job_id":  jobID,
	})
}
