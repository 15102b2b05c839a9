package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/colsearch/model"
)

// StatsData is a point-in-time copy of job counters
type StatsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	Workload             int64                     `json:"workload"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// Stats counts jobs in process. Prometheus carries the same events as
// counters; Stats backs the JSON job summary.
type Stats struct {
	mu                 sync.RWMutex
	created            int64
	completed          int64
	failed             int64
	totalExecutionTime time.Duration
	byType             map[model.JobType]int64
	byStatus           map[model.JobStatus]int64
	lastUpdated        time.Time
}

func NewStats() *Stats {
	return &Stats{
		byType:      make(map[model.JobType]int64),
		byStatus:    make(map[model.JobStatus]int64),
		lastUpdated: time.Now(),
	}
}

func (s *Stats) recordCreated(jobType model.JobType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	s.byType[jobType]++
	s.byStatus[model.JobStatusPending]++
	s.lastUpdated = time.Now()
}

func (s *Stats) recordStatusChange(oldStatus, newStatus model.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oldStatus != "" && s.byStatus[oldStatus] > 0 {
		s.byStatus[oldStatus]--
	}
	s.byStatus[newStatus]++
	s.lastUpdated = time.Now()
}

func (s *Stats) recordCompleted(_ model.JobType, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	s.totalExecutionTime += elapsed
	s.lastUpdated = time.Now()
}

func (s *Stats) recordFailed(_ model.JobType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	s.lastUpdated = time.Now()
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[model.JobType]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	byStatus := make(map[model.JobStatus]int64, len(s.byStatus))
	for k, v := range s.byStatus {
		byStatus[k] = v
	}
	var average time.Duration
	if s.completed > 0 {
		average = s.totalExecutionTime / time.Duration(s.completed)
	}
	return StatsData{
		JobsCreated:          s.created,
		JobsCompleted:        s.completed,
		JobsFailed:           s.failed,
		AverageExecutionTime: average,
		JobsByType:           byType,
		JobsByStatus:         byStatus,
		Workload:             s.byStatus[model.JobStatusPending] + s.byStatus[model.JobStatusRunning],
		LastUpdated:          s.lastUpdated,
	}
}

// SuccessRate is completed / (completed + failed), or 1 with no finished jobs.
func (d StatsData) SuccessRate() float64 {
	finished := d.JobsCompleted + d.JobsFailed
	if finished == 0 {
		return 1.0
	}
	return float64(d.JobsCompleted) / float64(finished)
}
