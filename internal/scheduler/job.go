package scheduler

import (
	"context"
	"time"
)

// historyCap bounds how many results are retained per job
const historyCap = 100

// Job is a unit of scheduled background work
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "0 0 * * * *" (top of every hour)
	//           "@daily", "@hourly"
	Schedule() string
}

// JobResult records one job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent execution results for one job and
// tracks the success count incrementally so rate queries stay O(1).
type JobHistory struct {
	Results   []JobResult
	successes int
}

// AddResult appends a result, evicting the oldest past historyCap
func (h *JobHistory) AddResult(result JobResult) {
	if result.Success {
		h.successes++
	}

	h.Results = append(h.Results, result)
	if len(h.Results) > historyCap {
		if h.Results[0].Success {
			h.successes--
		}
		h.Results = h.Results[1:]
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}

	if n == 0 {
		return []JobResult{}
	}

	return h.Results[len(h.Results)-n:]
}

// SuccessCount returns how many retained runs succeeded
func (h *JobHistory) SuccessCount() int {
	return h.successes
}

// FailureCount returns how many retained runs failed
func (h *JobHistory) FailureCount() int {
	return len(h.Results) - h.successes
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	return float64(h.successes) / float64(len(h.Results))
}
