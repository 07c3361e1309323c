package api

import (
	"montage/internal/jobs"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobSummary describes a video job in a transport-friendly format. Progress,
// result, and error are always present so clients can poll one stable shape;
// absent values serialize as null.
type JobSummary struct {
	JobID     string          `json:"jobId"`
	Status    string          `json:"status"`
	VideoID   string          `json:"videoId"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Progress  map[string]any  `json:"progress"`
	Result    *jobs.Result    `json:"result"`
	Error     *jobs.ErrorInfo `json:"error"`
}

// FromJob converts a stored job into its API summary.
func FromJob(job *jobs.Job) JobSummary {
	return JobSummary{
		JobID:     job.ID,
		Status:    string(job.Status),
		VideoID:   job.Request.VideoID,
		CreatedAt: job.CreatedAt.Format(dateTimeFormat),
		UpdatedAt: job.UpdatedAt.Format(dateTimeFormat),
		Progress:  job.Progress,
		Result:    job.Result,
		Error:     job.Error,
	}
}

// FromJobs converts a job slice preserving order.
func FromJobs(items []*jobs.Job) []JobSummary {
	summaries := make([]JobSummary, 0, len(items))
	for _, job := range items {
		summaries = append(summaries, FromJob(job))
	}
	return summaries
}

// MergeJobStats flattens status counts keyed by status string and adds a
// total across all statuses.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	merged := make(map[string]int, len(stats)+1)
	total := 0
	for _, status := range jobs.AllStatuses() {
		count := stats[status]
		merged[string(status)] = count
		total += count
	}
	merged["total"] = total
	return merged
}

// ErrorResponse is the body returned with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// StatusResponse summarizes daemon state for operators.
type StatusResponse struct {
	Running      bool               `json:"running"`
	JobStats     map[string]int     `json:"jobStats"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus captures availability of an external tool.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}
