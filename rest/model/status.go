package model

import "github.com/evergreen-ci/utility"

// APIJob reports a queued background job.
type APIJob struct {
	ID   *string `json:"id"`
	Type *string `json:"type"`
}

// NewAPIJob describes the job with the given id and type.
func NewAPIJob(id, jobType string) *APIJob {
	return &APIJob{
		ID:   utility.ToStringPtr(id),
		Type: utility.ToStringPtr(jobType),
	}
}

// APIQueueStats summarizes the background queue.
type APIQueueStats struct {
	Running   int `json:"running"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// APIStatus is the service's build revision and queue state.
type APIStatus struct {
	Revision *string        `json:"revision"`
	Queue    *APIQueueStats `json:"queue,omitempty"`
}
