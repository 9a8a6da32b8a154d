package api

import "time"

type CreateJobResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	JobID          string     `json:"job_id"`
	TaskIdentifier string     `json:"task_identifier"`
	Payload        any        `json:"payload"`
	Flags          []string   `json:"flags"`
	Priority       int16      `json:"priority"`
	RunAt          time.Time  `json:"run_at"`
	Attempts       int        `json:"attempts"`
	MaxAttempts    int        `json:"max_attempts"`
	LastError      *string    `json:"last_error,omitempty"`
	LockedBy       *string    `json:"locked_by,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}
