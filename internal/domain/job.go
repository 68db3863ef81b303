package domain

import "time"

// TaskType enumerates supported generation job categories.
type TaskType string

const (
	TaskTypeImageGen  TaskType = "IMAGE_GEN"
	TaskTypeImageEdit TaskType = "IMAGE_EDIT"
	TaskTypeVideoGen  TaskType = "VIDEO_GEN"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job encapsulates the lifecycle of one image or video generation request.
type Job struct {
	ID           string
	TaskType     TaskType
	Status       JobStatus
	PromptJSON   []byte
	Quantity     int
	AspectRatio  string
	Provider     string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
