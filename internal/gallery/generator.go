package gallery

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrJobPending is returned when a job result is saved before the job has
	// finished.
	ErrJobPending = errors.New("generation job has not finished")

	// ErrNoPayload is returned when a completed job carries no media payload.
	ErrNoPayload = errors.New("generation job completed without a payload")
)

// JobState is the lifecycle state of an asynchronous generation job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// JobError is the error reported by the generation API for a failed job.
type JobError struct {
	Code    string
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Code, e.Message)
}

// JobStatus is the result of polling a generation job.
type JobStatus struct {
	State    JobState
	Payload  Optional[string] // data URL, present once completed and downloaded
	Progress Optional[int]    // percent
	Error    *JobError
}

// Credentials authenticate calls to the generation API.
type Credentials struct {
	APIKey string
}

// GenerateParams describes a generation request.
type GenerateParams struct {
	Kind   Kind
	Prompt string
	Params Params
}

// Generator is the boundary to the external generation API. The gallery core
// never retries failed calls; retry policy belongs to the caller.
type Generator interface {
	// Generate submits a request and returns the encoded payloads it produced
	// synchronously (images) or job ids to poll (videos).
	Generate(ctx context.Context, creds Credentials, params GenerateParams) ([]string, error)

	// CheckStatus polls an asynchronous job.
	CheckStatus(ctx context.Context, creds Credentials, jobID string) (*JobStatus, error)
}
