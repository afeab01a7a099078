package app

import (
	"time"

	"gallery-go/internal/gallery"
)

// Operation tracks the CLI command being run. Its ID tags every log line of
// the invocation, and Close logs the outcome and duration.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
	Err       error
}

// NewOperation starts an operation named after the CLI command
// (e.g. "AddVideo", "BackupDB"). The ID is the UTC start time.
func NewOperation(name string, clock gallery.Clock) *Operation {
	now := clock.Now()
	return &Operation{
		ID:        now.UTC().Format("20060102T150405Z"),
		Name:      name,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the operation as failed. Only the first error is kept.
func (op *Operation) Fail(err error) {
	if err == nil {
		return
	}
	op.Status = "error"
	if op.Err == nil {
		op.Err = err
	}
}

// Failed reports whether Fail was called with a non-nil error.
func (op *Operation) Failed() bool {
	return op.Err != nil
}
