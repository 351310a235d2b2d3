package sync

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Orchestration-level error taxonomy. Each type carries its own HTTP mapping
// (httpx.HTTPStatusCoder); per-module failures are never surfaced through
// these — they live inside the job's module_results.

// PreconditionError rejects a trigger for a user with no identity profile.
type PreconditionError struct {
	UserID uuid.UUID
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("identity profile not found for user %s", e.UserID)
}
func (e *PreconditionError) HTTPStatusCode() int { return http.StatusPreconditionFailed }

// ConflictError rejects a trigger while another sync is in progress.
type ConflictError struct {
	JobID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.JobID == uuid.Nil {
		return "a sync is already in progress"
	}
	return fmt.Sprintf("a sync is already in progress (job %s)", e.JobID)
}
func (e *ConflictError) HTTPStatusCode() int { return http.StatusConflict }

// RateLimitedError rejects a trigger inside the cooldown window and carries
// the remaining wait.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	secs := int(e.Remaining.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("sync cooldown active, wait %d seconds", secs)
}
func (e *RateLimitedError) HTTPStatusCode() int { return http.StatusTooManyRequests }

// NotFoundError covers missing jobs and profiles on lookups/retries.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
func (e *NotFoundError) HTTPStatusCode() int { return http.StatusNotFound }

// InvalidRetryError rejects a retry of a job that is still running or has
// nothing failed to retry.
type InvalidRetryError struct {
	JobID  uuid.UUID
	Reason string
}

func (e *InvalidRetryError) Error() string {
	return fmt.Sprintf("cannot retry job %s: %s", e.JobID, e.Reason)
}
func (e *InvalidRetryError) HTTPStatusCode() int { return http.StatusBadRequest }
