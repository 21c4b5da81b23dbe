package repository

import (
	"context"

	"github.com/iconidentify/vidgate/internal/domain"
)

// CheckRepository handles check and outcome persistence.
type CheckRepository interface {
	// Create stores a newly submitted check.
	Create(ctx context.Context, check *domain.Check) error

	// SaveOutcome records the probe outcome and final status for a check.
	SaveOutcome(ctx context.Context, check *domain.Check) error

	// UpdateStatus changes check status.
	UpdateStatus(ctx context.Context, id domain.CheckID, status domain.CheckStatus, errMsg string) error

	// Get retrieves a check by ID.
	Get(ctx context.Context, id domain.CheckID) (*domain.Check, error)

	// GetByCorrelationID retrieves the most recent check for a correlation ID.
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Check, error)

	// List returns checks newest first, optionally filtered by status.
	List(ctx context.Context, status *domain.CheckStatus, limit, offset int) ([]*domain.Check, error)

	// Count returns the number of checks, optionally filtered by status.
	Count(ctx context.Context, status *domain.CheckStatus) (int, error)

	// CountValid returns the number of checks whose source validated.
	CountValid(ctx context.Context) (int, error)

	// Delete removes a check.
	Delete(ctx context.Context, id domain.CheckID) error
}

// JobRepository manages the job queue.
type JobRepository interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue retrieves the next pending job (FIFO).
	Dequeue(ctx context.Context) (*domain.Job, error)

	// Update modifies job state.
	Update(ctx context.Context, job *domain.Job) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id domain.JobID) (*domain.Job, error)

	// GetByCheckID finds the job associated with a check.
	GetByCheckID(ctx context.Context, checkID domain.CheckID) (*domain.Job, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)
}

// QueueStats contains job queue statistics.
type QueueStats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Retrying   int `json:"retrying"`
}
