package domain

import (
	"time"
)

// CheckID is a unique identifier for a source check.
type CheckID string

// String returns the string representation of the CheckID.
func (id CheckID) String() string {
	return string(id)
}

// CheckStatus represents the current processing state of a check.
type CheckStatus string

const (
	CheckStatusPending   CheckStatus = "pending"
	CheckStatusRunning   CheckStatus = "running"
	CheckStatusCompleted CheckStatus = "completed"
	CheckStatusFailed    CheckStatus = "failed"
)

// Check represents one requested validation of a remote video source.
// Outcome is nil until the probe has run. A check whose probe completed
// with an error code is still "completed" - the outcome records the failure.
// CheckStatusFailed is reserved for infrastructure faults (the probe never
// produced an outcome, e.g. the store rejected the write).
type Check struct {
	ID            CheckID
	SourceURL     string
	CorrelationID string
	Status        CheckStatus
	Outcome       *Outcome
	Error         string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}
