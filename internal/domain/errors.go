package domain

import "errors"

// Domain errors.
var (
	// ErrCheckNotFound is returned when a check cannot be found.
	ErrCheckNotFound = errors.New("check not found")

	// ErrJobNotFound is returned when a job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobs is returned when there are no jobs to process.
	ErrNoJobs = errors.New("no jobs available")

	// ErrInvalidSourceURL is returned when the source URL is not an
	// absolute http(s) URL.
	ErrInvalidSourceURL = errors.New("invalid source URL")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// CheckError wraps an error with check context.
type CheckError struct {
	CheckID CheckID
	Op      string
	Err     error
}

func (e *CheckError) Error() string {
	if e.CheckID != "" {
		return e.Op + " [" + e.CheckID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// NewCheckError creates a new CheckError.
func NewCheckError(checkID CheckID, op string, err error) *CheckError {
	return &CheckError{
		CheckID: checkID,
		Op:      op,
		Err:     err,
	}
}
