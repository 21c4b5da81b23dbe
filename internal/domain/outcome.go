package domain

import (
	"time"
)

// ErrorCode classifies why a source failed validation. Empty means the
// probe completed without error.
type ErrorCode string

const (
	// ErrCodeHeadFailed means the HEAD probe returned status >= 400.
	ErrCodeHeadFailed ErrorCode = "HEAD_FAILED"

	// ErrCodeInvalidSourceHTML means a probe returned an HTML content-type,
	// i.e. the source is serving an error or login page instead of media.
	ErrCodeInvalidSourceHTML ErrorCode = "INVALID_SOURCE_HTML"

	// ErrCodeRangeFailed means the range GET returned a status other than 200/206.
	ErrCodeRangeFailed ErrorCode = "RANGE_FAILED"

	// ErrCodeNotMP4 means range bytes were retrieved but no ftyp marker was found.
	ErrCodeNotMP4 ErrorCode = "INVALID_SOURCE_NOT_MP4"

	// ErrCodeSourceCheckError covers everything else: timeout, DNS or
	// connection failure, malformed response.
	ErrCodeSourceCheckError ErrorCode = "SOURCE_CHECK_ERROR"
)

// Outcome is the immutable result of one source validation probe.
// Exactly one of Valid or ErrorCode holds at completion: a probe either
// finishes valid or stops at a specific failure, never both, never neither.
type Outcome struct {
	SourceURL     string
	FinalURL      string
	CorrelationID string

	HeadStatus  *int
	RangeStatus *int

	ContentType       string
	AcceptRanges      string
	RangeContentRange string
	ContentLength     *int64

	HasFtyp    bool
	FtypOffset *int

	// ResolvedAddrs holds the addresses from the DNS preflight, when enabled.
	ResolvedAddrs []string

	Valid        bool
	ErrorCode    ErrorCode
	ErrorMessage string

	CheckedAt  time.Time
	DurationMs int64
}

// Failed reports whether the probe stopped at an error.
func (o *Outcome) Failed() bool {
	return o.ErrorCode != ""
}
