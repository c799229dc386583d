package feed

import "fmt"

// ErrorType classifies channel poll failures for severity-aware logging
// and retry decisions.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeParse       ErrorType = "parse_error"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// PollError represents a classified channel polling failure.
type PollError struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *PollError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("channel poll %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("channel poll %s: %s for %s", e.Type, e.Cause, e.URL)
}

func (e *PollError) Unwrap() error { return e.Cause }

// Transient reports whether the failure is worth retrying with backoff.
// Network failures, upstream 5xx responses, and rate limiting are
// transient; client errors and parse failures are permanent.
func (e *PollError) Transient() bool {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeUpstream, ErrTypeRateLimited:
		return true
	default:
		return false
	}
}

// HTTP status code boundaries for classification.
const (
	statusForbidden       = 403
	statusNotFound        = 404
	statusGone            = 410
	statusTooManyRequests = 429
	statusServerErrorLow  = 500
	statusServerErrorHigh = 599
)

// ClassifyHTTPStatus creates a PollError from an HTTP status code.
func ClassifyHTTPStatus(statusCode int, url string) *PollError {
	cause := fmt.Errorf("HTTP %d", statusCode)

	switch {
	case statusCode == statusTooManyRequests:
		return &PollError{Type: ErrTypeRateLimited, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode == statusForbidden:
		return &PollError{Type: ErrTypeForbidden, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode == statusNotFound:
		return &PollError{Type: ErrTypeNotFound, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode == statusGone:
		return &PollError{Type: ErrTypeGone, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode >= statusServerErrorLow && statusCode <= statusServerErrorHigh:
		return &PollError{Type: ErrTypeUpstream, StatusCode: statusCode, URL: url, Cause: cause}
	default:
		return &PollError{Type: ErrTypeUnexpected, StatusCode: statusCode, URL: url, Cause: cause}
	}
}

// ClassifyNetworkError creates a PollError for network-level failures
// (DNS, timeout, connection reset).
func ClassifyNetworkError(cause error, url string) *PollError {
	return &PollError{Type: ErrTypeNetwork, URL: url, Cause: cause}
}

// ClassifyParseError creates a PollError for feed parsing failures.
func ClassifyParseError(cause error, url string) *PollError {
	return &PollError{Type: ErrTypeParse, URL: url, Cause: cause}
}
