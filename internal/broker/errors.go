package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenAcquisition matches any TokenAcquisitionError.
	ErrTokenAcquisition = errors.New("token acquisition failed")

	// ErrInvalidRequest matches any InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid brokerage request")

	// ErrPageFetch matches any PageFetchError.
	ErrPageFetch = errors.New("page fetch failed")

	// ErrUpstream matches any UpstreamError.
	ErrUpstream = errors.New("upstream brokerage error")

	// ErrPaginationLimit matches any PaginationLimitExceeded.
	ErrPaginationLimit = errors.New("pagination limit exceeded")
)

// TokenAcquisitionError reports a failure to obtain an access token from a
// secret store or an OAuth token endpoint. Status is 0 when no HTTP response
// was received.
type TokenAcquisitionError struct {
	Source string
	Status int
	Body   string
	Err    error
}

func (e *TokenAcquisitionError) Error() string {
	msg := fmt.Sprintf("acquiring token from %s", e.Source)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d, body: %s", e.Status, e.Body)
	} else if e.Body != "" {
		msg += ": body: " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TokenAcquisitionError) Unwrap() error { return e.Err }

func (e *TokenAcquisitionError) Is(target error) bool { return target == ErrTokenAcquisition }

// InvalidRequestError reports caller-supplied parameters that cannot form a
// valid brokerage request.
type InvalidRequestError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request for %s: %s", e.Operation, e.Reason)
	}
	reason := e.Reason
	if reason == "" {
		reason = "missing required field"
	}
	return fmt.Sprintf("invalid request for %s: %s %s", e.Operation, reason, e.Field)
}

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// PageFetchError reports a non-success status on one page of a paginated
// fetch. Pages are numbered from 1.
type PageFetchError struct {
	Operation string
	Page      int
	Status    int
	Body      string
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("fetching %s page %d: status %d, body: %s", e.Operation, e.Page, e.Status, e.Body)
}

func (e *PageFetchError) Is(target error) bool { return target == ErrPageFetch }

// UpstreamError reports a failed single-shot brokerage call, either a
// non-success HTTP status or a success status carrying a business error code.
type UpstreamError struct {
	Operation string
	Status    int
	Code      string
	Message   string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d, code %s: %s", e.Operation, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Status, e.Message)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// PaginationLimitExceeded reports a paginated fetch that was still being told
// to continue after Limit pages.
type PaginationLimitExceeded struct {
	Operation string
	Limit     int
}

func (e *PaginationLimitExceeded) Error() string {
	return fmt.Sprintf("%s: more than %d pages", e.Operation, e.Limit)
}

func (e *PaginationLimitExceeded) Is(target error) bool { return target == ErrPaginationLimit }
