package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateCode is returned when the same authorization code is already being exchanged
	ErrDuplicateCode = errors.New("authorization code already in flight")
	// ErrFetchInProgress is returned when a page fetch is already running
	ErrFetchInProgress = errors.New("photos fetch already in progress")
	// ErrPhotoNotFound is returned when a like targets a photo that is not in the list
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrCodeSuperseded is returned by an exchange cancelled because a newer code arrived
	ErrCodeSuperseded = errors.New("authorization code superseded by a newer one")
	// ErrFeedReset is returned by a page fetch whose results were dropped because the feed was cleared
	ErrFeedReset = errors.New("feed cleared while fetching")
	// ErrNoToken is returned when an authorized call is made without a stored token
	ErrNoToken = errors.New("authorization token missing")
)

// ErrorKind classifies network failures
type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid_request"
	KindTransport      ErrorKind = "transport"
	KindHTTPStatus     ErrorKind = "http_status"
	KindDecode         ErrorKind = "decode"
)

// NetworkError describes a failed API call
type NetworkError struct {
	Op     string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsKind reports whether err is a NetworkError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var nerr *NetworkError
	return errors.As(err, &nerr) && nerr.Kind == kind
}

// IsSilent reports whether err should not be surfaced to the user
func IsSilent(err error) bool {
	return errors.Is(err, ErrDuplicateCode) || errors.Is(err, ErrFetchInProgress) ||
		errors.Is(err, ErrCodeSuperseded) || errors.Is(err, ErrFeedReset)
}

func newNetworkError(op string, kind ErrorKind, err error) *NetworkError {
	return &NetworkError{Op: op, Kind: kind, Err: err}
}
