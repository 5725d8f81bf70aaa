package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned when the access token was rejected and could
	// not be renewed. The token store has been cleared when this is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrNetwork is returned when no response was received.
	ErrNetwork = errors.New("network error")

	// ErrRequestFailed is returned when the backend rejected the request.
	ErrRequestFailed = errors.New("request failed")

	// ErrUnexpectedShape is returned when a list endpoint answers with neither
	// an array nor an object holding a results array.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// RequestFailedError carries the status and the human readable reason the
// backend gave for rejecting a request.
type RequestFailedError struct {
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error { return ErrRequestFailed }

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", ErrNetwork.Error(), e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// Failure classifies an error returned by the client.
type Failure int

const (
	FailureNone Failure = iota
	FailureSessionExpired
	FailureRequest
	FailureNetwork
	FailureUnknown
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureSessionExpired:
		return "session_expired"
	case FailureRequest:
		return "request_failed"
	case FailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify maps err onto the client's failure taxonomy.
func Classify(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrSessionExpired):
		return FailureSessionExpired
	case errors.Is(err, ErrRequestFailed):
		return FailureRequest
	case errors.Is(err, ErrNetwork):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// Status returns the HTTP status of a RequestFailedError, or 0.
func Status(err error) int {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}
