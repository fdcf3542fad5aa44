package backend

import (
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport ErrorKind = iota + 1
	// ErrMalformedRequest means the prompt could not be encoded.
	ErrMalformedRequest
	// ErrStatus means the service answered with a non-success status.
	ErrStatus
	// ErrMalformedResponse means the answer could not be decoded or was empty.
	ErrMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport failure"
	case ErrMalformedRequest:
		return "malformed request"
	case ErrStatus:
		return "non-success status"
	case ErrMalformedResponse:
		return "malformed response"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == ErrStatus {
		return fmt.Sprintf("backend: %s %d: %v", e.Kind, e.Status, e.Err)
	}

	return fmt.Sprintf("backend: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) retryable() bool {
	switch e.Kind {
	case ErrTransport:
		return true
	case ErrStatus:
		return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}
