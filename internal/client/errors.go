package client

import (
	"errors"
	"fmt"
)

// NetworkError means the request never produced an HTTP response: the
// backend was unreachable, the connection broke, or the call timed out.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError means the backend answered but rejected the call, either with a
// non-2xx status or with a body missing a field the operation needs.
type BackendError struct {
	Op           string
	StatusCode   int
	Message      string
	MissingField string
}

func (e *BackendError) Error() string {
	switch {
	case e.MissingField != "":
		return fmt.Sprintf("%s: response (status %d) missing %s", e.Op, e.StatusCode, e.MissingField)
	case e.Message != "":
		return fmt.Sprintf("%s: backend rejected request (status %d): %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: backend rejected request (status %d)", e.Op, e.StatusCode)
	}
}

var (
	ErrNoToken      = errors.New("no bearer token available")
	ErrTokenExpired = errors.New("bearer token has expired")
)

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsBackend(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// BackendMessage returns the backend-supplied message carried by err, if any.
func BackendMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}
