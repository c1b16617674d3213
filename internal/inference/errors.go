package inference

import (
	"errors"
	"fmt"
)

// ErrService matches every failed inference call via errors.Is.
var ErrService = errors.New("inference: service error")

// ServiceError describes a non-success response, an error body, or a
// response that could not be decoded.
type ServiceError struct {
	Op         string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("inference: %s %s: status %d: %s", e.Op, e.Model, e.StatusCode, msg)
	}
	return fmt.Sprintf("inference: %s %s: %s", e.Op, e.Model, msg)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is reports ErrService so callers do not need errors.As for the common check.
func (e *ServiceError) Is(target error) bool { return target == ErrService }
