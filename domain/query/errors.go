package query

import (
	"errors"
	"fmt"
)

// InvalidParameterError reports an unsupported metric/anchor/period/filter
// combination. Never retried; surfaced to the caller immediately.
type InvalidParameterError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid parameter %q=%q: %s", e.Param, e.Value, e.Reason)
}

// DataUnavailableError reports that the underlying event or user store is
// unreachable or timed out. Eligible for caller-driven retry with backoff.
// It must never be mapped to zero-valued results.
type DataUnavailableError struct {
	Source string // "events", "users", "campaigns"
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// IsInvalidParameter reports whether err is an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var ipe *InvalidParameterError
	return errors.As(err, &ipe)
}

// IsDataUnavailable reports whether err is a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var due *DataUnavailableError
	return errors.As(err, &due)
}

// Unavailable wraps a store error with its source, passing through nil and
// already-wrapped errors unchanged.
func Unavailable(source string, err error) error {
	if err == nil {
		return nil
	}
	if IsDataUnavailable(err) {
		return err
	}
	return &DataUnavailableError{Source: source, Err: err}
}
