package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a job failed. The scheduler treats all kinds
// identically; the classification only surfaces in outcomes and summaries.
type FailureKind string

const (
	FailureNetwork     FailureKind = "network"
	FailureUnsupported FailureKind = "unsupported"
	FailureLocalIO     FailureKind = "local_io"
	FailureInternal    FailureKind = "internal"
)

// ProcessingError is the error type raised by platform pipelines and
// adapters. It carries the failure kind so a worker can convert it into an
// Outcome without re-parsing messages.
type ProcessingError struct {
	Kind FailureKind
	Err  error
}

func (e *ProcessingError) Error() string {
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NetworkErrorf builds a network/API ProcessingError.
func NetworkErrorf(format string, args ...any) error {
	return &ProcessingError{Kind: FailureNetwork, Err: fmt.Errorf(format, args...)}
}

// UnsupportedErrorf builds an unsupported-content ProcessingError.
func UnsupportedErrorf(format string, args ...any) error {
	return &ProcessingError{Kind: FailureUnsupported, Err: fmt.Errorf(format, args...)}
}

// LocalIOErrorf builds a local I/O ProcessingError.
func LocalIOErrorf(format string, args ...any) error {
	return &ProcessingError{Kind: FailureLocalIO, Err: fmt.Errorf(format, args...)}
}

// InternalErrorf builds an internal ProcessingError.
func InternalErrorf(format string, args ...any) error {
	return &ProcessingError{Kind: FailureInternal, Err: fmt.Errorf(format, args...)}
}

// ClassifyFailure extracts the failure kind from err, defaulting to
// FailureInternal for errors raised outside the pipelines.
func ClassifyFailure(err error) FailureKind {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return FailureInternal
}
