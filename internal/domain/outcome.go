package domain

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a backend tier did not produce artifacts.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	// ReasonNotFound means the resource has nothing we can extract.
	ReasonNotFound
	// ReasonUnrecognized means the post kind has no known downloader.
	ReasonUnrecognized
	// ReasonBackend is any unexpected network, parsing or tool failure.
	ReasonBackend
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotFound:
		return "not found"
	case ReasonUnrecognized:
		return "unrecognized media kind"
	case ReasonBackend:
		return "backend failure"
	}
	return fmt.Sprintf("FailureReason(%d)", int(r))
}

// Outcome is the result of one backend tier.
type Outcome struct {
	Reason FailureReason
	Err    error
}

// Success is the outcome of a tier that populated its directory.
func Success() Outcome {
	return Outcome{}
}

// Failure builds a failed outcome.
func Failure(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// OK reports whether the tier succeeded.
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// AsError describes the failure, wrapping the underlying error.
func (o Outcome) AsError() error {
	if o.OK() {
		return nil
	}
	if o.Err == nil {
		return errors.New(o.Reason.String())
	}
	return fmt.Errorf("%s: %w", o.Reason, o.Err)
}
