package souqfeed

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrNoIdentity      = errors.New("no signed-in user")
	ErrProfileMissing  = errors.New("user profile not found")
	ErrUploadCancelled = errors.New("upload cancelled")
)

// FailureKind classifies why a submission reached its Failed state.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureTransport  FailureKind = "transport"
	FailureState      FailureKind = "state"
)

// SubmitError is the single terminal failure a submission surfaces. It
// carries the failure kind alongside the causing error.
type SubmitError struct {
	Kind FailureKind
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submission failed (%s): %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func submitFailed(kind FailureKind, err error) *SubmitError {
	return &SubmitError{Kind: kind, Err: err}
}
