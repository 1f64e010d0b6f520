package forms

import "tokoadmin/internal/validation"

// SubmitKind classifies a failed submit.
type SubmitKind string

const (
	// ValidationFailure means a field rule failed and nothing was sent.
	ValidationFailure SubmitKind = "ValidationFailure"
	// NetworkFailure means the backend call failed or was rejected.
	NetworkFailure SubmitKind = "NetworkFailure"
)

// SubmitError is returned by Form.Submit. The draft is always left intact.
type SubmitError struct {
	Kind       SubmitKind
	Message    string
	Violations validation.Violations
	Err        error
}

func (e *SubmitError) Error() string {
	if e.Kind == ValidationFailure && len(e.Violations) > 0 {
		return e.Message + ": " + e.Violations.Error()
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if len(e.Violations) > 0 {
		return e.Violations
	}
	return nil
}
