package attendance

import "errors"

// ErrAlreadySubmitted signals a duplicate submission for the same uid and
// date. Handlers map it to 409.
var ErrAlreadySubmitted = errors.New("attendance already submitted today")

// ValidationError is a client-correctable rejection of a submission.
// Handlers map it to 400. Validation failures never touch the store.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErr(reason string) error {
	return &ValidationError{Reason: reason}
}
