package credit

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput means raw attributes had the wrong shape to be scored at all.
	ErrMalformedInput = errors.New("MALFORMED_SCORING_INPUT")

	// ErrAssessmentUnavailable means the data needed for an assessment could not be
	// fetched. No score is produced in that case.
	ErrAssessmentUnavailable = errors.New("ASSESSMENT_UNAVAILABLE")
)

// AssessmentUnavailableError names the collaborator whose fetch failed.
type AssessmentUnavailableError struct {
	Source string
	Err    error
}

func (e *AssessmentUnavailableError) Error() string {
	return fmt.Sprintf("assessment unavailable: %s: %v", e.Source, e.Err)
}

func (e *AssessmentUnavailableError) Unwrap() []error {
	return []error{ErrAssessmentUnavailable, e.Err}
}

// Unavailable wraps a fetch failure from source. A nil err stays nil.
func Unavailable(source string, err error) error {
	if err == nil {
		return nil
	}
	return &AssessmentUnavailableError{Source: source, Err: err}
}
