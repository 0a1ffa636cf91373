package appraisal

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrCycleNotFound    = errors.New("appraisal cycle not found")
	ErrReviewNotFound   = errors.New("pm review not found")
	ErrRatingNotFound   = errors.New("pm rating not found")

	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrDuplicateCycle         = errors.New("an appraisal already exists for this employee and year")
	ErrDuplicateReview        = errors.New("this project manager is already assigned to the appraisal")
	ErrDuplicateClarification = errors.New("a clarification was already submitted for this rating")
	ErrNotEmployee            = errors.New("user does not hold the EMPLOYEE role")
	ErrNotAppraisable         = errors.New("a boss is never an appraisal subject")
	ErrNotProjectManager      = errors.New("user does not hold the PROJECT_MANAGER role")
	ErrReviewAlreadySubmitted = errors.New("pm review is already submitted")
	ErrCycleClosed            = errors.New("appraisal is already closed")

	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// RuleError reports an action the workflow does not allow from the cycle's current status.
type RuleError struct {
	Status Status
	Action Action
}

func (e *RuleError) Error() string {
	switch {
	case e.Status == StatusClosed:
		return "appraisal is already closed"
	case e.Action == ActionFinalize:
		return fmt.Sprintf("appraisal is not ready for boss review; current status: %s", e.Status)
	default:
		return fmt.Sprintf("cannot %s while appraisal is %s", e.Action, e.Status)
	}
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidTransition
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
