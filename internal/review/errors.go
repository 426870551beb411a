package review

import (
	"errors"
	"fmt"

	"github.com/roasbeef/scrutiny/internal/llm"
)

var (
	// ErrInputInvalid is returned when a submission is rejected before
	// any processing: oversized file, unsupported language, empty
	// content.
	ErrInputInvalid = errors.New("invalid review input")

	// ErrAIUnavailable is returned when the AI provider could not be
	// reached at all on the full path. Unlike a malformed response, a
	// transport failure fails the review.
	ErrAIUnavailable = errors.New("ai provider unavailable")

	// ErrReviewFailed is returned when the pipeline aborted for an
	// internal reason.
	ErrReviewFailed = errors.New("review failed")

	// ErrInvalidTransition is returned by the state machine when an
	// event arrives in a state that does not accept it.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotFound is returned when a review ID does not exist.
	ErrNotFound = errors.New("review not found")
)

// FailureClass partitions failures for the transition history and the API
// error surface.
type FailureClass string

const (
	FailureInputInvalid     FailureClass = "input_invalid"
	FailureAnalysisDegraded FailureClass = "analysis_degraded"
	FailureAIUnavailable    FailureClass = "ai_unavailable"
	FailureAIMalformed      FailureClass = "ai_response_malformed"
	FailureInternal         FailureClass = "internal"
)

// Classify maps an error onto its failure class.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrInputInvalid):
		return FailureInputInvalid
	case errors.Is(err, llm.ErrMalformedResponse):
		return FailureAIMalformed
	case errors.Is(err, ErrAIUnavailable),
		errors.Is(err, llm.ErrAuth),
		errors.Is(err, llm.ErrRateLimited),
		errors.Is(err, llm.ErrUnavailable):

		return FailureAIUnavailable
	default:
		return FailureInternal
	}
}

// inputError wraps a validation failure in ErrInputInvalid.
func inputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInputInvalid,
		fmt.Sprintf(format, args...))
}
